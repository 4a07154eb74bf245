package serial

// DefaultBaudRate is used whenever a caller does not specify a rate.
const DefaultBaudRate = 115200

// Config holds the configuration for a serial port
type Config struct {
	BaudRate int
}

// Option is a functional option for configuring a serial port
type Option func(*Config)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate: DefaultBaudRate,
	}
}

// WithBaudRate sets the baud rate. Rates outside the supported set are not
// rejected here; they fall back to 115200 when the port is configured.
func WithBaudRate(rate int) Option {
	return func(c *Config) {
		c.BaudRate = rate
	}
}

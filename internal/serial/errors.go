package serial

import "errors"

// Predefined error types for robust error handling
var (
	ErrOpenFailed          = errors.New("failed to open serial device")
	ErrConfigurationFailed = errors.New("failed to configure serial device")
	ErrPortClosed          = errors.New("serial port is closed")
	ErrDeviceNotFound      = errors.New("serial device not found")
)

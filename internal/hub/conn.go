package hub

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"seriald/internal/serial"
)

// Status is a point-in-time snapshot of one connection.
type Status struct {
	Port          string `json:"port"`
	Open          bool   `json:"open"`
	BaudRate      int    `json:"baudRate"`
	BufferedLines int    `json:"bufferedLineCount"`
}

// Conn owns one serial device plus the background goroutine that drains it
// into a bounded line buffer. It is created by Registry.Open and destroyed
// by Registry.Close; the ingestion goroutine never outlives it.
type Conn struct {
	port string
	baud int
	dev  *serial.Port
	buf  *lineBuffer

	mu   sync.Mutex
	open bool

	done chan struct{} // closed when the ingestion goroutine exits
}

func newConn(port string, dev *serial.Port, bufferLines int) *Conn {
	return &Conn{
		port: port,
		baud: dev.Baud(),
		dev:  dev,
		buf:  newLineBuffer(bufferLines),
		open: true,
		done: make(chan struct{}),
	}
}

// start launches the ingestion goroutine. The loop is event-driven: it
// sleeps in WaitReadable until the device has bytes, and exits on close or
// end-of-stream.
func (c *Conn) start() {
	go c.ingestLoop()
}

func (c *Conn) ingestLoop() {
	defer close(c.done)

	buf := make([]byte, 4096)
	for {
		if err := c.dev.WaitReadable(); err != nil {
			return
		}
		n, err := c.dev.Read(buf)
		if err != nil || n == 0 {
			return
		}
		if !c.IsOpen() {
			// Cancellation was requested while the read was in
			// flight; the bytes are dropped.
			return
		}
		c.ingest(buf[:n])
	}
}

// ingest decodes a chunk and appends its complete lines to the buffer.
// Chunks that are not valid UTF-8 are discarded without error. The segment
// after the last newline is an unterminated remainder and is discarded
// rather than carried over to the next chunk.
func (c *Conn) ingest(chunk []byte) {
	if !utf8.Valid(chunk) {
		return
	}

	segments := strings.Split(string(chunk), "\n")
	segments = segments[:len(segments)-1]

	var lines []string
	for _, s := range segments {
		s = strings.TrimRight(s, "\r")
		if s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) > 0 {
		c.buf.append(lines...)
	}
}

// ReadAll returns every buffered line and clears the buffer atomically.
func (c *Conn) ReadAll() []string {
	return c.buf.drain()
}

// ReadRecent returns the most recent n lines without disturbing the buffer.
func (c *Conn) ReadRecent(n int) []string {
	return c.buf.peek(n)
}

// Write appends a newline terminator to text and writes it synchronously
// to the device.
func (c *Conn) Write(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("%w: %s", ErrEncoding, c.port)
	}
	if _, err := c.dev.Write([]byte(text + "\n")); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWriteFailed, c.port, err)
	}
	return nil
}

// Close cancels ingestion and releases the device. It is idempotent, and
// once it returns no further buffer mutation can be observed: the ingestion
// goroutine has been joined.
func (c *Conn) Close() error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return nil
	}
	c.open = false
	c.mu.Unlock()

	err := c.dev.Close()
	<-c.done
	return err
}

// IsOpen reports whether Close has been invoked. It is a local cancellation
// flag, not a probe of device presence.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Status never blocks and never mutates.
func (c *Conn) Status() Status {
	return Status{
		Port:          c.port,
		Open:          c.IsOpen(),
		BaudRate:      c.baud,
		BufferedLines: c.buf.size(),
	}
}

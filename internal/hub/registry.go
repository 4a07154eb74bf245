package hub

import (
	"fmt"
	"sort"
	"sync"

	"seriald/internal/serial"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBufferLines sets the per-connection line buffer bound.
func WithBufferLines(n int) RegistryOption {
	return func(r *Registry) {
		r.bufferLines = n
	}
}

// Registry is a synchronized mapping from port identifier to connection.
// It enforces at most one live connection per port and is the only way the
// command layer reaches a connection. The map has its own lock; each
// connection's buffer is an independent mutual-exclusion domain, so
// ingestion on one port never blocks access to another.
type Registry struct {
	mu          sync.RWMutex
	conns       map[string]*Conn
	bufferLines int
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		conns:       make(map[string]*Conn),
		bufferLines: DefaultBufferLines,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open configures the device and starts a connection for the given port.
// If the port already has an entry the existing connection is left
// untouched and ErrAlreadyOpen is returned. If device configuration fails
// no entry is created.
func (r *Registry) Open(port string, baud int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[port]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, port)
	}

	dev, err := serial.Open(port, serial.WithBaudRate(baud))
	if err != nil {
		return err
	}

	conn := newConn(port, dev, r.bufferLines)
	conn.start()
	r.conns[port] = conn
	return nil
}

// Close closes the connection for port and removes its entry.
func (r *Registry) Close(port string) error {
	r.mu.Lock()
	conn, exists := r.conns[port]
	if exists {
		delete(r.conns, port)
	}
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotOpen, port)
	}
	return conn.Close()
}

// CloseAll closes every connection and clears the registry. It never
// fails; device close errors are discarded. The closed port identifiers
// are returned sorted.
func (r *Registry) CloseAll() []string {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*Conn)
	r.mu.Unlock()

	closed := make([]string, 0, len(conns))
	for port, conn := range conns {
		conn.Close()
		closed = append(closed, port)
	}
	sort.Strings(closed)
	return closed
}

func (r *Registry) get(port string) (*Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, exists := r.conns[port]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotOpen, port)
	}
	return conn, nil
}

// Read drains the buffered lines for port.
func (r *Registry) Read(port string) ([]string, error) {
	conn, err := r.get(port)
	if err != nil {
		return nil, err
	}
	return conn.ReadAll(), nil
}

// ReadRecent returns the most recent limit lines for port without
// clearing them.
func (r *Registry) ReadRecent(port string, limit int) ([]string, error) {
	conn, err := r.get(port)
	if err != nil {
		return nil, err
	}
	return conn.ReadRecent(limit), nil
}

// Write sends one line to port.
func (r *Registry) Write(port, text string) error {
	conn, err := r.get(port)
	if err != nil {
		return err
	}
	return conn.Write(text)
}

// Status returns the snapshot for one port.
func (r *Registry) Status(port string) (Status, error) {
	conn, err := r.get(port)
	if err != nil {
		return Status{}, err
	}
	return conn.Status(), nil
}

// StatusAll returns snapshots for every open port, sorted by port.
func (r *Registry) StatusAll() []Status {
	r.mu.RLock()
	statuses := make([]Status, 0, len(r.conns))
	for _, conn := range r.conns {
		statuses = append(statuses, conn.Status())
	}
	r.mu.RUnlock()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Port < statuses[j].Port })
	return statuses
}

// OpenPorts returns a sorted snapshot of the currently open ports.
func (r *Registry) OpenPorts() []string {
	r.mu.RLock()
	ports := make([]string, 0, len(r.conns))
	for port := range r.conns {
		ports = append(ports, port)
	}
	r.mu.RUnlock()

	sort.Strings(ports)
	return ports
}

// FirstOpen resolves the default target when a caller omits the port:
// the first open port in sorted order.
func (r *Registry) FirstOpen() (string, error) {
	ports := r.OpenPorts()
	if len(ports) == 0 {
		return "", ErrNoPortsOpen
	}
	return ports[0], nil
}

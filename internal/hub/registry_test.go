package hub

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// newTestDevice returns a pty master plus the slave path that plays the
// role of the hardware serial device.
func newTestDevice(t *testing.T) (*os.File, string) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })
	return master, slave.Name()
}

func TestRegistryOpenTwice(t *testing.T) {
	reg := NewRegistry()
	t.Cleanup(func() { reg.CloseAll() })
	_, device := newTestDevice(t)

	require.NoError(t, reg.Open(device, 9600))
	err := reg.Open(device, 9600)
	require.ErrorIs(t, err, ErrAlreadyOpen)

	// The existing connection is untouched.
	st, err := reg.Status(device)
	require.NoError(t, err)
	require.True(t, st.Open)
	require.Equal(t, 9600, st.BaudRate)
}

func TestRegistryOpenFailure(t *testing.T) {
	reg := NewRegistry()
	err := reg.Open("/dev/nonexistent-device-42", 115200)
	require.Error(t, err)
	// No entry is created for the failed port.
	require.Empty(t, reg.OpenPorts())
}

func TestRegistryCloseNotOpen(t *testing.T) {
	reg := NewRegistry()
	err := reg.Close("/dev/never-opened")
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestRegistryReadDrains(t *testing.T) {
	reg := NewRegistry()
	t.Cleanup(func() { reg.CloseAll() })
	master, device := newTestDevice(t)

	require.NoError(t, reg.Open(device, 115200))

	_, err := master.Write([]byte("A\r\nB\r\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, err := reg.Status(device)
		return err == nil && st.BufferedLines == 2
	}, time.Second, 10*time.Millisecond)

	lines, err := reg.Read(device)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, lines)

	// Drain semantics: the buffer is now empty.
	lines, err = reg.Read(device)
	require.NoError(t, err)
	require.Empty(t, lines)
}

func TestRegistryReadRecentPeeks(t *testing.T) {
	reg := NewRegistry()
	t.Cleanup(func() { reg.CloseAll() })
	master, device := newTestDevice(t)

	require.NoError(t, reg.Open(device, 115200))

	_, err := master.Write([]byte("one\ntwo\nthree\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st, _ := reg.Status(device)
		return st.BufferedLines == 3
	}, time.Second, 10*time.Millisecond)

	recent, err := reg.ReadRecent(device, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"two", "three"}, recent)

	// Peek semantics: nothing was consumed.
	st, err := reg.Status(device)
	require.NoError(t, err)
	require.Equal(t, 3, st.BufferedLines)
}

func TestRegistryWrite(t *testing.T) {
	reg := NewRegistry()
	t.Cleanup(func() { reg.CloseAll() })
	master, device := newTestDevice(t)

	require.NoError(t, reg.Open(device, 115200))
	require.NoError(t, reg.Write(device, "ping"))

	buf := make([]byte, 16)
	n, err := master.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ping\n", string(buf[:n]))

	err = reg.Write(device, "bad\xffutf8")
	require.ErrorIs(t, err, ErrEncoding)

	err = reg.Write("/dev/never-opened", "ping")
	require.ErrorIs(t, err, ErrNotOpen)
}

func TestRegistryBufferBound(t *testing.T) {
	reg := NewRegistry(WithBufferLines(5))
	t.Cleanup(func() { reg.CloseAll() })
	master, device := newTestDevice(t)

	require.NoError(t, reg.Open(device, 115200))

	for i := 0; i < 10; i++ {
		_, err := fmt.Fprintf(master, "line-%d\n", i)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		recent, err := reg.ReadRecent(device, 1)
		return err == nil && len(recent) == 1 && recent[0] == "line-9"
	}, time.Second, 10*time.Millisecond)

	st, err := reg.Status(device)
	require.NoError(t, err)
	require.Equal(t, 5, st.BufferedLines)

	lines, err := reg.Read(device)
	require.NoError(t, err)
	require.Equal(t, []string{"line-5", "line-6", "line-7", "line-8", "line-9"}, lines)
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry()

	// Never fails on an empty registry.
	require.Empty(t, reg.CloseAll())

	master1, dev1 := newTestDevice(t)
	master2, dev2 := newTestDevice(t)
	_ = master1
	_ = master2

	require.NoError(t, reg.Open(dev1, 9600))
	require.NoError(t, reg.Open(dev2, 115200))

	closed := reg.CloseAll()
	require.Len(t, closed, 2)
	require.Contains(t, closed, dev1)
	require.Contains(t, closed, dev2)
	require.Empty(t, reg.OpenPorts())
}

func TestRegistryFirstOpen(t *testing.T) {
	reg := NewRegistry()
	t.Cleanup(func() { reg.CloseAll() })

	_, err := reg.FirstOpen()
	require.ErrorIs(t, err, ErrNoPortsOpen)

	_, device := newTestDevice(t)
	require.NoError(t, reg.Open(device, 115200))

	first, err := reg.FirstOpen()
	require.NoError(t, err)
	require.Equal(t, device, first)
}

func TestConnCloseIdempotent(t *testing.T) {
	reg := NewRegistry()
	_, device := newTestDevice(t)

	require.NoError(t, reg.Open(device, 115200))

	st, err := reg.Status(device)
	require.NoError(t, err)
	require.True(t, st.Open)

	require.NoError(t, reg.Close(device))
	require.ErrorIs(t, reg.Close(device), ErrNotOpen)

	_, err = reg.Status(device)
	require.ErrorIs(t, err, ErrNotOpen)
}

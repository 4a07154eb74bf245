package serial

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Port wraps one configured serial device descriptor. It is created fully
// configured by Open; the baud rate cannot be changed afterwards and Close
// is irreversible.
type Port struct {
	fd     int
	device string
	baud   int

	// self-pipe used to wake a blocked WaitReadable on Close
	pipeR int
	pipeW int

	closeOnce sync.Once
	done      chan struct{}
	closeErr  error
}

// Open opens a serial device for simultaneous read/write without becoming
// its controlling terminal and applies raw-mode 8N1 settings.
//
// Configuration is atomic: if any step after open fails, the descriptor is
// closed and an error wrapping ErrConfigurationFailed is returned. No
// partially configured Port is ever returned.
func Open(device string, opts ...Option) (*Port, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// O_NONBLOCK only so the open call itself cannot hang on modem
	// control lines; cleared again below.
	fd, err := unix.Open(device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOpenFailed, device, err)
	}

	if err := configurePort(fd, config); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigurationFailed, device, err)
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: clear nonblock: %v", ErrConfigurationFailed, device, err)
	}

	// Discard anything the device sent before we were listening.
	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: flush input: %v", ErrConfigurationFailed, device, err)
	}

	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %s: pipe: %v", ErrConfigurationFailed, device, err)
	}

	return &Port{
		fd:     fd,
		device: device,
		baud:   config.BaudRate,
		pipeR:  pipeFds[0],
		pipeW:  pipeFds[1],
		done:   make(chan struct{}),
	}, nil
}

// configurePort applies raw-mode termios settings: 8 data bits, no parity,
// one stop bit, receiver enabled, modem control lines ignored, no canonical
// mode, echo, signals, output post-processing or software flow control.
func configurePort(fd int, config Config) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %v", err)
	}

	termios.Cflag = unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Iflag = 0 // no input processing, no IXON/IXOFF
	termios.Oflag = 0 // no output processing
	termios.Lflag = 0 // raw mode

	speed := baudToSpeed(config.BaudRate)
	termios.Cflag = (termios.Cflag &^ unix.CBAUD) | speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	// Block until at least one byte is available; WaitReadable gates reads
	// so this never stalls a caller that polled first.
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %v", err)
	}

	return nil
}

// baudToSpeed maps a baud rate to its unix speed constant. Unrecognized
// rates fall back to 115200 rather than failing, so callers never have to
// special-case odd rates.
func baudToSpeed(rate int) uint32 {
	switch rate {
	case 300:
		return unix.B300
	case 600:
		return unix.B600
	case 1200:
		return unix.B1200
	case 2400:
		return unix.B2400
	case 4800:
		return unix.B4800
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B115200
	}
}

// Device returns the device path the port was opened with.
func (p *Port) Device() string {
	return p.device
}

// Baud returns the baud rate the port was configured with.
func (p *Port) Baud() int {
	return p.baud
}

// WaitReadable blocks until the device has bytes available or the port is
// closed. It returns ErrPortClosed once Close has been called, which is the
// only way a blocked wait ends without data.
func (p *Port) WaitReadable() error {
	for {
		pfd := []unix.PollFd{
			{Fd: int32(p.fd), Events: unix.POLLIN},
			{Fd: int32(p.pipeR), Events: unix.POLLIN},
		}
		_, err := unix.Poll(pfd, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		select {
		case <-p.done:
			return ErrPortClosed
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			return ErrPortClosed
		}
		if pfd[0].Revents&(unix.POLLHUP|unix.POLLERR) != 0 && pfd[0].Revents&unix.POLLIN == 0 {
			return ErrPortClosed
		}
		if pfd[0].Revents&unix.POLLIN != 0 {
			return nil
		}
	}
}

// Read reads available bytes from the device.
func (p *Port) Read(buf []byte) (int, error) {
	select {
	case <-p.done:
		return 0, ErrPortClosed
	default:
	}
	return unix.Read(p.fd, buf)
}

// Write writes data to the device as a single bounded syscall.
func (p *Port) Write(data []byte) (int, error) {
	select {
	case <-p.done:
		return 0, ErrPortClosed
	default:
	}
	return unix.Write(p.fd, data)
}

// Close releases the descriptor and wakes any blocked WaitReadable.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		// Wake the poll before invalidating the descriptor.
		unix.Write(p.pipeW, []byte{1})
		p.closeErr = unix.Close(p.fd)
		unix.Close(p.pipeR)
		unix.Close(p.pipeW)
	})
	return p.closeErr
}

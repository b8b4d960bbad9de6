package termios

import (
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// ErrClosed is returned by Port operations once Close has been called.
var ErrClosed = syscall.EBADF

// Port is a raw POSIX serial line opened for exclusive read/write, with
// byte-timeout reads and modem-line control. Adapted from the teacher
// goserial library's Port type.
type Port struct {
	closed atomic.Bool
	f      int
}

// Open opens path (e.g. "/dev/ttyUSB0") for read/write without making it a
// controlling terminal.
func Open(path string) (*Port, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, err
	}
	// Clear O_NONBLOCK after open: we want ReadTimeout-style blocking reads,
	// not syscall.EAGAIN, but not holding the line open before drivers
	// are ready requires opening with O_NONBLOCK first.
	flags, err := fcntl(fd, syscall.F_GETFL, 0)
	if err != nil {
		syscall.Close(fd)
		return nil, err
	}
	if _, err := fcntl(fd, syscall.F_SETFL, flags&^syscall.O_NONBLOCK); err != nil {
		syscall.Close(fd)
		return nil, err
	}
	return &Port{f: fd}, nil
}

func fcntl(fd int, cmd int, arg int) (int, error) {
	r, _, errno := syscall.Syscall(syscall.SYS_FCNTL, uintptr(fd), uintptr(cmd), uintptr(arg))
	if errno != 0 {
		return 0, errno
	}
	return int(r), nil
}

func (p *Port) Write(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	return syscall.Write(p.f, data)
}

func (p *Port) Read(data []byte) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	return syscall.Read(p.f, data)
}

// ReadTimeout reads at least one byte into data, or times out via select(2)
// semantics implemented through a read-deadline poll loop.
func (p *Port) ReadTimeout(data []byte, timeout time.Duration) (int, error) {
	if p.closed.Load() {
		return 0, ErrClosed
	}
	deadline := time.Now().Add(timeout)
	fds := &syscall.FdSet{}
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, syscall.ETIMEDOUT
		}
		fdSetZero(fds)
		fdSetSet(fds, p.f)
		tv := syscall.NsecToTimeval(remaining.Nanoseconds())
		n, err := syscallSelect(p.f+1, fds, nil, nil, &tv)
		if err == syscall.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, syscall.ETIMEDOUT
		}
		return syscall.Read(p.f, data)
	}
}

func (p *Port) Close() error {
	if !p.closed.Swap(true) {
		fd := p.f
		p.f = -1
		return syscall.Close(fd)
	}
	return ErrClosed
}

func (p *Port) GetAttr() (*Termios, error) {
	attrs := &Termios{}
	if err := ioctl.Ioctl(uintptr(p.f), tcgets, uintptr(unsafe.Pointer(attrs))); err != nil {
		return nil, err
	}
	return attrs, nil
}

func (p *Port) SetAttr(when Action, attrs *Termios) error {
	return ioctl.Ioctl(uintptr(p.f), tcsets+uintptr(when), uintptr(unsafe.Pointer(attrs)))
}

// MakeRaw puts the line into raw 8N1 mode at whatever baud rate the OS
// opened it with (the cart is driven at the OS-default rate, never a
// custom baud).
func (p *Port) MakeRaw() error {
	attrs, err := p.GetAttr()
	if err != nil {
		return err
	}
	attrs.MakeRaw()
	return p.SetAttr(TCSANOW, attrs)
}

// SetModemLines sets the indicated modem-control bits (e.g. DTR high).
func (p *Port) SetModemLines(line ModemLine) error {
	return ioctl.Ioctl(uintptr(p.f), tiocmbis, uintptr(unsafe.Pointer(&line)))
}

// ClearModemLines clears the indicated modem-control bits (e.g. DTR low).
func (p *Port) ClearModemLines(line ModemLine) error {
	return ioctl.Ioctl(uintptr(p.f), tiocmbic, uintptr(unsafe.Pointer(&line)))
}

// GetModemLines reads the current modem-control status bits (used to poll
// DSR during the reset handshake).
func (p *Port) GetModemLines() (ModemLine, error) {
	var line ModemLine
	err := ioctl.Ioctl(uintptr(p.f), tiocmget, uintptr(unsafe.Pointer(&line)))
	return line, err
}

// ResetInputBuffer discards unread input queued on the line.
func (p *Port) ResetInputBuffer() error {
	return ioctl.Ioctl(uintptr(p.f), uintptr(0x540B), uintptr(0)) // TCFLSH, TCIFLUSH
}

// ResetOutputBuffer discards unwritten output queued on the line.
func (p *Port) ResetOutputBuffer() error {
	return ioctl.Ioctl(uintptr(p.f), uintptr(0x540B), uintptr(1)) // TCFLSH, TCOFLUSH
}

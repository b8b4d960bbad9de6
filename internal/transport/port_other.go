//go:build !linux

package transport

import (
	"go.bug.st/serial"
)

// genericPort backs rawPort with go.bug.st/serial on platforms where the
// Linux termios ioctls aren't available.
type genericPort struct {
	serial.Port
}

func openPort(name string) (rawPort, error) {
	p, err := serial.Open(name, &serial.Mode{BaudRate: 115200})
	if err != nil {
		return nil, err
	}
	return genericPort{p}, nil
}

func (p genericPort) SetDTR(on bool) error {
	return p.Port.SetDTR(on)
}

func (p genericPort) DSR() (bool, error) {
	status, err := p.Port.GetModemStatusBits()
	if err != nil {
		return false, err
	}
	return status.DSR, nil
}

func (p genericPort) ResetInputBuffer() error {
	return p.Port.ResetInputBuffer()
}

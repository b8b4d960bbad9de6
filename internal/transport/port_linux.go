package transport

import (
	"github.com/flashcart64/sc64ctl/internal/termios"
)

// linuxPort backs rawPort with the adapted goioctl-based termios layer,
// giving direct DTR/DSR control without needing a second library.
type linuxPort struct {
	*termios.Port
}

func openPort(name string) (rawPort, error) {
	p, err := termios.Open(name)
	if err != nil {
		return nil, err
	}
	if err := p.MakeRaw(); err != nil {
		p.Close()
		return nil, err
	}
	return linuxPort{p}, nil
}

func (p linuxPort) SetDTR(on bool) error {
	if on {
		return p.SetModemLines(termios.TIOCM_DTR)
	}
	return p.ClearModemLines(termios.TIOCM_DTR)
}

func (p linuxPort) DSR() (bool, error) {
	lines, err := p.GetModemLines()
	if err != nil {
		return false, err
	}
	return lines&termios.TIOCM_DSR != 0, nil
}

package transport

import (
	"io"
	"time"
)

// rawPort is the minimal serial-line surface the transport needs, satisfied
// by both the Linux termios backend and the go.bug.st/serial fallback used
// on other platforms.
type rawPort interface {
	io.Reader
	io.Writer
	io.Closer
	SetDTR(on bool) error
	DSR() (bool, error)
	ResetInputBuffer() error
}

// resetLink performs the cart's reset handshake: drive DTR high and wait for
// DSR to follow within a bounded number of polls, clear whatever the cart
// queued while resetting, then drop DTR and wait for DSR to fall again. This
// mirrors the exact poll counts and intervals of the original transport.
func resetLink(p rawPort) error {
	const (
		pollInterval = 100 * time.Millisecond
		pollCount    = 10
	)
	if err := p.SetDTR(true); err != nil {
		return err
	}
	if err := pollDSR(p, true, pollCount, pollInterval); err != nil {
		return err
	}
	if err := p.ResetInputBuffer(); err != nil {
		return err
	}
	if err := p.SetDTR(false); err != nil {
		return err
	}
	return pollDSR(p, false, pollCount, pollInterval)
}

func pollDSR(p rawPort, want bool, count int, interval time.Duration) error {
	for i := 0; i < count; i++ {
		dsr, err := p.DSR()
		if err != nil {
			return err
		}
		if dsr == want {
			return nil
		}
		time.Sleep(interval)
	}
	return errResetTimeout
}

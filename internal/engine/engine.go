// Package engine layers typed SC64 operations (config/setting access,
// memory transfer, flash programming, RTC, CIC parameters, firmware
// update/backup, ROM/save/DDIPL upload) on top of the framed transport.
package engine

import (
	"encoding/binary"
	"time"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/link"
	"github.com/flashcart64/sc64ctl/internal/transport"
)

// Default and extended response timeouts, per the link's timeout budget.
const (
	defaultTimeout = 5 * time.Second
	memTimeout     = 20 * time.Second
	updateTimeout  = 60 * time.Second
)

// Engine is a typed command interface over a single open Transport. Only one
// goroutine may call its methods concurrently; the debug loop and CLI both
// rely on that single-writer discipline.
type Engine struct {
	t Executor
}

// Executor is the minimal surface Engine needs from a Transport, so tests
// can substitute a fake without opening a real serial line.
type Executor interface {
	Execute(cmd byte, arg0, arg1 uint32, payload []byte, timeout time.Duration) (link.Frame, error)
	Packets() <-chan link.Frame
}

// New wraps an open transport in a command engine.
func New(t *transport.Transport) *Engine {
	return &Engine{t: t}
}

// NewWithExecutor wraps an arbitrary Executor (used by tests).
func NewWithExecutor(e Executor) *Engine {
	return &Engine{t: e}
}

func (e *Engine) exec(cmd byte, arg0, arg1 uint32, payload []byte, timeout time.Duration) ([]byte, error) {
	frame, err := e.t.Execute(cmd, arg0, arg1, payload, timeout)
	if err != nil {
		return nil, err
	}
	return frame.Data, nil
}

// Identify returns the device identification string, expected to be "SCv2".
func (e *Engine) Identify() (string, error) {
	data, err := e.exec('v', 0, 0, nil, defaultTimeout)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// APIVersion returns the device's reported major/minor API version.
func (e *Engine) APIVersion() (major, minor uint16, err error) {
	data, err := e.exec('V', 0, 0, nil, defaultTimeout)
	if err != nil {
		return 0, 0, err
	}
	if len(data) < 4 {
		return 0, 0, sc64.NewConnectionError("short API version response", nil)
	}
	return binary.BigEndian.Uint16(data[0:2]), binary.BigEndian.Uint16(data[2:4]), nil
}

// ResetState restores the device's config and setting registers to their
// power-on defaults.
func (e *Engine) ResetState() error {
	_, err := e.exec('R', 0, 0, nil, defaultTimeout)
	return err
}

// Packets exposes the transport's async packet stream for the debug loop.
func (e *Engine) Packets() <-chan link.Frame {
	return e.t.Packets()
}

// ExecuteRaw sends an arbitrary command frame and returns its response
// payload. It exists for callers outside this package that need to issue a
// command with no dedicated typed method, such as the debug loop's D-packet
// acknowledgements and U-packet forwarding.
func (e *Engine) ExecuteRaw(cmd byte, arg0, arg1 uint32, payload []byte) ([]byte, error) {
	return e.exec(cmd, arg0, arg1, payload, defaultTimeout)
}

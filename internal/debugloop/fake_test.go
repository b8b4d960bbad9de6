package debugloop

import (
	"time"

	"github.com/flashcart64/sc64ctl/internal/link"
)

// fakeExecutor is a scriptable stand-in for a transport.Transport, mirroring
// the one internal/engine tests itself against, so Loop can be driven
// against a fake engine.Engine without real hardware.
type fakeExecutor struct {
	calls    []fakeCall
	response map[byte][]fakeResponse
	packets  chan link.Frame
}

type fakeCall struct {
	cmd        byte
	arg0, arg1 uint32
	payload    []byte
}

type fakeResponse struct {
	data []byte
	err  error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{
		response: make(map[byte][]fakeResponse),
		packets:  make(chan link.Frame, 8),
	}
}

func (f *fakeExecutor) answer(cmd byte, data []byte, err error) {
	f.response[cmd] = append(f.response[cmd], fakeResponse{data, err})
}

func (f *fakeExecutor) Execute(cmd byte, arg0, arg1 uint32, payload []byte, _ time.Duration) (link.Frame, error) {
	f.calls = append(f.calls, fakeCall{cmd, arg0, arg1, append([]byte(nil), payload...)})
	queue := f.response[cmd]
	if len(queue) == 0 {
		return link.Frame{Kind: link.KindComplete, Command: cmd}, nil
	}
	next := queue[0]
	f.response[cmd] = queue[1:]
	if next.err != nil {
		return link.Frame{}, next.err
	}
	return link.Frame{Kind: link.KindComplete, Command: cmd, Data: next.data}, nil
}

func (f *fakeExecutor) Packets() <-chan link.Frame { return f.packets }

// Package transport owns the serial line itself: opening the device, the
// cart reset handshake, and the two worker goroutines that move bytes to and
// from the wire. Frame parsing is delegated to internal/link; each response is
// handed to the waiting Execute call by its command letter.
package transport

import (
	"errors"
	"sync"
	"time"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/link"
)

var errResetTimeout = errors.New("transport: reset handshake timed out waiting for DSR")

// writeChunkSize bounds a single write(2) call; larger transfers are split
// across several writes so the writer goroutine never blocks the whole
// pipeline on one oversized syscall.
const writeChunkSize = 1 << 16

// Transport is a single open connection to an SC64 cart. Each response is
// delivered to the Execute call registered for its command letter, so calls
// for distinct letters may be outstanding at once; calls for the same letter
// are not told apart. Packets may be read concurrently with Execute.
type Transport struct {
	port rawPort

	writeCh chan []byte
	quit    chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	responses map[byte]chan link.Frame
	packets   chan link.Frame

	closeOnce sync.Once
	closeErr  error
	readErr   chan error
}

// Open connects to the cart at path, performs the reset handshake, and
// starts the reader/writer goroutines.
func Open(path string) (*Transport, error) {
	p, err := openPort(path)
	if err != nil {
		return nil, sc64.NewConnectionError("opening "+path, err)
	}
	if err := resetLink(p); err != nil {
		p.Close()
		return nil, sc64.NewConnectionError("resetting link", err)
	}
	t := &Transport{
		port:      p,
		writeCh:   make(chan []byte, 8),
		quit:      make(chan struct{}),
		responses: make(map[byte]chan link.Frame),
		packets:   make(chan link.Frame, 64),
		readErr:   make(chan error, 1),
	}
	t.wg.Add(2)
	go t.writeLoop()
	go t.readLoop()
	return t, nil
}

// Close stops both worker goroutines and closes the underlying port. It is
// safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		close(t.quit)
		t.closeErr = t.port.Close()
		t.wg.Wait()
	})
	return t.closeErr
}

func (t *Transport) writeLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.quit:
			return
		case chunk := <-t.writeCh:
			for len(chunk) > 0 {
				n := len(chunk)
				if n > writeChunkSize {
					n = writeChunkSize
				}
				if _, err := t.port.Write(chunk[:n]); err != nil {
					return
				}
				chunk = chunk[n:]
			}
		}
	}
}

func (t *Transport) readLoop() {
	defer t.wg.Done()
	for {
		frame, err := link.ReadNext(t.port)
		if err != nil {
			select {
			case t.readErr <- err:
			default:
			}
			t.dispatchClose()
			return
		}
		if frame.Kind == link.KindPacket {
			select {
			case t.packets <- frame:
			case <-t.quit:
				return
			}
			continue
		}
		t.mu.Lock()
		ch, ok := t.responses[frame.Command]
		if ok {
			delete(t.responses, frame.Command)
		}
		t.mu.Unlock()
		if ok {
			ch <- frame
		}
		select {
		case <-t.quit:
			return
		default:
		}
	}
}

func (t *Transport) dispatchClose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for cmd, ch := range t.responses {
		close(ch)
		delete(t.responses, cmd)
	}
}

// Execute sends a CMD frame for cmd with the given arguments and payload,
// and waits for the matching CMP or ERR frame. A second call for the same
// letter while one is outstanding replaces the first call's registration.
func (t *Transport) Execute(cmd byte, arg0, arg1 uint32, payload []byte, timeout time.Duration) (link.Frame, error) {
	respCh := make(chan link.Frame, 1)
	t.mu.Lock()
	t.responses[cmd] = respCh
	t.mu.Unlock()

	select {
	case t.writeCh <- link.EncodeCommand(cmd, arg0, arg1, payload):
	case <-t.quit:
		return link.Frame{}, sc64.NewConnectionError("transport closed", nil)
	}

	var timer *time.Timer
	var timeoutCh <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		defer timer.Stop()
		timeoutCh = timer.C
	}

	select {
	case frame, ok := <-respCh:
		if !ok {
			return link.Frame{}, sc64.NewConnectionError("transport closed while waiting for response", t.lastReadErr())
		}
		if frame.Kind == link.KindError {
			return frame, sc64.NewConnectionError("device reported an error", nil)
		}
		return frame, nil
	case <-timeoutCh:
		t.mu.Lock()
		delete(t.responses, cmd)
		t.mu.Unlock()
		return link.Frame{}, sc64.NewConnectionError("timed out waiting for response", nil)
	case <-t.quit:
		return link.Frame{}, sc64.NewConnectionError("transport closed", nil)
	}
}

// Packets returns the channel of asynchronous PKT frames (ISV debug output,
// 64DD block requests, USB telemetry) for the debug loop to consume.
func (t *Transport) Packets() <-chan link.Frame {
	return t.packets
}

func (t *Transport) lastReadErr() error {
	select {
	case err := <-t.readErr:
		return err
	default:
		return nil
	}
}

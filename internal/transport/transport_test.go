package transport

import (
	"encoding/binary"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/flashcart64/sc64ctl/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipePort is a rawPort backed by two io.Pipe halves, letting a test act as
// the device on the other end of the wire without any real serial hardware.
type pipePort struct {
	r io.Reader
	w io.Writer
}

func (p *pipePort) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error                { return nil }
func (p *pipePort) SetDTR(bool) error           { return nil }
func (p *pipePort) DSR() (bool, error)          { return true, nil }
func (p *pipePort) ResetInputBuffer() error     { return nil }

// newTestTransport wires a Transport directly to an in-memory device
// simulator, bypassing Open (and its real-port reset handshake).
func newTestTransport(t *testing.T) (*Transport, *deviceSim) {
	t.Helper()
	hostToDeviceR, hostToDeviceW := io.Pipe()
	deviceToHostR, deviceToHostW := io.Pipe()

	port := &pipePort{r: deviceToHostR, w: hostToDeviceW}
	tr := &Transport{
		port:      port,
		writeCh:   make(chan []byte, 8),
		quit:      make(chan struct{}),
		responses: make(map[byte]chan link.Frame),
		packets:   make(chan link.Frame, 64),
		readErr:   make(chan error, 1),
	}
	tr.wg.Add(2)
	go tr.writeLoop()
	go tr.readLoop()

	sim := &deviceSim{r: hostToDeviceR, w: deviceToHostW}
	t.Cleanup(func() { tr.Close() })
	return tr, sim
}

// deviceSim plays the cart's side of the link: it reads 12-byte CMD headers
// (identifier + letter + two big-endian u32 args, no payload) and lets the
// test script a response or an async packet in return.
type deviceSim struct {
	mu sync.Mutex
	r  io.Reader
	w  io.Writer
}

func (d *deviceSim) readCommand(t *testing.T) (cmd byte, arg0, arg1 uint32) {
	t.Helper()
	var header [12]byte
	_, err := io.ReadFull(d.r, header[:])
	require.NoError(t, err)
	require.Equal(t, "CMD", string(header[0:3]))
	return header[3], binary.BigEndian.Uint32(header[4:8]), binary.BigEndian.Uint32(header[8:12])
}

func (d *deviceSim) reply(t *testing.T, kind link.Kind, cmd byte, payload []byte) {
	t.Helper()
	id := map[link.Kind]string{link.KindComplete: "CMP", link.KindError: "ERR", link.KindPacket: "PKT"}[kind]
	buf := append([]byte(id), cmd)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
	buf = append(buf, payload...)
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.w.Write(buf)
	require.NoError(t, err)
}

func TestExecuteRoundTrip(t *testing.T) {
	tr, sim := newTestTransport(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		cmd, arg0, arg1 := sim.readCommand(t)
		assert.Equal(t, byte('v'), cmd)
		assert.Equal(t, uint32(0), arg0)
		assert.Equal(t, uint32(0), arg1)
		sim.reply(t, link.KindComplete, cmd, []byte("SCv2"))
	}()

	frame, err := tr.Execute('v', 0, 0, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("SCv2"), frame.Data)
	<-done
}

func TestExecuteReturnsConnectionErrorOnErrFrame(t *testing.T) {
	tr, sim := newTestTransport(t)

	go func() {
		cmd, _, _ := sim.readCommand(t)
		sim.reply(t, link.KindError, cmd, nil)
	}()

	_, err := tr.Execute('x', 0, 0, nil, time.Second)
	assert.Error(t, err)
}

func TestExecuteTimesOutWithNoResponse(t *testing.T) {
	tr, _ := newTestTransport(t)
	_, err := tr.Execute('z', 0, 0, nil, 20*time.Millisecond)
	assert.Error(t, err)
}

func TestPacketsAreDeliveredAsynchronously(t *testing.T) {
	tr, sim := newTestTransport(t)
	sim.reply(t, link.KindPacket, 'I', []byte("hello"))

	select {
	case frame := <-tr.Packets():
		assert.Equal(t, byte('I'), frame.Command)
		assert.Equal(t, []byte("hello"), frame.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for packet")
	}
}

func TestConcurrentExecutesAreCorrelatedByCommand(t *testing.T) {
	tr, sim := newTestTransport(t)

	go func() {
		for i := 0; i < 2; i++ {
			cmd, _, _ := sim.readCommand(t)
			sim.reply(t, link.KindComplete, cmd, []byte{cmd})
		}
	}()

	var wg sync.WaitGroup
	results := make(map[byte][]byte)
	var mu sync.Mutex
	for _, cmd := range []byte{'a', 'b'} {
		wg.Add(1)
		go func(cmd byte) {
			defer wg.Done()
			frame, err := tr.Execute(cmd, 0, 0, nil, time.Second)
			require.NoError(t, err)
			mu.Lock()
			results[cmd] = frame.Data
			mu.Unlock()
		}(cmd)
	}
	wg.Wait()
	assert.Equal(t, []byte{'a'}, results['a'])
	assert.Equal(t, []byte{'b'}, results['b'])
}

package debugloop

import (
	"testing"

	"github.com/flashcart64/sc64ctl/internal/dd64"
	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/flashcart64/sc64ctl/internal/link"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRoutesByCommandLetter(t *testing.T) {
	fake := newFakeExecutor()
	l := &Loop{eng: engine.NewWithExecutor(fake), loadedDisk: -1}

	require.NoError(t, l.dispatch(link.Frame{Command: 'I', Data: []byte("hi\n")}))
	require.NoError(t, l.dispatch(link.Frame{Command: 'B'})) // no disks configured, no-op
	require.NoError(t, l.dispatch(link.Frame{Command: 'Z'})) // unknown command, ignored
}

func TestDispatchRejectsShortUSBPacket(t *testing.T) {
	l := &Loop{}
	err := l.dispatch(link.Frame{Command: 'U', Data: []byte{1}})
	assert.Error(t, err)
}

func TestShutdownEjectsAndClosesGDBConn(t *testing.T) {
	fake := newFakeExecutor()
	conn := &fakeGDBConn{}
	l := &Loop{
		eng:        engine.NewWithExecutor(fake),
		loadedDisk: 0,
		disks:      []*dd64.Image{buildDevelopmentDisk(t)},
		gdbConn:    conn,
	}

	l.shutdown()

	assert.Equal(t, -1, l.loadedDisk)
	assert.True(t, conn.closed)

	var sawEject, sawISVClear bool
	for _, c := range fake.calls {
		if c.cmd == 'C' && c.arg0 == uint32(engine.DDDiskState) && c.arg1 == 1 {
			sawEject = true
		}
		if c.cmd == 'C' && c.arg0 == uint32(engine.ISVAddress) && c.arg1 == 0 {
			sawISVClear = true
		}
	}
	assert.True(t, sawEject)
	assert.True(t, sawISVClear)
}

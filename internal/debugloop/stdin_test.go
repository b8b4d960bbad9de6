package debugloop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendStdinCommandSendsPlainTextAsTextPacket(t *testing.T) {
	fake := newFakeExecutor()
	l := &Loop{eng: engine.NewWithExecutor(fake)}
	require.NoError(t, l.sendStdinCommand("hello world"))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, uint32(usbTypeText), fake.calls[0].arg0)
	assert.Equal(t, []byte("hello world\n"), fake.calls[0].payload)
}

func TestSendStdinCommandSendsFileAsRawBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644))

	fake := newFakeExecutor()
	l := &Loop{eng: engine.NewWithExecutor(fake)}
	require.NoError(t, l.sendStdinCommand("load@"+path+"@bin"))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, uint32(usbTypeRawBinary), fake.calls[0].arg0)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, fake.calls[0].payload)
}

func TestSendStdinCommandPropagatesFileReadError(t *testing.T) {
	l := &Loop{eng: engine.NewWithExecutor(newFakeExecutor())}
	err := l.sendStdinCommand("load@/nonexistent/path@bin")
	assert.Error(t, err)
}

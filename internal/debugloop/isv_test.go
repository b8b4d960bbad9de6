package debugloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleISVBuffersUntilNewline(t *testing.T) {
	l := &Loop{}
	require.NoError(t, l.handleISV([]byte("partial")))
	assert.Equal(t, []byte("partial"), l.lineBuf)

	require.NoError(t, l.handleISV([]byte(" line\nsecond\n")))
	assert.Empty(t, l.lineBuf)
}

func TestHandleISVDecodesEUCJP(t *testing.T) {
	l := &Loop{}
	// EUC-JP encoding of "日本" (0xC6FC 0xCBDC).
	eucjp := []byte{0xC6, 0xFC, 0xCB, 0xDC, '\n'}
	require.NoError(t, l.handleISV(eucjp))
	assert.Empty(t, l.lineBuf)
}

func TestHandleISVFallsBackOnInvalidEncoding(t *testing.T) {
	l := &Loop{}
	require.NoError(t, l.handleISV([]byte{0xFF, 0xFE, '\n'}))
	assert.Empty(t, l.lineBuf)
}

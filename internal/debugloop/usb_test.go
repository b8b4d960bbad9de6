package debugloop

import (
	"encoding/binary"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/flashcart64/sc64ctl/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usbPacket(typ uint32, payload []byte) []byte {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, typ<<24|uint32(len(payload)))
	return append(header, payload...)
}

func TestHandleUSBRejectsShortPacket(t *testing.T) {
	l := &Loop{}
	assert.Error(t, l.handleUSB([]byte{1, 2}))
}

func TestHandleUSBHeaderIsRemembered(t *testing.T) {
	l := &Loop{}
	payload := make([]byte, 16)
	payload[3] = 4 // pixel format 4
	require.NoError(t, l.handleUSB(usbPacket(usbTypeHeader, payload)))
	assert.Equal(t, payload, l.lastHeader)
}

type fakeGDBConn struct {
	written [][]byte
	closed  bool
}

func (f *fakeGDBConn) Write(b []byte) (int, error) {
	f.written = append(f.written, append([]byte(nil), b...))
	return len(b), nil
}
func (f *fakeGDBConn) Close() error { f.closed = true; return nil }

func TestHandleUSBForwardsGDBPacketsToConn(t *testing.T) {
	conn := &fakeGDBConn{}
	l := &Loop{gdbConn: conn}
	require.NoError(t, l.handleUSB(usbPacket(usbTypeGDB, []byte("$g#67"))))
	require.Len(t, conn.written, 1)
	assert.Equal(t, []byte("$g#67"), conn.written[0])
}

func TestHandleUSBIgnoresGDBPacketsWithNoConn(t *testing.T) {
	l := &Loop{}
	assert.NoError(t, l.handleUSB(usbPacket(usbTypeGDB, []byte("$g#67"))))
}

func TestRGBA5551Decoding(t *testing.T) {
	// Full-white opaque pixel: all five bits set in every channel, alpha bit set.
	px := uint16(0xFFFF)
	c := rgba5551(px)
	assert.Equal(t, uint8(0xF8), c.R)
	assert.Equal(t, uint8(0xF8), c.G)
	assert.Equal(t, uint8(0xF8), c.B)
	assert.Equal(t, uint8(0xFF), c.A)

	transparent := rgba5551(0x0000)
	assert.Equal(t, uint8(0), transparent.A)
}

func TestWriteScreenshotRequiresPrecedingHeader(t *testing.T) {
	l := &Loop{}
	err := l.writeScreenshot([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestWriteScreenshotProducesValidPNG(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	l := &Loop{}
	header := make([]byte, 16)
	binary.BigEndian.PutUint32(header[0:4], 4) // RGBA32
	binary.BigEndian.PutUint32(header[4:8], 2) // width
	binary.BigEndian.PutUint32(header[8:12], 2) // height
	l.lastHeader = header

	pixels := make([]byte, 2*2*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	require.NoError(t, l.writeScreenshot(pixels))

	matches, err := filepath.Glob(filepath.Join(dir, "screenshot-*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
}

func TestHandleUSBTextIsPrinted(t *testing.T) {
	l := &Loop{}
	assert.NoError(t, l.handleUSB(usbPacket(usbTypeText, []byte("hello\n"))))
}

func TestSendUSBPacketUsesEngineExecuteRaw(t *testing.T) {
	fake := newFakeExecutor()
	l := &Loop{eng: engine.NewWithExecutor(fake)}
	require.NoError(t, l.sendUSBPacket(usbTypeText, []byte("hi")))
	require.Len(t, fake.calls, 1)
	assert.Equal(t, byte('U'), fake.calls[0].cmd)
	assert.Equal(t, uint32(usbTypeText), fake.calls[0].arg0)
	assert.Equal(t, []byte("hi"), fake.calls[0].payload)
}

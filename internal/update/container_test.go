package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildComplete() *Writer {
	w := NewWriter()
	w.AddUpdateInfo("sc64ctl test image")
	w.AddMCU([]byte{1, 2, 3})
	w.AddFPGA([]byte{4, 5, 6, 7, 8})
	w.AddBootloader([]byte("bootloader stub"))
	w.AddPrimer([]byte{0xAA})
	return w
}

func TestWriterParseRoundTrip(t *testing.T) {
	data := buildComplete().Bytes()

	r, err := Parse(data)
	require.NoError(t, err)
	require.NoError(t, r.RequireAll())

	info, ok := r.UpdateInfo()
	require.True(t, ok)
	assert.Equal(t, "sc64ctl test image", info)

	mcu, ok := r.MCU()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, mcu)

	fpga, ok := r.FPGA()
	require.True(t, ok)
	assert.Equal(t, []byte{4, 5, 6, 7, 8}, fpga)

	boot, ok := r.Bootloader()
	require.True(t, ok)
	assert.Equal(t, []byte("bootloader stub"), boot)

	primer, ok := r.Primer()
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA}, primer)
}

func TestChunksAreSixteenByteAligned(t *testing.T) {
	data := buildComplete().Bytes()
	pos := len(Token)
	count := 0
	for pos < len(data) {
		require.LessOrEqual(t, pos+chunkHeaderSize, len(data))
		alignedLength := int(data[pos+4]) | int(data[pos+5])<<8 | int(data[pos+6])<<16 | int(data[pos+7])<<24
		require.Zero(t, alignedLength%16, "aligned_length must itself be 16-byte aligned")
		pos += chunkHeaderSize + alignedLength
		count++
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, len(data), pos)
}

func TestRequireAllRejectsPartialImage(t *testing.T) {
	w := NewWriter()
	w.AddUpdateInfo("partial")
	data := w.Bytes()

	r, err := Parse(data)
	require.NoError(t, err)
	assert.Error(t, r.RequireAll())
}

func TestParseRejectsMissingToken(t *testing.T) {
	_, err := Parse([]byte("not an update image"))
	assert.Error(t, err)
}

func TestParseRejectsCorruptedPayload(t *testing.T) {
	data := buildComplete().Bytes()
	// Flip a bit inside the UPDATE_INFO payload, just past its header.
	data[len(Token)+chunkHeaderSize] ^= 0xFF

	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParseRejectsTruncatedChunk(t *testing.T) {
	data := buildComplete().Bytes()
	_, err := Parse(data[:len(data)-4])
	assert.Error(t, err)
}

func TestParseRejectsUnknownChunkID(t *testing.T) {
	w := NewWriter()
	w.add(ChunkID(99), []byte("mystery"))
	_, err := Parse(w.Bytes())
	assert.Error(t, err)
}

func TestAlign16(t *testing.T) {
	cases := map[int]int{0: 0, 1: 16, 15: 16, 16: 16, 17: 32}
	for in, want := range cases {
		assert.Equal(t, want, align16(in))
	}
}

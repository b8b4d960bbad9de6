// Package update reads and writes the SC64 firmware update container
// format: a fixed token followed by a sequence of length-prefixed,
// CRC32-checked chunks.
package update

import (
	"encoding/binary"
	"hash/crc32"

	sc64 "github.com/flashcart64/sc64ctl"
)

// Token is the fixed 16-byte ASCII header every update image starts with.
const Token = "SC64 Update v2.0"

// ChunkID identifies one section of an update image.
type ChunkID uint32

const (
	ChunkUpdateInfo ChunkID = 1
	ChunkMCU        ChunkID = 2
	ChunkFPGA       ChunkID = 3
	ChunkBootloader ChunkID = 4
	ChunkPrimer     ChunkID = 5
)

// chunkHeaderSize is the fixed id/aligned_length/crc32/payload_length
// header every chunk starts with, ahead of its (possibly padded) payload.
const chunkHeaderSize = 16

func align16(n int) int {
	return (n + 15) &^ 15
}

// Writer builds an update image in memory, one chunk at a time.
type Writer struct {
	chunks map[ChunkID][]byte
	order  []ChunkID
}

// NewWriter returns an empty update image builder.
func NewWriter() *Writer {
	return &Writer{chunks: make(map[ChunkID][]byte)}
}

func (w *Writer) add(id ChunkID, payload []byte) {
	if _, exists := w.chunks[id]; !exists {
		w.order = append(w.order, id)
	}
	w.chunks[id] = payload
}

// AddUpdateInfo sets the free-form ASCII UPDATE_INFO chunk.
func (w *Writer) AddUpdateInfo(info string) { w.add(ChunkUpdateInfo, []byte(info)) }

// AddMCU sets the MCU firmware image chunk.
func (w *Writer) AddMCU(data []byte) { w.add(ChunkMCU, data) }

// AddFPGA sets the FPGA bitstream chunk.
func (w *Writer) AddFPGA(data []byte) { w.add(ChunkFPGA, data) }

// AddBootloader sets the bootloader image chunk.
func (w *Writer) AddBootloader(data []byte) { w.add(ChunkBootloader, data) }

// AddPrimer sets the board bring-up primer image chunk.
func (w *Writer) AddPrimer(data []byte) { w.add(ChunkPrimer, data) }

// Bytes serializes the image: the fixed token followed by each added chunk
// in the order it was added.
func (w *Writer) Bytes() []byte {
	out := make([]byte, 0, 16)
	out = append(out, Token...)
	for _, id := range w.order {
		out = append(out, encodeChunk(id, w.chunks[id])...)
	}
	return out
}

func encodeChunk(id ChunkID, payload []byte) []byte {
	alignedLength := align16(len(payload))
	chunk := make([]byte, 0, chunkHeaderSize+alignedLength)
	chunk = binary.LittleEndian.AppendUint32(chunk, uint32(id))
	chunk = binary.LittleEndian.AppendUint32(chunk, uint32(alignedLength))
	chunk = binary.LittleEndian.AppendUint32(chunk, crc32.ChecksumIEEE(payload))
	chunk = binary.LittleEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, payload...)
	for len(chunk) < chunkHeaderSize+alignedLength {
		chunk = append(chunk, 0)
	}
	return chunk
}

// Reader parses an update image and exposes its chunks by id.
type Reader struct {
	chunks map[ChunkID][]byte
}

// Parse validates the token and reads every chunk in data.
func Parse(data []byte) (*Reader, error) {
	if len(data) < len(Token) || string(data[:len(Token)]) != Token {
		return nil, sc64.NewFormatError("update image has an invalid or missing token", nil)
	}
	r := &Reader{chunks: make(map[ChunkID][]byte)}
	pos := len(Token)
	for pos < len(data) {
		if pos+chunkHeaderSize > len(data) {
			return nil, sc64.NewFormatError("truncated update chunk header", nil)
		}
		id := ChunkID(binary.LittleEndian.Uint32(data[pos:]))
		alignedLength := int(binary.LittleEndian.Uint32(data[pos+4:]))
		storedCRC := binary.LittleEndian.Uint32(data[pos+8:])
		payloadLength := int(binary.LittleEndian.Uint32(data[pos+12:]))
		payloadStart := pos + chunkHeaderSize
		if payloadLength > alignedLength || payloadStart+alignedLength > len(data) {
			return nil, sc64.NewFormatError("truncated update chunk payload", nil)
		}
		payload := data[payloadStart : payloadStart+payloadLength]
		if crc32.ChecksumIEEE(payload) != storedCRC {
			return nil, sc64.NewFormatError("update chunk checksum mismatch", nil)
		}
		switch id {
		case ChunkUpdateInfo, ChunkMCU, ChunkFPGA, ChunkBootloader, ChunkPrimer:
			r.chunks[id] = payload
		default:
			return nil, sc64.NewFormatError("unknown update chunk id", nil)
		}
		pos = payloadStart + alignedLength
	}
	return r, nil
}

// RequireAll verifies all five defined chunks are present.
func (r *Reader) RequireAll() error {
	for _, id := range []ChunkID{ChunkUpdateInfo, ChunkMCU, ChunkFPGA, ChunkBootloader, ChunkPrimer} {
		if _, ok := r.chunks[id]; !ok {
			return sc64.NewFormatError("update image is missing a required chunk", nil)
		}
	}
	return nil
}

// UpdateInfo returns the UPDATE_INFO chunk, if present.
func (r *Reader) UpdateInfo() (string, bool) {
	data, ok := r.chunks[ChunkUpdateInfo]
	return string(data), ok
}

// MCU returns the MCU firmware chunk, if present.
func (r *Reader) MCU() ([]byte, bool) { data, ok := r.chunks[ChunkMCU]; return data, ok }

// FPGA returns the FPGA bitstream chunk, if present.
func (r *Reader) FPGA() ([]byte, bool) { data, ok := r.chunks[ChunkFPGA]; return data, ok }

// Bootloader returns the bootloader chunk, if present.
func (r *Reader) Bootloader() ([]byte, bool) { data, ok := r.chunks[ChunkBootloader]; return data, ok }

// Primer returns the board bring-up primer chunk, if present.
func (r *Reader) Primer() ([]byte, bool) { data, ok := r.chunks[ChunkPrimer]; return data, ok }

// Package link implements the SC64 wire frame grammar: encoding outgoing
// commands and decoding incoming response/error/packet frames. It holds no
// goroutines and no I/O state; callers (internal/transport) own the bytes.
package link

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Kind identifies the 3-byte ASCII frame identifier that opens every frame
// on the wire.
type Kind byte

const (
	KindCommand  Kind = 'C' // "CMD" + letter
	KindComplete Kind = 'P' // "CMP" + letter
	KindError    Kind = 'R' // "ERR" + letter
	KindPacket   Kind = 'K' // "PKT" + letter
)

var identifiers = map[Kind][3]byte{
	KindCommand:  {'C', 'M', 'D'},
	KindComplete: {'C', 'M', 'P'},
	KindError:    {'E', 'R', 'R'},
	KindPacket:   {'P', 'K', 'T'},
}

// EncodeCommand builds a CMD frame: 3-byte identifier, 1-byte command
// letter, two big-endian u32 arguments, then the raw payload. arg0/arg1 are
// zero when the command takes no arguments.
func EncodeCommand(cmd byte, arg0, arg1 uint32, payload []byte) []byte {
	buf := make([]byte, 0, 12+len(payload))
	buf = append(buf, 'C', 'M', 'D', cmd)
	buf = binary.BigEndian.AppendUint32(buf, arg0)
	buf = binary.BigEndian.AppendUint32(buf, arg1)
	buf = append(buf, payload...)
	return buf
}

// Frame is a decoded CMP, ERR or PKT frame read off the wire.
type Frame struct {
	Kind    Kind
	Command byte
	Data    []byte
}

// ReadNext blocks on r until a full CMP, ERR or PKT frame has been read, or
// returns the error r produced. It never returns a CMD frame: those are only
// ever sent by the host, never received.
func ReadNext(r io.Reader) (Frame, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Frame{}, err
	}
	kind, err := kindFromHeader(header[0], header[1], header[2])
	if err != nil {
		return Frame{}, err
	}
	if kind == KindCommand {
		return Frame{}, fmt.Errorf("link: unexpected CMD frame from device")
	}
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	data := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, data); err != nil {
			return Frame{}, err
		}
	}
	return Frame{Kind: kind, Command: header[3], Data: data}, nil
}

func kindFromHeader(a, b, c byte) (Kind, error) {
	for k, id := range identifiers {
		if id[0] == a && id[1] == b && id[2] == c {
			return k, nil
		}
	}
	return 0, fmt.Errorf("link: unrecognized frame identifier %q", string([]byte{a, b, c}))
}

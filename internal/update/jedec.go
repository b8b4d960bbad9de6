package update

import (
	"bufio"
	"io"
	"strconv"

	sc64 "github.com/flashcart64/sc64ctl"
)

// ParseJedec reads a JEDEC (.jed) fuse map and returns its fuse data packed
// 8 bits per byte, MSB first within each byte. Only the fields the FPGA
// flash programmer needs (Q field declaring fuse count, L fields carrying
// fuse bits) are interpreted; every other field is skipped to its closing
// '*'.
func ParseJedec(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	// STX (0x02) opens the fuse-map body; everything before it is a
	// free-form comment header.
	for {
		b, err := br.ReadByte()
		if err != nil {
			return nil, sc64.NewFormatError("jedec: unexpected end of file before STX", nil)
		}
		if b == 0x02 {
			break
		}
	}

	var fuseLength, fuseOffset int
	var fuseData []byte
	var byteBuffer byte

	for {
		field, err := br.ReadByte()
		if err != nil {
			return nil, sc64.NewFormatError("jedec: unexpected end of file", nil)
		}
		switch field {
		case 'Q':
			n, err := readQField(br)
			if err != nil {
				return nil, err
			}
			fuseLength = n
		case 'L':
			if fuseLength <= 0 {
				return nil, sc64.NewFormatError("jedec: found fuse data before declaring fuse count", nil)
			}
			if err := readLField(br, fuseLength, &fuseOffset, &byteBuffer, &fuseData); err != nil {
				return nil, err
			}
		case '\r', '\n':
			// ignore
		case 0x03:
			goto done
		default:
			if err := ignoreField(br); err != nil {
				return nil, err
			}
		}
	}

done:
	if fuseLength <= 0 {
		return nil, sc64.NewFormatError("jedec: no fuse data found", nil)
	}
	if fuseOffset != fuseLength {
		return nil, sc64.NewFormatError("jedec: missing fuse data inside JEDEC file", nil)
	}
	want := (fuseLength + 7) / 8
	if len(fuseData) != want {
		return nil, sc64.NewFormatError("jedec: missing fuse data inside JEDEC file", nil)
	}
	return fuseData, nil
}

func readQField(br *bufio.Reader) (int, error) {
	kind, err := br.ReadByte()
	if err != nil {
		return 0, sc64.NewFormatError("jedec: unexpected end of file in Q field", nil)
	}
	if kind != 'F' {
		return 0, ignoreField(br)
	}
	var digits []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, sc64.NewFormatError("jedec: unexpected end of file in Q field", nil)
		}
		if b == '*' {
			break
		}
		digits = append(digits, b)
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, sc64.NewFormatError("jedec: invalid Q field data", err)
	}
	return n, nil
}

func readLField(br *bufio.Reader, fuseLength int, fuseOffset *int, byteBuffer *byte, fuseData *[]byte) error {
	var digits []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			return sc64.NewFormatError("jedec: unexpected end of file in L field offset", nil)
		}
		if b >= '0' && b <= '9' {
			digits = append(digits, b)
			continue
		}
		if b == '\r' || b == '\n' {
			break
		}
		return sc64.NewFormatError("jedec: unexpected byte inside L field offset data", nil)
	}
	offset, err := strconv.Atoi(string(digits))
	if err != nil {
		return sc64.NewFormatError("jedec: invalid L field offset data", err)
	}
	if offset != *fuseOffset {
		return sc64.NewFormatError("jedec: fuse data is not continuous", nil)
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			return sc64.NewFormatError("jedec: unexpected end of file in L field data", nil)
		}
		switch b {
		case '0', '1':
			shift := 7 - (*fuseOffset % 8)
			if b == '1' {
				*byteBuffer |= 1 << uint(shift)
			}
			if *fuseOffset%8 == 7 || *fuseOffset == fuseLength-1 {
				*fuseData = append(*fuseData, *byteBuffer)
				*byteBuffer = 0
			}
			*fuseOffset++
		case '\r', '\n':
			// ignore
		case '*':
			return nil
		default:
			return sc64.NewFormatError("jedec: unexpected byte inside L field fuse data", nil)
		}
	}
}

func ignoreField(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return sc64.NewFormatError("jedec: unexpected end of file", nil)
		}
		if b == '*' {
			return nil
		}
	}
}

package debugloop

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	sc64 "github.com/flashcart64/sc64ctl"
)

const (
	usbTypeText       = 1
	usbTypeRawBinary  = 2
	usbTypeHeader     = 3
	usbTypeScreenshot = 4
	usbTypeGDB        = 0xDB
)

// handleUSB dispatches one USB debug-tunnel packet by its embedded type.
func (l *Loop) handleUSB(data []byte) error {
	if len(data) < 4 {
		return sc64.NewValueError("short USB debug packet", nil)
	}
	header := binary.BigEndian.Uint32(data[0:4])
	typ := header >> 24
	length := header & 0x00FFFFFF
	payload := data[4:]
	if uint32(len(payload)) > length {
		payload = payload[:length]
	}

	switch typ {
	case usbTypeText:
		fmt.Print(string(payload))
		return nil
	case usbTypeRawBinary:
		name := fmt.Sprintf("binaryout-%s.bin", nowTimestamp())
		return os.WriteFile(name, payload, 0o644)
	case usbTypeHeader:
		l.lastHeader = append([]byte(nil), payload...)
		return nil
	case usbTypeScreenshot:
		return l.writeScreenshot(payload)
	case usbTypeGDB:
		l.gdbMu.Lock()
		defer l.gdbMu.Unlock()
		if l.gdbConn != nil {
			_, err := l.gdbConn.Write(payload)
			return err
		}
		return nil
	default:
		return nil
	}
}

// writeScreenshot decodes a framebuffer dump using the most recently
// received HEADER packet (pixel format, width, height) and writes it as a
// PNG. pixel_format 4 is 32-bit RGBA; anything else is the console's 16-bit
// RGBA5551 format.
func (l *Loop) writeScreenshot(data []byte) error {
	if len(l.lastHeader) < 16 {
		return sc64.NewValueError("screenshot received with no preceding header", nil)
	}
	pixelFormat := binary.BigEndian.Uint32(l.lastHeader[0:4])
	width := int(binary.BigEndian.Uint32(l.lastHeader[4:8]))
	height := int(binary.BigEndian.Uint32(l.lastHeader[8:12]))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if pixelFormat == 4 {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 4
				if i+4 > len(data) {
					break
				}
				img.Set(x, y, color.RGBA{data[i], data[i+1], data[i+2], data[i+3]})
			}
		}
	} else {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				i := (y*width + x) * 2
				if i+2 > len(data) {
					break
				}
				px := binary.BigEndian.Uint16(data[i:])
				img.Set(x, y, rgba5551(px))
			}
		}
	}

	name := fmt.Sprintf("screenshot-%s.png", nowTimestamp())
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func rgba5551(px uint16) color.RGBA {
	r := uint8((px>>11)&0x1F) << 3
	g := uint8((px>>6)&0x1F) << 3
	b := uint8((px>>1)&0x1F) << 3
	a := uint8(0)
	if px&1 != 0 {
		a = 0xFF
	}
	return color.RGBA{r, g, b, a}
}

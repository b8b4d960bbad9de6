package debugloop

import (
	"os"
	"strings"
)

// sendStdinCommand parses one line of stdin input into a TEXT or RAWBINARY
// U-packet. A line of the form "text@file@suffix" sends the named file's
// contents as RAWBINARY; the text and suffix parts are not sent. Any other
// line is sent as UTF-8 text with a trailing newline.
func (l *Loop) sendStdinCommand(line string) error {
	parts := strings.SplitN(line, "@", 3)
	if len(parts) == 3 {
		data, err := os.ReadFile(parts[1])
		if err != nil {
			return err
		}
		return l.sendUSBPacket(usbTypeRawBinary, data)
	}
	return l.sendUSBPacket(usbTypeText, []byte(line+"\n"))
}

func (l *Loop) sendUSBPacket(typ uint32, payload []byte) error {
	_, err := l.eng.ExecuteRaw('U', typ, uint32(len(payload)), payload)
	return err
}

package debugloop

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/japanese"
)

// handleISV appends incoming IS-Viewer text to the line buffer and flushes
// every complete line, decoded as EUC-JP, as the console's debug prints use
// that encoding.
func (l *Loop) handleISV(data []byte) error {
	l.lineBuf = append(l.lineBuf, data...)
	for {
		idx := bytes.IndexByte(l.lineBuf, '\n')
		if idx < 0 {
			break
		}
		line := l.lineBuf[:idx]
		l.lineBuf = l.lineBuf[idx+1:]
		decoded, err := japanese.EUCJP.NewDecoder().Bytes(line)
		if err != nil {
			decoded = line
		}
		fmt.Println(string(decoded))
	}
	return nil
}

package termios

import (
	"syscall"
	"testing"
)

func TestFdSetSetAndZero(t *testing.T) {
	fds := &syscall.FdSet{}
	fdSetSet(fds, 3)
	fdSetSet(fds, 70)

	if fds.Bits[0]&(1<<3) == 0 {
		t.Error("bit 3 not set in word 0")
	}
	if fds.Bits[1]&(1<<6) == 0 {
		t.Error("bit 70 not set in word 1")
	}

	fdSetZero(fds)
	for i, word := range fds.Bits {
		if word != 0 {
			t.Errorf("word %d not cleared: %#x", i, word)
		}
	}
}

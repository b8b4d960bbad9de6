package engine

import (
	"bytes"

	sc64 "github.com/flashcart64/sc64ctl"
)

// FlashWaitBusy blocks until the flash controller reports idle.
func (e *Engine) FlashWaitBusy() error {
	_, err := e.exec('p', 1, 0, nil, memTimeout)
	return err
}

// FlashEraseBlockSize returns the device's flash erase granularity.
func (e *Engine) FlashEraseBlockSize() (uint32, error) {
	data, err := e.exec('p', 0, 0, nil, defaultTimeout)
	if err != nil {
		return 0, err
	}
	return decodeU32(data)
}

// FlashEraseBlock erases the single erase-block containing addr.
func (e *Engine) FlashEraseBlock(addr uint32) error {
	_, err := e.exec('P', addr, 0, nil, memTimeout)
	return err
}

// ProgramAndVerify writes data to addr using the erase/program/verify
// sequence required for the BOOTLOADER and SHADOW regions: a plain write is
// read back first, and only on mismatch is the whole region erased and
// rewritten in chunks, then read back once more and verified as a whole.
func (e *Engine) ProgramAndVerify(addr uint32, data []byte, progress sc64.Progress) error {
	if err := e.WriteMemory(addr, data); err != nil {
		return err
	}
	readBack, err := e.ReadMemory(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	if bytes.Equal(readBack, data) {
		return nil
	}

	blockSize, err := e.FlashEraseBlockSize()
	if err != nil {
		return err
	}
	if err := e.eraseRegion(addr, uint32(len(data)), blockSize); err != nil {
		return err
	}

	total := len(data)
	for offset := 0; offset < total; offset += flashProgramChunk {
		end := offset + flashProgramChunk
		if end > total {
			end = total
		}
		chunk := data[offset:end]
		if err := e.WriteMemory(addr+uint32(offset), chunk); err != nil {
			return err
		}
		if err := e.FlashWaitBusy(); err != nil {
			return err
		}
		progress(total, end, "programming flash")
	}

	readBack, err = e.ReadMemory(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	if !bytes.Equal(readBack, data) {
		return sc64.NewConnectionError("flash verify failed after erase and reprogram", nil)
	}
	return nil
}

// eraseRegion erases every erase-block covering [addr, addr+length), which
// must be block-aligned at both ends.
func (e *Engine) eraseRegion(addr, length, blockSize uint32) error {
	if addr%blockSize != 0 || length%blockSize != 0 {
		return sc64.NewValueError("flash erase region must be block-aligned", nil)
	}
	for off := uint32(0); off < length; off += blockSize {
		if err := e.FlashEraseBlock(addr + off); err != nil {
			return err
		}
		if err := e.FlashWaitBusy(); err != nil {
			return err
		}
	}
	return nil
}

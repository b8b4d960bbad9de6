package debugloop

import (
	"encoding/binary"

	"github.com/flashcart64/sc64ctl/internal/engine"
)

const (
	ddCmdReadBlock  = 1
	ddCmdWriteBlock = 2
)

// handleDD answers a device-originated 64DD block request: the packet
// carries a command byte, a device memory address, and the packed
// track/head/block address the request targets.
func (l *Loop) handleDD(data []byte) error {
	if len(data) < 8 {
		return l.ackDD(false)
	}
	cmd := binary.BigEndian.Uint32(data[0:4]) >> 24
	address := binary.BigEndian.Uint32(data[0:4]) & 0x00FFFFFF
	thb := binary.BigEndian.Uint32(data[4:8])
	track := int(thb >> 2)
	head := int((thb >> 1) & 1)
	block := int(thb & 1)

	if l.loadedDisk < 0 || l.loadedDisk >= len(l.disks) {
		return l.ackDD(false)
	}
	disk := l.disks[l.loadedDisk]

	switch cmd {
	case ddCmdReadBlock:
		blockData, err := disk.ReadBlock(track, head, block)
		if err != nil {
			return l.ackDD(false)
		}
		if err := l.eng.WriteMemory(address, blockData); err != nil {
			return err
		}
		return l.ackDD(true)
	case ddCmdWriteBlock:
		payload := data[8:]
		if err := disk.WriteBlock(track, head, block, payload); err != nil {
			return l.ackDD(false)
		}
		return l.ackDD(true)
	default:
		return l.ackDD(false)
	}
}

func (l *Loop) ackDD(ok bool) error {
	var flag uint32
	if !ok {
		flag = 1
	}
	_, err := l.eng.ExecuteRaw('D', flag, 0, nil)
	return err
}

// handleButton rotates through the configured disks: if none is currently
// inserted, load the next one and mark it inserted; otherwise eject and
// unload the current one.
func (l *Loop) handleButton() error {
	if len(l.disks) == 0 {
		return nil
	}
	if l.loadedDisk < 0 {
		l.loadedDisk = l.diskIndex
		l.diskIndex = (l.diskIndex + 1) % len(l.disks)
		return l.eng.SetConfig(engine.DDDiskState, 0) // INSERTED
	}
	l.loadedDisk = -1
	return l.eng.SetConfig(engine.DDDiskState, 1) // EJECTED
}

package engine

import (
	"encoding/binary"
	"time"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/flashcart64/sc64ctl/internal/link"
)

// UpdateError mirrors the device's update-submission result code.
type UpdateError uint32

const (
	UpdateOK UpdateError = iota
	UpdateErrToken
	UpdateErrChecksum
	UpdateErrSize
	UpdateErrUnknownChunk
	UpdateErrRead
)

// UpdateStatus mirrors the device's progress reports during a firmware
// update, streamed as async F packets.
type UpdateStatus uint32

const (
	UpdateStatusMCU        UpdateStatus = 1
	UpdateStatusFPGA       UpdateStatus = 2
	UpdateStatusBootloader UpdateStatus = 3
	UpdateStatusDone       UpdateStatus = 0x80
	UpdateStatusError      UpdateStatus = 0xFF
)

// UpdateFirmware submits an update image of the given length, already
// written to addr by the caller, for application, then waits for the device to report
// completion through a sequence of async status packets. The device reboots
// itself on success; callers must re-open the transport and re-handshake
// afterward.
func (e *Engine) UpdateFirmware(addr, length uint32, progress sc64.Progress) error {
	data, err := e.exec('F', addr, length, nil, defaultTimeout)
	if err != nil {
		return err
	}
	if len(data) < 4 {
		return sc64.NewConnectionError("short update-submit response", nil)
	}
	if code := UpdateError(binary.BigEndian.Uint32(data)); code != UpdateOK {
		return sc64.NewConnectionError(updateErrorText(code), nil)
	}

	deadline := time.Now().Add(updateTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return sc64.NewConnectionError("timed out waiting for firmware update status", nil)
		}
		frame, err := e.waitStatusPacket(remaining)
		if err != nil {
			return err
		}
		if len(frame.Data) < 4 {
			continue
		}
		status := UpdateStatus(binary.BigEndian.Uint32(frame.Data))
		switch status {
		case UpdateStatusDone:
			progress(1, 1, "firmware update complete")
			time.Sleep(2 * time.Second)
			return nil
		case UpdateStatusError:
			return sc64.NewConnectionError("firmware update failed, device most likely bricked", nil)
		case UpdateStatusMCU:
			progress(3, 1, "updating MCU")
		case UpdateStatusFPGA:
			progress(3, 2, "updating FPGA")
		case UpdateStatusBootloader:
			progress(3, 3, "updating bootloader")
		}
		deadline = time.Now().Add(updateTimeout)
	}
}

func (e *Engine) waitStatusPacket(timeout time.Duration) (link.Frame, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case frame, ok := <-e.t.Packets():
		if !ok {
			return link.Frame{}, sc64.NewConnectionError("transport closed during firmware update", nil)
		}
		if frame.Command != 'F' {
			return link.Frame{}, nil
		}
		return frame, nil
	case <-timer.C:
		return link.Frame{}, sc64.NewConnectionError("timed out waiting for firmware update status", nil)
	}
}

func updateErrorText(code UpdateError) string {
	switch code {
	case UpdateErrToken:
		return "firmware update rejected: bad token"
	case UpdateErrChecksum:
		return "firmware update rejected: checksum mismatch"
	case UpdateErrSize:
		return "firmware update rejected: bad size"
	case UpdateErrUnknownChunk:
		return "firmware update rejected: unknown chunk"
	case UpdateErrRead:
		return "firmware update rejected: read error"
	default:
		return "firmware update rejected"
	}
}

// BackupFirmware asks the device for the current firmware image staged at
// addr and reads it back.
func (e *Engine) BackupFirmware(addr uint32) ([]byte, error) {
	resp, err := e.exec('f', addr, 0, nil, updateTimeout)
	if err != nil {
		return nil, err
	}
	if len(resp) < 8 {
		return nil, sc64.NewConnectionError("short firmware backup response", nil)
	}
	code := UpdateError(binary.BigEndian.Uint32(resp[0:4]))
	length := binary.BigEndian.Uint32(resp[4:8])
	if code != UpdateOK {
		return nil, sc64.NewConnectionError(updateErrorText(code), nil)
	}
	return e.ReadMemory(addr, length)
}

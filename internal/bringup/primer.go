package bringup

import (
	"bytes"
	"hash/crc32"
	"io"

	sc64 "github.com/flashcart64/sc64ctl"
)

const (
	primerFlashPageSize = 16
	primerFlashNumPages = 11260
	primerFPGAProbeValue = 0x64
)

// DeviceIDLCMXO27000HC is the 4-byte device ID the LCMXO2-7000HC reports for
// GET_DEVICE_ID.
var DeviceIDLCMXO27000HC = []byte{0x01, 0x2B, 0xD0, 0x43}

const primerIDLCMXO2 = "MXO2"

const (
	primerCmdGetPrimerID  = '?'
	primerCmdProbeFPGA    = '#'
	primerCmdRestart      = '$'
	primerCmdGetDeviceID  = 'I'
	primerCmdEnableFlash  = 'E'
	primerCmdEraseFlash   = 'X'
	primerCmdResetAddress = 'A'
	primerCmdWritePage    = 'W'
	primerCmdReadPage     = 'R'
	primerCmdProgramDone  = 'F'
	primerCmdInitFeatbits = 'Q'
	primerCmdRefresh      = 'B'
)

// primer speaks the small custom FPGA-flash programmer protocol the primer
// stub (loaded into STM32 RAM) exposes over the same UART.
type primer struct {
	rw io.ReadWriter
}

func (p *primer) execute(cmd byte, payload []byte) ([]byte, error) {
	req := make([]byte, 0, 8+len(payload))
	req = append(req, 'C', 'M', 'D', cmd, byte(len(payload)))
	req = append(req, payload...)
	sum := crc32.ChecksumIEEE(req)
	req = append(req, le32(sum)...)
	if _, err := p.rw.Write(req); err != nil {
		return nil, sc64.NewBringUpError("writing primer command", err)
	}

	var header [5]byte
	if _, err := io.ReadFull(p.rw, header[:]); err != nil {
		return nil, sc64.NewBringUpError("reading primer response header", err)
	}
	if header[0] != 'R' || header[1] != 'S' || header[2] != 'P' || header[3] != cmd {
		return nil, sc64.NewBringUpError("primer response header mismatch", nil)
	}
	length := int(header[4])
	resp := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(p.rw, resp); err != nil {
			return nil, sc64.NewBringUpError("reading primer response data", err)
		}
	}
	var crcBuf [4]byte
	if _, err := io.ReadFull(p.rw, crcBuf[:]); err != nil {
		return nil, sc64.NewBringUpError("reading primer response checksum", err)
	}
	full := append(append([]byte{}, header[:]...), resp...)
	if crc32.ChecksumIEEE(full) != le32ToUint(crcBuf[:]) {
		return nil, sc64.NewBringUpError("primer response checksum mismatch", nil)
	}
	return resp, nil
}

func le32(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}

func le32ToUint(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (p *primer) connect(deviceID []byte) error {
	id, err := p.execute(primerCmdGetPrimerID, nil)
	if err != nil {
		return err
	}
	if string(id) != primerIDLCMXO2 {
		return sc64.NewBringUpError("primer did not respond with the expected primer ID", nil)
	}
	dev, err := p.execute(primerCmdGetDeviceID, nil)
	if err != nil {
		return err
	}
	if !bytes.Equal(dev, deviceID) {
		return sc64.NewBringUpError("LCMXO2 reported an unexpected device ID", nil)
	}
	return nil
}

func (p *primer) cleanup() {
	p.execute(primerCmdEnableFlash, nil)
	p.execute(primerCmdEraseFlash, nil)
	p.execute(primerCmdRefresh, nil)
	p.execute(primerCmdRestart, nil)
}

// loadFlashAndRun runs the full FPGA flash sequence: enable, erase, write
// the image page by page, read it back page by page to verify, finalize,
// and restart into the freshly programmed bitstream.
func (p *primer) loadFlashAndRun(data []byte, progress sc64.Progress) error {
	if err := p.runFlashSequence(data, progress); err != nil {
		p.cleanup()
		return err
	}
	_, err := p.execute(primerCmdRestart, nil)
	return err
}

func (p *primer) runFlashSequence(data []byte, progress sc64.Progress) error {
	if _, err := p.execute(primerCmdEnableFlash, nil); err != nil {
		return err
	}
	if _, err := p.execute(primerCmdEraseFlash, nil); err != nil {
		return err
	}
	if _, err := p.execute(primerCmdResetAddress, nil); err != nil {
		return err
	}

	total := len(data)
	for offset := 0; offset < total; offset += primerFlashPageSize {
		end := offset + primerFlashPageSize
		page := make([]byte, primerFlashPageSize)
		if end > total {
			end = total
		}
		copy(page, data[offset:end])
		if _, err := p.execute(primerCmdWritePage, page); err != nil {
			return err
		}
		progress(total, end, "writing FPGA flash")
	}

	if _, err := p.execute(primerCmdResetAddress, nil); err != nil {
		return err
	}
	for offset := 0; offset < total; offset += primerFlashPageSize {
		end := offset + primerFlashPageSize
		want := make([]byte, primerFlashPageSize)
		if end > total {
			end = total
		}
		copy(want, data[offset:end])
		got, err := p.execute(primerCmdReadPage, nil)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, want) {
			return sc64.NewBringUpError("FPGA flash verify failed", nil)
		}
		progress(total, end, "verifying FPGA flash")
	}

	if _, err := p.execute(primerCmdInitFeatbits, nil); err != nil {
		return err
	}
	if _, err := p.execute(primerCmdProgramDone, nil); err != nil {
		return err
	}
	if _, err := p.execute(primerCmdRefresh, nil); err != nil {
		return err
	}
	probe, err := p.execute(primerCmdProbeFPGA, nil)
	if err != nil {
		return err
	}
	if len(probe) != 1 || probe[0] != primerFPGAProbeValue {
		return sc64.NewBringUpError("FPGA did not respond to probe after programming", nil)
	}
	return nil
}

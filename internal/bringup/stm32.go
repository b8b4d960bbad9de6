// Package bringup drives the first-boot sequence that primes a blank
// board's microcontroller through its ROM bootloader and configures its
// FPGA over the same serial pins, before the cart's own firmware exists to
// talk to.
package bringup

import (
	"bytes"
	"io"

	sc64 "github.com/flashcart64/sc64ctl"
)

const (
	stm32Init = 0x7F
	stm32ACK  = 0x79
	stm32NACK = 0x1F

	stm32MemoryRWMaxSize = 256

	stm32FlashLoadAddress  = 0x08000000
	stm32FlashMaxLoadSize  = 0x8000
	stm32RAMLoadAddress    = 0x20001000
	stm32RAMMaxLoadSize    = 0x1000
)

// DeviceIDSTM32G030XX is the 2-byte device ID the STM32G030 family's ROM
// bootloader reports for GET_ID.
var DeviceIDSTM32G030XX = []byte{0x04, 0x66}

const (
	stm32CmdGetID        = 0x02
	stm32CmdReadMemory   = 0x11
	stm32CmdGo           = 0x21
	stm32CmdWriteMemory  = 0x31
	stm32CmdMassErase    = 0x44
)

// stm32 speaks the STM32 ROM bootloader UART protocol: sync byte, then
// single-byte commands each followed by their XOR complement, ACKed or
// NACKed individually.
type stm32 struct {
	rw io.ReadWriter
}

func appendXOR(cmd byte, data []byte) []byte {
	if len(data) == 0 {
		return []byte{cmd, cmd ^ 0xFF}
	}
	out := append([]byte{}, data...)
	var x byte
	if len(out) == 1 {
		x = 0xFF
	}
	for _, b := range out {
		x ^= b
	}
	return append(out, x)
}

func (s *stm32) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(s.rw, b[:]); err != nil {
		return 0, sc64.NewBringUpError("reading from STM32 bootloader", err)
	}
	return b[0], nil
}

func (s *stm32) checkAck() error {
	b, err := s.readByte()
	if err != nil {
		return err
	}
	if b == stm32NACK {
		return sc64.NewBringUpError("STM32 bootloader replied NACK", nil)
	}
	if b != stm32ACK {
		return sc64.NewBringUpError("STM32 bootloader replied with an unexpected byte", nil)
	}
	return nil
}

func (s *stm32) sendCmd(cmd byte) error {
	if _, err := s.rw.Write([]byte{cmd, cmd ^ 0xFF}); err != nil {
		return sc64.NewBringUpError("writing STM32 command", err)
	}
	return s.checkAck()
}

func (s *stm32) writeData(data []byte) error {
	if _, err := s.rw.Write(appendXOR(0, data)); err != nil {
		return sc64.NewBringUpError("writing STM32 data", err)
	}
	return s.checkAck()
}

func (s *stm32) readData(length int) ([]byte, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(s.rw, buf); err != nil {
		return nil, sc64.NewBringUpError("reading STM32 data", err)
	}
	return buf, nil
}

// connect performs the ROM bootloader's UART auto-baud handshake and
// verifies the target reports deviceID for GET_ID.
func (s *stm32) connect(deviceID []byte) error {
	if _, err := s.rw.Write([]byte{stm32Init}); err != nil {
		return sc64.NewBringUpError("writing STM32 sync byte", err)
	}
	if err := s.checkAck(); err != nil {
		return err
	}
	if err := s.sendCmd(stm32CmdGetID); err != nil {
		return err
	}
	n, err := s.readByte()
	if err != nil {
		return err
	}
	id, err := s.readData(int(n) + 1)
	if err != nil {
		return err
	}
	if err := s.checkAck(); err != nil {
		return err
	}
	if !bytes.Equal(id, deviceID) {
		return sc64.NewBringUpError("STM32 bootloader reported an unexpected device ID", nil)
	}
	return nil
}

func (s *stm32) writeMemory(address uint32, data []byte) error {
	if err := s.sendCmd(stm32CmdWriteMemory); err != nil {
		return err
	}
	addrBytes := be32(address)
	if err := s.writeData(addrBytes); err != nil {
		return err
	}
	if err := s.sendLengthPrefixedData(data); err != nil {
		return err
	}
	return nil
}

func (s *stm32) sendLengthPrefixedData(data []byte) error {
	payload := append([]byte{byte(len(data) - 1)}, data...)
	if _, err := s.rw.Write(appendXOR(0, payload)); err != nil {
		return sc64.NewBringUpError("writing STM32 data", err)
	}
	return s.checkAck()
}

func (s *stm32) readMemory(address uint32, length int) ([]byte, error) {
	if err := s.sendCmd(stm32CmdReadMemory); err != nil {
		return nil, err
	}
	if err := s.writeData(be32(address)); err != nil {
		return nil, err
	}
	if err := s.writeData([]byte{byte(length - 1)}); err != nil {
		return nil, err
	}
	return s.readData(length)
}

func (s *stm32) massErase() error {
	if err := s.sendCmd(stm32CmdMassErase); err != nil {
		return err
	}
	return s.writeData([]byte{0xFF, 0xFF})
}

func (s *stm32) goAddress(address uint32) error {
	if err := s.sendCmd(stm32CmdGo); err != nil {
		return err
	}
	return s.writeData(be32(address))
}

// loadMemory writes data to address in chunks of at most stm32MemoryRWMaxSize
// bytes, verifying each chunk by reading it back, reporting progress as it
// goes.
func (s *stm32) loadMemory(address uint32, data []byte, progress sc64.Progress, description string) error {
	total := len(data)
	for offset := 0; offset < total; offset += stm32MemoryRWMaxSize {
		end := offset + stm32MemoryRWMaxSize
		if end > total {
			end = total
		}
		chunk := data[offset:end]
		if err := s.writeMemory(address+uint32(offset), chunk); err != nil {
			return err
		}
		readBack, err := s.readMemory(address+uint32(offset), len(chunk))
		if err != nil {
			return err
		}
		if !bytes.Equal(readBack, chunk) {
			return sc64.NewBringUpError("STM32 memory verify failed", nil)
		}
		progress(total, end, description)
	}
	return nil
}

// loadRAMAndRun loads data into RAM and jumps to it; used to run the primer
// stub that talks to the FPGA.
func (s *stm32) loadRAMAndRun(data []byte, progress sc64.Progress) error {
	if len(data) > stm32RAMMaxLoadSize {
		return sc64.NewValueError("primer stub exceeds RAM load size", nil)
	}
	if err := s.loadMemory(stm32RAMLoadAddress, data, progress, "loading primer stub"); err != nil {
		return err
	}
	return s.goAddress(stm32RAMLoadAddress)
}

// loadFlashAndRun mass-erases flash, loads the MCU firmware image, and jumps
// to it. If loading the image fails it attempts a mass erase before
// returning the original error, leaving the board blank rather than
// half-flashed; a failed initial erase or jump is returned as is.
func (s *stm32) loadFlashAndRun(data []byte, progress sc64.Progress) error {
	if len(data) > stm32FlashMaxLoadSize {
		return sc64.NewValueError("MCU firmware exceeds flash load size", nil)
	}
	if err := s.massErase(); err != nil {
		return err
	}
	if err := s.loadMemory(stm32FlashLoadAddress, data, progress, "loading MCU firmware"); err != nil {
		s.massErase()
		return err
	}
	return s.goAddress(stm32FlashLoadAddress)
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

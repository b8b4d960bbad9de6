package engine

import sc64 "github.com/flashcart64/sc64ctl"

// ReadMemory reads length bytes starting at addr from the cart's address
// space. Transfers may be megabyte-scale; the transport handles chunking on
// the wire, this call blocks until the whole response has arrived.
func (e *Engine) ReadMemory(addr, length uint32) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	data, err := e.exec('m', addr, length, nil, memTimeout)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) != length {
		return nil, sc64.NewConnectionError("short memory read", nil)
	}
	return data, nil
}

// WriteMemory writes data to addr in the cart's address space.
func (e *Engine) WriteMemory(addr uint32, data []byte) error {
	_, err := e.exec('M', addr, uint32(len(data)), data, memTimeout)
	return err
}

package transport

// RawPort is the bare serial line, opened without the cart reset handshake,
// for protocols that run before any SC64 firmware exists to frame-encode
// with (board bring-up's STM32 and LCMXO2 sub-protocols).
type RawPort interface {
	rawPort
}

// OpenRaw opens path for direct byte-level access, skipping the DTR/DSR
// reset handshake entirely.
func OpenRaw(path string) (RawPort, error) {
	return openPort(path)
}

package engine

// Region describes a named window of the cart's address space.
type Region struct {
	Address uint32
	Length  uint32
}

// Cart address space, as driven by the host. ROM payloads may span SDRAM and
// EXTENDED; everything else is a single fixed region.
var (
	SDRAM    = Region{0x00000000, 64 << 20}
	Flash    = Region{0x04000000, 16 << 20}
	Extended = Region{0x04000000, 14 << 20}
	Bootloader = Region{0x04E00000, 1920 << 10}
	Shadow     = Region{0x04FE0000, 128 << 10}
	Buffer     = Region{0x05000000, 8 << 10}
	EEPROM     = Region{0x05002000, 2 << 10}
	Firmware   = Region{0x02000000, 0}
	DDIPL      = Region{0x03BC0000, 4 << 20}
	Save       = Region{0x03FE0000, 128 << 10}
)

// MaxROMLength is the largest ROM payload the cart can hold, spanning SDRAM
// plus the EXTENDED flash window.
const MaxROMLength = 78 << 20

// flashProgramChunk is the largest write ProgramAndVerify issues per chunk
// when it reprograms flash. The erase-block size itself is queried from the
// device at runtime (see FlashEraseBlockSize).
const flashProgramChunk = 128 << 10

// End returns the exclusive end address of r.
func (r Region) End() uint32 { return r.Address + r.Length }

// Contains reports whether [addr, addr+length) lies entirely within r.
func (r Region) Contains(addr, length uint32) bool {
	return addr >= r.Address && length <= r.Length && addr+length <= r.End()
}

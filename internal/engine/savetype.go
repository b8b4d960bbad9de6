package engine

// SaveType identifies the cartridge save medium a ROM expects.
type SaveType uint32

const (
	SaveNone SaveType = iota
	SaveEEPROM4K
	SaveEEPROM16K
	SaveSRAM
	SaveFlashRAM
	SaveSRAMBanked
)

// SaveLength returns the on-cart save region size for t.
func SaveLength(t SaveType) uint32 {
	switch t {
	case SaveEEPROM4K:
		return 512
	case SaveEEPROM16K:
		return 2048
	case SaveSRAM:
		return 32 << 10
	case SaveFlashRAM:
		return 128 << 10
	case SaveSRAMBanked:
		return 96 << 10
	default:
		return 0
	}
}

var edSaveTypes = map[byte]SaveType{
	0: SaveNone,
	1: SaveEEPROM4K,
	2: SaveEEPROM16K,
	3: SaveSRAM,
	4: SaveSRAMBanked,
	5: SaveFlashRAM,
	6: SaveSRAM,
}

// gameIDSaveType is a representative subset of the well-known N64 title
// database that maps (3-byte game id, region byte) to a save type; titles
// not carrying the "ED" homebrew tag and not listed here default to
// SaveNone, matching the device's own unrecognized-ROM behavior.
var gameIDSaveType = map[[4]byte]SaveType{
	{'N', 'S', 'M', 'E'}: SaveEEPROM4K, // Super Mario 64 (US)
	{'N', 'S', 'M', 'J'}: SaveEEPROM4K, // Super Mario 64 (JP)
	{'N', 'S', 'M', 'P'}: SaveEEPROM4K, // Super Mario 64 (EU)
	{'N', 'Z', 'S', 'E'}: SaveSRAM,     // Zelda: Majora's Mask (US)
	{'N', 'Z', 'S', 'P'}: SaveSRAM,     // Zelda: Majora's Mask (EU)
	{'N', 'A', 'F', 'E'}: SaveFlashRAM, // Animal Forest
	{'N', 'K', 'G', 'E'}: SaveSRAMBanked, // Kirby 64 banked SRAM example
}

// DetectSaveType implements the host's ROM save-type autodetection: the "ED"
// homebrew tag takes priority, falling back to a static title lookup and
// finally SaveNone.
func DetectSaveType(rom []byte) SaveType {
	if len(rom) >= 0x40 && rom[0x3C] == 'E' && rom[0x3D] == 'D' {
		nibble := (rom[0x3F] >> 4) & 0x0F
		if t, ok := edSaveTypes[nibble]; ok {
			return t
		}
		return SaveNone
	}
	if len(rom) >= 0x3F {
		key := [4]byte{rom[0x3B], rom[0x3C], rom[0x3D], rom[0x3E]}
		if t, ok := gameIDSaveType[key]; ok {
			return t
		}
	}
	return SaveNone
}

package engine

import sc64 "github.com/flashcart64/sc64ctl"

const sdramLength = uint32(SDRAM.Length)

// UploadROM writes rom into SDRAM, spilling into EXTENDED flash for images
// over 64 MiB and, when useShadow is requested and there is room, carving
// the last 128 KiB of the SDRAM window into SHADOW flash instead. The
// ROM_EXTENDED_ENABLE and ROM_SHADOW_ENABLE configs are set to match before
// the SDRAM portion is written.
func (e *Engine) UploadROM(rom []byte, useShadow bool, progress sc64.Progress) error {
	length := uint32(len(rom))
	if length > MaxROMLength {
		return sc64.NewValueError("ROM exceeds maximum supported length", nil)
	}

	var extended, shadow bool
	sdramPortion := rom
	var extendedPortion []byte

	if length > sdramLength {
		extended = true
		sdramPortion = rom[:sdramLength]
		extendedPortion = rom[sdramLength:]
	}
	if useShadow && length > sdramLength-Shadow.Length {
		shadow = true
		sdramPortion = sdramPortion[:len(sdramPortion)-int(Shadow.Length)]
	}

	if err := e.SetConfig(RomExtendedEnable, boolToU32(extended)); err != nil {
		return err
	}
	if err := e.SetConfig(RomShadowEnable, boolToU32(shadow)); err != nil {
		return err
	}

	total := len(rom)
	written := 0
	if err := e.WriteMemory(SDRAM.Address, sdramPortion); err != nil {
		return err
	}
	written += len(sdramPortion)
	progress(total, written, "writing SDRAM")

	if shadow {
		shadowData := rom[len(sdramPortion) : len(sdramPortion)+int(Shadow.Length)]
		if err := e.ProgramAndVerify(Shadow.Address, shadowData, progress); err != nil {
			return err
		}
		written += len(shadowData)
		progress(total, written, "programming shadow flash")
	}
	if extended {
		if err := e.ProgramAndVerify(Extended.Address, extendedPortion, progress); err != nil {
			return err
		}
		written += len(extendedPortion)
		progress(total, written, "programming extended flash")
	}
	return nil
}

// UploadDDIPL writes a 64DD IPL image to the DDIPL region.
func (e *Engine) UploadDDIPL(data []byte, progress sc64.Progress) error {
	if uint32(len(data)) > DDIPL.Length {
		return sc64.NewValueError("DDIPL image exceeds region length", nil)
	}
	if err := e.WriteMemory(DDIPL.Address, data); err != nil {
		return err
	}
	progress(len(data), len(data), "writing DDIPL")
	return nil
}

// UploadSave writes save data to EEPROM or SAVE depending on t.
func (e *Engine) UploadSave(t SaveType, data []byte) error {
	region := saveRegion(t)
	if uint32(len(data)) > region.Length {
		return sc64.NewValueError("save data exceeds region length", nil)
	}
	return e.WriteMemory(region.Address, data)
}

// DownloadSave reads back the save region sized for t.
func (e *Engine) DownloadSave(t SaveType) ([]byte, error) {
	region := saveRegion(t)
	return e.ReadMemory(region.Address, SaveLength(t))
}

func saveRegion(t SaveType) Region {
	if t == SaveEEPROM4K || t == SaveEEPROM16K {
		return EEPROM
	}
	return Save
}

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

package engine

import "encoding/binary"

// ConfigID identifies a config register (command c/C).
type ConfigID uint32

// Setting identifies a setting register (command a/A).
type Setting uint32

const (
	BootloaderSwitch ConfigID = iota
	RomWriteEnable
	RomShadowEnable
	DDMode
	ISVAddress
	BootMode
	SaveType
	CICSeed
	TVType
	DDSDEnable
	DDDriveType
	DDDiskState
	ButtonState
	ButtonMode
	RomExtendedEnable
)

const (
	LEDEnable Setting = iota
)

// GetConfig reads one 32-bit config register.
func (e *Engine) GetConfig(id ConfigID) (uint32, error) {
	data, err := e.exec('c', uint32(id), 0, nil, defaultTimeout)
	if err != nil {
		return 0, err
	}
	return decodeU32(data)
}

// SetConfig writes one 32-bit config register.
func (e *Engine) SetConfig(id ConfigID, value uint32) error {
	_, err := e.exec('C', uint32(id), value, nil, defaultTimeout)
	return err
}

// GetSetting reads one 32-bit setting register.
func (e *Engine) GetSetting(id Setting) (uint32, error) {
	data, err := e.exec('a', uint32(id), 0, nil, defaultTimeout)
	if err != nil {
		return 0, err
	}
	return decodeU32(data)
}

// SetSetting writes one 32-bit setting register.
func (e *Engine) SetSetting(id Setting, value uint32) error {
	_, err := e.exec('A', uint32(id), value, nil, defaultTimeout)
	return err
}

func decodeU32(data []byte) (uint32, error) {
	if len(data) < 4 {
		return 0, nil
	}
	return binary.BigEndian.Uint32(data), nil
}

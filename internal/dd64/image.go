// Package dd64 translates a raw 64DD disk image file into a physical
// (track, head, block) addressable device, mirroring the layout a real 64DD
// disk's embedded system area describes.
package dd64

import (
	"bytes"
	"os"

	sc64 "github.com/flashcart64/sc64ctl"
)

const (
	heads            = 2
	tracks           = 1175
	blocksPerTrack   = 2
	sectorsPerBlock  = 85
	badTracksPerZone = 12
	systemSectorSize = 232
)

// zone describes one of the 16 physical zones: head, sector size, track
// count, and the starting physical track.
type zone struct {
	head       int
	sectorSize int
	tracks     int
	startTrack int
}

var zones = [16]zone{
	{0, 232, 158, 0},
	{0, 216, 158, 158},
	{0, 208, 149, 316},
	{0, 192, 149, 465},
	{0, 176, 149, 614},
	{0, 160, 149, 763},
	{0, 144, 149, 912},
	{0, 128, 114, 1061},
	{1, 216, 158, 157},
	{1, 208, 158, 315},
	{1, 192, 149, 464},
	{1, 176, 149, 613},
	{1, 160, 149, 762},
	{1, 144, 149, 911},
	{1, 128, 149, 1060},
	{1, 112, 114, 1174},
}

// vzoneToPzone gives, for each of the 7 disk types, the virtual-zone-order
// sequence of physical zone indices the image is laid out in.
var vzoneToPzone = [7][16]int{
	{0, 1, 2, 9, 8, 3, 4, 5, 6, 7, 15, 14, 13, 12, 11, 10},
	{0, 1, 2, 3, 10, 9, 8, 4, 5, 6, 7, 15, 14, 13, 12, 11},
	{0, 1, 2, 3, 4, 11, 10, 9, 8, 5, 6, 7, 15, 14, 13, 12},
	{0, 1, 2, 3, 4, 5, 12, 11, 10, 9, 8, 6, 7, 15, 14, 13},
	{0, 1, 2, 3, 4, 5, 6, 13, 12, 11, 10, 9, 8, 7, 15, 14},
	{0, 1, 2, 3, 4, 5, 6, 7, 14, 13, 12, 11, 10, 9, 8, 15},
	{0, 1, 2, 3, 4, 5, 6, 7, 15, 14, 13, 12, 11, 10, 9, 8},
}

// DriveType identifies the physical 64DD drive a disk image was mastered
// for: retail units use a larger system sector than development units.
type DriveType int

const (
	DriveTypeDevelopment DriveType = iota
	DriveTypeRetail
)

func (t DriveType) String() string {
	if t == DriveTypeRetail {
		return "retail"
	}
	return "development"
}

type driveTypeSpec struct {
	driveType      DriveType
	sectorSize     int
	systemDataLBAs [4]int
	badLBAs        []int
}

var driveTypes = []driveTypeSpec{
	{DriveTypeDevelopment, 192, [4]int{11, 10, 3, 2}, []int{0, 1, 8, 9, 16, 17, 18, 19, 20, 21, 22, 23}},
	{DriveTypeRetail, 232, [4]int{9, 8, 1, 0}, []int{2, 3, 10, 11, 12, 16, 17, 18, 19, 20, 21, 22, 23}},
}

// blockInfo locates one physical block inside the backing image file.
type blockInfo struct {
	offset    int64
	blockSize int
	present   bool
}

// Image is an open 64DD disk image, translating track/head/block addresses
// to offsets in the backing file.
type Image struct {
	file      *os.File
	driveType DriveType
	hasType   bool
	table     [heads * tracks * blocksPerTrack]blockInfo
}

// Load opens path and parses its system area. The file is kept open for
// subsequent ReadBlock/WriteBlock calls until Unload is called.
func Load(path string) (*Image, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, sc64.NewConnectionError("opening 64DD image", err)
	}
	img := &Image{file: f}
	if err := img.parse(); err != nil {
		f.Close()
		return nil, err
	}
	return img, nil
}

// Unload closes the backing file. It is safe to call more than once.
func (img *Image) Unload() error {
	if img.file == nil {
		return nil
	}
	err := img.file.Close()
	img.file = nil
	return err
}

// DriveType returns the drive type the loaded image was mastered for.
func (img *Image) DriveType() DriveType {
	return img.driveType
}

func (img *Image) checkSystemBlock(lba, sectorSize int, checkType bool) ([]byte, bool) {
	buf := make([]byte, sectorSize*sectorsPerBlock)
	off := int64(lba) * systemSectorSize * sectorsPerBlock
	if _, err := img.file.ReadAt(buf, off); err != nil {
		return nil, false
	}
	systemData := buf[:sectorSize]
	for sector := 1; sector < sectorsPerBlock; sector++ {
		sectorData := buf[sector*sectorSize : sector*sectorSize+sectorSize]
		if !bytes.Equal(systemData, sectorData) {
			return nil, false
		}
	}
	if checkType {
		if systemData[4] != 0x10 || systemData[5]&0xF0 != 0x10 {
			return nil, false
		}
	}
	return systemData, true
}

func (img *Image) parse() error {
	var systemData []byte
	var idData []byte
	var badLBAs []int

	for _, spec := range driveTypes {
		if systemData != nil {
			break
		}
		badLBAs = append([]int(nil), spec.badLBAs...)
		for _, lba := range spec.systemDataLBAs {
			data, ok := img.checkSystemBlock(lba, spec.sectorSize, true)
			if ok {
				img.driveType = spec.driveType
				img.hasType = true
				systemData = data
			} else {
				badLBAs = append(badLBAs, lba)
			}
		}
	}

	for _, lba := range []int{15, 14} {
		data, ok := img.checkSystemBlock(lba, systemSectorSize, false)
		if ok {
			idData = data
		} else {
			badLBAs = append(badLBAs, lba)
		}
	}

	if systemData == nil || idData == nil {
		return sc64.NewFormatError("provided 64DD disk file is not valid", nil)
	}

	zoneBadTracks := make([][]int, len(zones))
	for z := range zones {
		start := 0
		if z != 0 {
			start = int(systemData[0x07+z])
		}
		stop := int(systemData[0x07+z+1])
		var bad []int
		for offset := start; offset < stop; offset++ {
			bad = append(bad, int(systemData[0x20+offset]))
		}
		for i := 0; len(bad) < badTracksPerZone; i++ {
			bad = append(bad, zones[z].tracks-i-1)
		}
		zoneBadTracks[z] = bad
	}

	diskType := systemData[5] & 0x0F

	currentLBA := 0
	startingBlock := 0
	fileOffset := int64(0)

	for _, z := range vzoneToPzone[diskType] {
		zn := zones[z]
		track := zn.startTrack

		for zoneTrack := 0; zoneTrack < zn.tracks; zoneTrack++ {
			currentZoneTrack := zoneTrack
			if zn.head != 0 {
				currentZoneTrack = (zn.tracks - 1) - zoneTrack
			}

			if containsInt(zoneBadTracks[z], currentZoneTrack) {
				if zn.head != 0 {
					track--
				} else {
					track++
				}
				continue
			}

			for block := 0; block < blocksPerTrack; block++ {
				index := (track << 2) | (zn.head << 1) | (startingBlock ^ block)
				if !containsInt(badLBAs, currentLBA) {
					img.table[index] = blockInfo{offset: fileOffset, blockSize: zn.sectorSize * sectorsPerBlock, present: true}
				} else {
					img.table[index] = blockInfo{}
				}
				fileOffset += int64(zn.sectorSize * sectorsPerBlock)
				currentLBA++
			}

			if zn.head != 0 {
				track--
			} else {
				track++
			}
			startingBlock ^= 1
		}
	}

	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func checkTrackHeadBlock(track, head, block int) error {
	if track < 0 || track >= tracks {
		return sc64.NewValueError("track outside of possible range", nil)
	}
	if head < 0 || head >= heads {
		return sc64.NewValueError("head outside of possible range", nil)
	}
	if block < 0 || block >= blocksPerTrack {
		return sc64.NewValueError("block outside of possible range", nil)
	}
	return nil
}

func tableIndex(track, head, block int) int {
	return (track << 2) | (head << 1) | block
}

func (img *Image) blockInfo(track, head, block int) (blockInfo, error) {
	if err := checkTrackHeadBlock(track, head, block); err != nil {
		return blockInfo{}, err
	}
	return img.table[tableIndex(track, head, block)], nil
}

// ReadBlock returns the bytes stored at the given physical address, or a
// BadBlockError if the address falls in a hole.
func (img *Image) ReadBlock(track, head, block int) ([]byte, error) {
	info, err := img.blockInfo(track, head, block)
	if err != nil {
		return nil, err
	}
	if !info.present {
		return nil, sc64.NewBadBlockError("bad or missing 64DD block")
	}
	buf := make([]byte, info.blockSize)
	if _, err := img.file.ReadAt(buf, info.offset); err != nil {
		return nil, sc64.NewConnectionError("reading 64DD image", err)
	}
	return buf, nil
}

// WriteBlock writes data to the given physical address. data must be
// exactly the block's size.
func (img *Image) WriteBlock(track, head, block int, data []byte) error {
	info, err := img.blockInfo(track, head, block)
	if err != nil {
		return err
	}
	if !info.present {
		return sc64.NewBadBlockError("bad or missing 64DD block")
	}
	if len(data) != info.blockSize {
		return sc64.NewValueError("provided data block size does not match expected size", nil)
	}
	if _, err := img.file.WriteAt(data, info.offset); err != nil {
		return sc64.NewConnectionError("writing 64DD image", err)
	}
	return nil
}

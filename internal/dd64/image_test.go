package dd64

import (
	"os"
	"path/filepath"
	"testing"

	sc64 "github.com/flashcart64/sc64ctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriveTypeString(t *testing.T) {
	assert.Equal(t, "development", DriveTypeDevelopment.String())
	assert.Equal(t, "retail", DriveTypeRetail.String())
}

func TestVZoneToPZoneRowsArePermutations(t *testing.T) {
	// Every zone index from every vzoneToPzone row must land on a distinct
	// physical zone, and each row must be a permutation of 0..15.
	for diskType, row := range vzoneToPzone {
		seen := make(map[int]bool)
		for _, pzone := range row {
			require.False(t, seen[pzone], "disk type %d repeats physical zone %d", diskType, pzone)
			require.GreaterOrEqual(t, pzone, 0)
			require.Less(t, pzone, len(zones))
			seen[pzone] = true
		}
		assert.Len(t, seen, len(zones))
	}
}

func TestTableIndexFormula(t *testing.T) {
	assert.Equal(t, 0, tableIndex(0, 0, 0))
	assert.Equal(t, 1, tableIndex(0, 0, 1))
	assert.Equal(t, 2, tableIndex(0, 1, 0))
	assert.Equal(t, 4, tableIndex(1, 0, 0))
}

func TestCheckTrackHeadBlockBounds(t *testing.T) {
	assert.NoError(t, checkTrackHeadBlock(0, 0, 0))
	assert.NoError(t, checkTrackHeadBlock(tracks-1, heads-1, blocksPerTrack-1))
	assert.Error(t, checkTrackHeadBlock(-1, 0, 0))
	assert.Error(t, checkTrackHeadBlock(tracks, 0, 0))
	assert.Error(t, checkTrackHeadBlock(0, heads, 0))
	assert.Error(t, checkTrackHeadBlock(0, 0, blocksPerTrack))
}

func TestContainsInt(t *testing.T) {
	list := []int{1, 3, 5}
	assert.True(t, containsInt(list, 3))
	assert.False(t, containsInt(list, 4))
	assert.False(t, containsInt(nil, 0))
}

// repeatSector builds a sectorsPerBlock-sector system/id block whose every
// sector is an identical copy of sector, as checkSystemBlock requires.
func repeatSector(sector []byte) []byte {
	buf := make([]byte, 0, len(sector)*sectorsPerBlock)
	for i := 0; i < sectorsPerBlock; i++ {
		buf = append(buf, sector...)
	}
	return buf
}

func writeAtLBA(t *testing.T, f *os.File, lba int, block []byte) {
	t.Helper()
	off := int64(lba) * systemSectorSize * sectorsPerBlock
	_, err := f.WriteAt(block, off)
	require.NoError(t, err)
}

// buildDevelopmentImage writes a minimal but fully valid development-type
// 64DD image: system area and ID sector at the development drive's LBAs,
// disk type 0, and no explicit per-zone bad tracks beyond the default last
// badTracksPerZone of each zone.
func buildDevelopmentImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.ndd")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	systemSector := make([]byte, 192)
	systemSector[4] = 0x10
	systemSector[5] = 0x10 // disk type 0 in the low nibble
	systemBlock := repeatSector(systemSector)
	for _, lba := range []int{11, 10, 3, 2} {
		writeAtLBA(t, f, lba, systemBlock)
	}

	idSector := make([]byte, systemSectorSize)
	idBlock := repeatSector(idSector)
	for _, lba := range []int{15, 14} {
		writeAtLBA(t, f, lba, idBlock)
	}

	require.NoError(t, f.Truncate(2<<20))
	return path
}

func TestLoadParsesMinimalDevelopmentImage(t *testing.T) {
	path := buildDevelopmentImage(t)

	img, err := Load(path)
	require.NoError(t, err)
	defer img.Unload()

	assert.Equal(t, DriveTypeDevelopment, img.DriveType())

	// Physical track 0 carries LBA 0 and 1, which the development drive
	// table reserves as permanently bad regardless of the system area.
	_, err = img.ReadBlock(0, 0, 0)
	assert.IsType(t, sc64.BadBlockError{}, err)

	// The last badTracksPerZone tracks of zone 0 (physical tracks
	// zones[0].tracks-1 down to zones[0].tracks-badTracksPerZone) are
	// never assigned blocks when the system area declares no exceptions.
	lastBadTrack := zones[0].startTrack + zones[0].tracks - 1
	_, err = img.ReadBlock(lastBadTrack, 0, 0)
	assert.IsType(t, sc64.BadBlockError{}, err)

	// Track 2 carries LBA 4/5, outside both the reserved range and the
	// zone's bad-track tail, so it must be addressable.
	data, err := img.ReadBlock(2, 0, 0)
	require.NoError(t, err)
	assert.Len(t, data, zones[0].sectorSize*sectorsPerBlock)
}

func TestWriteBlockRejectsWrongSize(t *testing.T) {
	path := buildDevelopmentImage(t)
	img, err := Load(path)
	require.NoError(t, err)
	defer img.Unload()

	err = img.WriteBlock(2, 0, 0, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestLoadRejectsInvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.ndd")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestUnloadIsIdempotent(t *testing.T) {
	path := buildDevelopmentImage(t)
	img, err := Load(path)
	require.NoError(t, err)
	assert.NoError(t, img.Unload())
	assert.NoError(t, img.Unload())
}

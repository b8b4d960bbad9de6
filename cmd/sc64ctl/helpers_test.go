package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/flashcart64/sc64ctl/internal/engine"
)

func TestProgressBarPrintsPercentAndFinalNewline(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	bar := progressBar(cmd)
	bar(200, 100, "uploading")
	bar(200, 200, "uploading")

	out := buf.String()
	assert.Contains(t, out, "uploading: 50%")
	assert.Contains(t, out, "uploading: 100%")
	assert.Contains(t, out, "\n")
}

func TestProgressBarSkipsZeroTotal(t *testing.T) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)

	progressBar(cmd)(0, 0, "nothing")
	assert.Empty(t, buf.String())
}

func TestSaveTypeByNameCoversAllSaveTypes(t *testing.T) {
	want := map[string]engine.SaveType{
		"none":        engine.SaveNone,
		"eeprom4k":    engine.SaveEEPROM4K,
		"eeprom16k":   engine.SaveEEPROM16K,
		"sram":        engine.SaveSRAM,
		"flashram":    engine.SaveFlashRAM,
		"sram-banked": engine.SaveSRAMBanked,
	}
	assert.Equal(t, want, saveTypeByName)
}

func TestConfigNamesCoverEveryConfigIDExactlyOnce(t *testing.T) {
	seen := make(map[engine.ConfigID]bool)
	for _, c := range configNames {
		assert.False(t, seen[c.id], "config id %d listed twice (as %q)", c.id, c.name)
		seen[c.id] = true
		assert.NotEmpty(t, c.name)
	}
	assert.Len(t, configNames, int(engine.RomExtendedEnable)+1)
}

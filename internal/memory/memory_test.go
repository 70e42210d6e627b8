package memory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starritt/locus16/internal/mapper"
	"github.com/starritt/locus16/internal/memory"
)

func TestRAMBigEndianRoundTrip(t *testing.T) {
	// Grounds scenario S2.
	m := mapper.New(func(reason string) { t.Fatalf("unexpected abort: %s", reason) })
	ram := memory.NewRAM(m)

	ram.SetWord(0x2000, 0x1234)
	if got := ram.GetWord(0x2000); got != 0x1234 {
		t.Fatalf("word round trip = %04X, want 1234", uint16(got))
	}
	if got := ram.GetByte(0x2000); got != 0x12 {
		t.Fatalf("high byte = %02X, want 12", got)
	}
	if got := ram.GetByte(0x2001); got != 0x34 {
		t.Fatalf("low byte = %02X, want 34", got)
	}
}

func TestRAMByteWriteRoundTrip(t *testing.T) {
	m := mapper.New(func(reason string) { t.Fatalf("unexpected abort: %s", reason) })
	ram := memory.NewRAM(m)
	ram.SetByte(-28672, 0xAB) // 0x9000
	ram.SetByte(-28671, 0xCD) // 0x9001
	if got := ram.GetWord(-28672); uint16(got) != 0xABCD {
		t.Fatalf("word after byte writes = %04X, want ABCD", uint16(got))
	}
}

func TestROMDefaultsToAllOnes(t *testing.T) {
	rom := memory.NewROM("")
	if err := rom.Initialise(); err != nil {
		t.Fatal(err)
	}
	if got := rom.GetWord(-32768); got != -1 {
		t.Fatalf("uninitialised ROM word = %04X, want FFFF", uint16(got))
	}
}

func TestROMLoadsImageAndIgnoresWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	data := []byte{0x12, 0x34, 0x56, 0x78}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	rom := memory.NewROM(path)
	if err := rom.Initialise(); err != nil {
		t.Fatal(err)
	}
	if got := rom.GetWord(-32768); got != 0x1234 {
		t.Fatalf("loaded word = %04X, want 1234", uint16(got))
	}
	rom.SetWord(-32768, 0x0000)
	if got := rom.GetWord(-32768); got != 0x1234 {
		t.Fatal("ROM write should have been silently ignored")
	}
}

func TestROMMissingFileReportsErrorWithoutPanicking(t *testing.T) {
	rom := memory.NewROM(filepath.Join(t.TempDir(), "missing.bin"))
	if err := rom.Initialise(); err == nil {
		t.Fatal("expected an error for a missing ROM image")
	}
}

package hexdump_test

import (
	"strings"
	"testing"

	"github.com/starritt/locus16/internal/hexdump"
)

func TestFormatWord(t *testing.T) {
	var b strings.Builder
	hexdump.FormatWord(&b, []uint16{0xABCD, 0x0001})
	if got, want := b.String(), "ABCD 0001 "; got != want {
		t.Fatalf("FormatWord = %q, want %q", got, want)
	}
}

func TestFormatBytesSpaced(t *testing.T) {
	var b strings.Builder
	hexdump.FormatBytes(&b, true, []byte{0x01, 0xFF})
	if got, want := b.String(), "01 FF "; got != want {
		t.Fatalf("FormatBytes = %q, want %q", got, want)
	}
}

func TestDumpLineShowsPrintableAscii(t *testing.T) {
	line := hexdump.DumpLine(0x1000, []uint16{0x4142})
	if !strings.HasPrefix(line, "1000: 4142") {
		t.Fatalf("DumpLine = %q", line)
	}
	if !strings.Contains(line, "|AB|") {
		t.Fatalf("DumpLine = %q, want ASCII column AB", line)
	}
}

// Package peripheral implements the byte-stream devices a serial channel
// can drive: file-backed tape reader/punch and a pty-backed terminal.
package peripheral

import (
	"errors"
	"io"
	"log/slog"
	"os"
)

// TapeReader serves bytes from a file opened read-only, non-blocking by
// construction: once the file is exhausted or absent, ReadByte just
// reports no data rather than erroring.
type TapeReader struct {
	name string
	file *os.File
}

// NewTapeReader builds a reader against name. The file is opened lazily by
// Initialise so a missing default tape doesn't prevent the rest of the
// machine from starting.
func NewTapeReader(name string) *TapeReader {
	return &TapeReader{name: name}
}

// Initialise opens the backing file. A missing file is logged, not fatal:
// the reader simply reports no data until SetFilename points it somewhere
// real.
func (t *TapeReader) Initialise() error {
	if t.name == "" {
		return nil
	}
	f, err := os.Open(t.name)
	if err != nil {
		slog.Warn("tape reader: could not open", "file", t.name, "err", err)
		return nil
	}
	t.file = f
	return nil
}

// SetFilename swaps the backing file, closing any previous one.
func (t *TapeReader) SetFilename(name string) error {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
	t.name = name
	return t.Initialise()
}

func (t *TapeReader) ReadByte() (byte, bool) {
	if t.file == nil {
		return 0, false
	}
	var buf [1]byte
	n, err := t.file.Read(buf[:])
	if err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Warn("tape reader: read error", "file", t.name, "err", err)
		}
		t.file.Close()
		t.file = nil
		return 0, false
	}
	return buf[0], n == 1
}

func (t *TapeReader) WriteByte(byte) bool { return false }

// TapePunch appends every written byte to a file, creating it on first
// write if necessary.
type TapePunch struct {
	name string
	file *os.File
}

func NewTapePunch(name string) *TapePunch {
	return &TapePunch{name: name}
}

func (p *TapePunch) Initialise() error {
	if p.name == "" {
		return nil
	}
	f, err := os.OpenFile(p.name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("tape punch: could not open", "file", p.name, "err", err)
		return nil
	}
	p.file = f
	return nil
}

func (p *TapePunch) SetFilename(name string) error {
	if p.file != nil {
		p.file.Close()
		p.file = nil
	}
	p.name = name
	return p.Initialise()
}

func (p *TapePunch) ReadByte() (byte, bool) { return 0, false }

func (p *TapePunch) WriteByte(value byte) bool {
	if p.file == nil {
		return false
	}
	_, err := p.file.Write([]byte{value})
	if err != nil {
		slog.Warn("tape punch: write error", "file", p.name, "err", err)
		return false
	}
	return true
}

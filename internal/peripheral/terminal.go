package peripheral

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Terminal spawns an external terminal emulator attached to a pty and
// exchanges bytes with it non-blockingly, the modern equivalent of
// forking an xterm onto a freshly allocated pseudo-terminal.
type Terminal struct {
	cmd    *exec.Cmd
	master *os.File
	inbox  chan byte
	done   chan struct{}
}

// NewTerminal builds an unstarted terminal peripheral; Initialise actually
// spawns the child process.
func NewTerminal() *Terminal {
	return &Terminal{}
}

// Initialise allocates a pty and starts an xterm attached to its slave
// side, matching the reference implementation's process-per-terminal
// model but via creack/pty instead of raw posix_openpt/fork/execvp calls.
func (t *Terminal) Initialise() error {
	t.cmd = exec.Command("xterm", "-title", "Locus 16 Emulator Terminal",
		"-bg", "black", "-fg", "white", "-fa", "Monospace", "-fs", "10")

	master, err := pty.Start(t.cmd)
	if err != nil {
		slog.Warn("terminal: could not start xterm", "err", err)
		return nil
	}
	t.master = master
	t.inbox = make(chan byte, 256)
	t.done = make(chan struct{})
	go t.pump()
	return nil
}

// pump feeds bytes read from the pty master into inbox, so ReadByte can be
// a non-blocking channel poll instead of a blocking read.
func (t *Terminal) pump() {
	defer close(t.done)
	buf := make([]byte, 256)
	for {
		n, err := t.master.Read(buf)
		for i := 0; i < n; i++ {
			t.inbox <- buf[i]
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Warn("terminal: read error", "err", err)
			}
			return
		}
	}
}

func (t *Terminal) ReadByte() (byte, bool) {
	if t.inbox == nil {
		return 0, false
	}
	select {
	case b := <-t.inbox:
		return b, true
	default:
		return 0, false
	}
}

func (t *Terminal) WriteByte(value byte) bool {
	if t.master == nil {
		return false
	}
	_, err := t.master.Write([]byte{value})
	if err != nil {
		slog.Warn("terminal: write error", "err", err)
		return false
	}
	return true
}

// Close tears down the pty and the child terminal process.
func (t *Terminal) Close() error {
	if t.master != nil {
		t.master.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		t.cmd.Process.Kill()
	}
	return nil
}

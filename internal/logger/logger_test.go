package logger_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/starritt/locus16/internal/logger"
)

func TestHandleWritesToFileSink(t *testing.T) {
	var buf bytes.Buffer
	h := logger.New(&buf, slog.LevelInfo, false)
	log := slog.New(h)
	log.Info("mapper fault", "addr", "7B00")

	out := buf.String()
	if !strings.Contains(out, "mapper fault") || !strings.Contains(out, "addr=7B00") {
		t.Fatalf("log line = %q, missing expected fields", out)
	}
}

func TestWithAttrsArePreservedAcrossHandle(t *testing.T) {
	var buf bytes.Buffer
	h := logger.New(&buf, slog.LevelInfo, false)
	log := slog.New(h).With("component", "clock")
	log.Info("tick")

	if !strings.Contains(buf.String(), "component=clock") {
		t.Fatalf("log line = %q, missing With()-attached attr", buf.String())
	}
}

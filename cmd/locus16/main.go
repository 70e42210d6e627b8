// Command locus16 runs the Locus 16 Emulator: it loads a machine
// description, wires a tape image into the configured tape reader, and
// drops into the line-oriented debugger.
package main

import (
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"github.com/starritt/locus16/internal/config"
	"github.com/starritt/locus16/internal/debugger"
	"github.com/starritt/locus16/internal/logger"
	"github.com/starritt/locus16/internal/peripheral"
	"github.com/starritt/locus16/internal/scheduler"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "locus16.ini", "Machine configuration file")
	optProgram := getopt.StringLong("program", 'p', "", "Program tape to load into the tape reader")
	optOutput := getopt.StringLong("output", 'o', "", "Output tape file for the tape punch")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optSleepModulo := getopt.IntLong("sleep-modulo", 's', 2000, "Instructions between pacing sleeps")
	optVerbose := getopt.BoolLong("verbose", 'v', "Echo every log record to stderr")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *optVerbose {
		level = slog.LevelDebug
	}
	if _, err := logger.Install(*optLogFile, level, *optVerbose); err != nil {
		slog.Error("could not open log file", "file", *optLogFile, "err", err)
		os.Exit(1)
	}

	if _, err := os.Stat(*optConfig); os.IsNotExist(err) {
		slog.Error("configuration file not found", "file", *optConfig)
		os.Exit(4)
	}

	machine, err := config.Load(*optConfig)
	if err != nil {
		slog.Error("configuration error", "err", err)
		os.Exit(4)
	}

	for _, p := range machine.Peripherals {
		if reader, ok := p.(*peripheral.TapeReader); ok && *optProgram != "" {
			reader.SetFilename(*optProgram)
		}
		if punch, ok := p.(*peripheral.TapePunch); ok && *optOutput != "" {
			punch.SetFilename(*optOutput)
		}
	}

	if err := machine.Bus.InitialiseDevices(); err != nil {
		slog.Error("device initialisation failed; continuing", "err", err)
	}

	if machine.Primary == nil {
		slog.Error("no primary ALP configured")
		os.Exit(2)
	}

	sched := scheduler.New(machine.Bus, machine.Clock, machine.Primary)
	sched.SleepModulo = *optSleepModulo

	dbg := debugger.New(machine.Bus, sched, machine.Primary, machine.Secondary, os.Stdout)
	if err := dbg.Run(); err != nil {
		slog.Error("debugger exited with an error", "err", err)
		os.Exit(1)
	}
}

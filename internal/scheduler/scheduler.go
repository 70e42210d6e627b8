// Package scheduler drives the Locus 16 run loop: a single-threaded,
// round-robin dispatch of every active device on the bus, with the
// interval clock ticking every step and its interrupt routed to the
// primary ALP alone.
package scheduler

import (
	"time"

	"github.com/starritt/locus16/internal/bus"
	"github.com/starritt/locus16/internal/clock"
)

// Interruptible is the subset of the primary ALP the scheduler needs to
// route clock interrupts into, without importing the alp package and
// creating a cycle.
type Interruptible interface {
	RequestInterrupt()
}

// Scheduler owns the run loop. Breakpoint and pacing policy are injected so
// the debugger front end can drive single-step, run-to-breakpoint, and
// free-run from the same loop.
type Scheduler struct {
	bus     *bus.Bus
	clock   *clock.Clock
	primary Interruptible
	devices []bus.ActiveDevice

	// SleepModulo paces real time: every SleepModulo steps the loop yields
	// briefly to the OS scheduler instead of spinning. Zero disables pacing.
	SleepModulo int
	SleepFor    time.Duration

	steps int
}

// New builds a scheduler over every ActiveDevice currently registered on b.
// primary receives the clock's interrupt; it may be nil if no ALP is wired
// (e.g. in bus-only tests).
func New(b *bus.Bus, c *clock.Clock, primary Interruptible) *Scheduler {
	s := &Scheduler{bus: b, clock: c, primary: primary, SleepModulo: 2000, SleepFor: time.Millisecond}
	s.devices = b.ActiveDevices()
	s.clock.SetActiveDeviceCount(len(s.devices))
	return s
}

// BreakpointFunc reports whether execution should stop before running the
// device about to take its turn. It is never consulted on the very first
// iteration of a Run, so a breakpoint sitting exactly on the current PC at
// the start of a run does not immediately re-trip it.
type BreakpointFunc func() bool

// Run executes devices round-robin until stop reports true (checked before
// every step except the first), a device's Execute reports a fatal decode
// error, or the context-free step budget (if positive) is exhausted.
// It returns the number of steps taken and whether a device faulted.
func (s *Scheduler) Run(stop BreakpointFunc, maxSteps int) (steps int, faulted bool) {
	first := true
	for maxSteps <= 0 || steps < maxSteps {
		if !first && stop != nil && stop() {
			return steps, false
		}
		first = false

		if ok := s.step(); !ok {
			return steps + 1, true
		}
		steps++
		s.steps++

		if s.SleepModulo > 0 && steps%s.SleepModulo == 0 {
			time.Sleep(s.SleepFor)
		}
	}
	return steps, false
}

// step runs one device's turn, then advances the clock and routes any
// expired interrupt to the primary ALP. It returns false if a device
// reported a fatal decode failure.
func (s *Scheduler) step() bool {
	if len(s.devices) == 0 {
		return true
	}
	d := s.devices[s.steps%len(s.devices)]
	ok := d.Execute()

	s.clock.ExecuteCycle()
	if s.clock.TestAndClearInterruptPending() && s.primary != nil {
		s.primary.RequestInterrupt()
	}
	return ok
}

// Rescan refreshes the device list, for use after devices are registered or
// removed mid-session (e.g. the debugger attaching a new peripheral).
func (s *Scheduler) Rescan() {
	s.devices = s.bus.ActiveDevices()
	s.clock.SetActiveDeviceCount(len(s.devices))
}

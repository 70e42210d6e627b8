// Package clock implements the Locus 16 programmable interval clock (C5): a
// monotonic countdown timer that latches a single interrupt line when it
// expires.
package clock

import "github.com/starritt/locus16/internal/bus"

const (
	low  int16 = 0x7C00
	high int16 = 0x7C04

	statusAddr   int16 = 0x7C00
	intervalAddr int16 = 0x7C02

	// minCountdown is the floor the countdown is clamped to after any
	// reload, guaranteeing it is always positive.
	minCountdown = 10.0
	// instructionDurationNumerator is the "3 * 2.25" in the per-
	// instruction timing estimate.
	instructionDurationNumerator = 3.0 * 2.25
)

// Clock is a passive bus.Device occupying [0x7C00, 0x7C04).
type Clock struct {
	bus.Base

	running            bool
	interval           uint16
	countdown          float64
	interruptPending   bool
	activeDeviceCount  int
}

// New constructs a stopped clock with a countdown already at the 10us
// floor, matching the "always >= 10us after a reset" invariant.
func New() *Clock {
	c := &Clock{countdown: minCountdown, activeDeviceCount: 1}
	c.Base = bus.NewBase("Clock", low, high, c)
	return c
}

// SetActiveDeviceCount scales the per-instruction duration estimate used by
// ExecuteCycle; it is clamped to a minimum of 1.
func (c *Clock) SetActiveDeviceCount(n int) {
	if n < 1 {
		n = 1
	}
	c.activeDeviceCount = n
}

// ExecuteCycle advances the countdown by one estimated instruction
// duration. It is called by the scheduler once per step regardless of
// which device actually executed.
func (c *Clock) ExecuteCycle() {
	if !c.running {
		return
	}
	duration := instructionDurationNumerator / float64(c.activeDeviceCount+2)
	c.countdown -= duration
	if c.countdown <= 0 {
		c.interruptPending = true
		c.countdown += 1000.0 * float64(c.interval)
		if c.countdown < minCountdown {
			c.countdown = minCountdown
		}
	}
}

// TestAndClearInterruptPending returns whether the clock has expired since
// the last call, clearing the latch. Single-threaded discipline makes this
// atomic without any locking.
func (c *Clock) TestAndClearInterruptPending() bool {
	p := c.interruptPending
	c.interruptPending = false
	return p
}

func (c *Clock) GetWord(addr int16) int16 {
	switch addr {
	case statusAddr:
		if c.running {
			return 1
		}
		return 0
	case intervalAddr:
		return int16(c.interval)
	default:
		return bus.AllOnes
	}
}

// SetWord starts/stops the clock (status register, bit 0) or reloads the
// full countdown (interval register, treating the written value as
// unsigned milliseconds) -- a full reload, not additive, distinguishing it
// from the natural-expiry reload in ExecuteCycle.
func (c *Clock) SetWord(addr int16, value int16) {
	switch addr {
	case statusAddr:
		c.running = value&1 != 0
	case intervalAddr:
		c.interval = uint16(value)
		c.countdown = 1000.0 * float64(c.interval)
		if c.countdown < minCountdown {
			c.countdown = minCountdown
		}
	}
}

// Package config loads a Locus 16 machine description from an INI file and
// builds the peripherals and bus devices it names, mirroring the two-pass
// (peripherals, then devices) construction of the reference configuration
// loader.
package config

import (
	"fmt"
	"log/slog"

	"gopkg.in/ini.v1"

	"github.com/starritt/locus16/internal/alp"
	"github.com/starritt/locus16/internal/bus"
	"github.com/starritt/locus16/internal/clock"
	"github.com/starritt/locus16/internal/mapper"
	"github.com/starritt/locus16/internal/memory"
	"github.com/starritt/locus16/internal/peripheral"
	"github.com/starritt/locus16/internal/serial"
)

// Machine is the fully built system: the bus plus the handful of
// components callers need direct handles to (the scheduler needs the
// clock; the debugger needs the primary ALP and the peripherals by slot).
type Machine struct {
	Bus         *bus.Bus
	Mapper      *mapper.Mapper
	Clock       *clock.Clock
	Primary     *alp.ALP
	Secondary   *alp.ALP
	Peripherals map[int]serial.Peripheral
}

// Load parses iniFile and constructs every peripheral and device it names.
// Load returns an error when the file cannot be read/parsed, when [System]
// names no devices, or when any peripheral or device cannot be built or
// registered (unknown kind, invalid processor number, RAM before
// MemoryController, overlapping range, bad serial settings). A peripheral
// that fails to initialise is only logged.
func Load(iniFile string) (*Machine, error) {
	cfg, err := ini.Load(iniFile)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", iniFile, err)
	}

	system := cfg.Section("System")
	numberDevices := system.Key("NumberDevices").MustInt(-1)
	if numberDevices < 1 {
		return nil, fmt.Errorf("config: %s: no devices specified", iniFile)
	}
	numberPeripherals := system.Key("NumberPeripherals").MustInt(0)

	m := &Machine{Bus: bus.New(), Peripherals: make(map[int]serial.Peripheral)}

	if err := m.buildPeripherals(cfg, numberPeripherals); err != nil {
		return nil, err
	}
	if err := m.buildDevices(cfg, numberDevices, numberPeripherals); err != nil {
		return nil, err
	}
	return m, nil
}

// initialisable is satisfied by peripherals that need to open a file or
// spawn a process before they can serve bytes.
type initialisable interface {
	Initialise() error
}

func (m *Machine) buildPeripherals(cfg *ini.File, numberPeripherals int) error {
	for p := 1; p <= numberPeripherals; p++ {
		section := cfg.Section(fmt.Sprintf("Peripheral%d", p))
		kind := section.Key("Kind").MustString("None")

		var built serial.Peripheral
		switch kind {
		case "Terminal":
			built = peripheral.NewTerminal()
		case "TapeReader":
			name := section.Key("DefaultName").MustString("")
			built = peripheral.NewTapeReader(name)
		case "TapePunch":
			name := section.Key("DefaultName").MustString("")
			built = peripheral.NewTapePunch(name)
		default:
			return fmt.Errorf("config: peripheral %d: unknown kind %q", p, kind)
		}
		if init, ok := built.(initialisable); ok {
			if err := init.Initialise(); err != nil {
				slog.Warn("config: peripheral failed to initialise", "slot", p, "kind", kind, "err", err)
			}
		}
		m.Peripherals[p] = built
		slog.Info("config: built peripheral", "slot", p, "kind", kind)
	}
	return nil
}

func (m *Machine) buildDevices(cfg *ini.File, numberDevices, numberPeripherals int) error {
	for d := 1; d <= numberDevices; d++ {
		section := cfg.Section(fmt.Sprintf("Device%d", d))
		kind := section.Key("Kind").MustString("undefined")

		switch kind {
		case "ALP1", "ALP2":
			slot := section.Key("Processor").MustInt(-1)
			if slot < 1 || slot > 2 {
				return fmt.Errorf("config: device %d: invalid processor number %d", d, slot)
			}
			a := alp.New(m.Bus, slot)
			if err := m.Bus.Register(a); err != nil {
				return fmt.Errorf("config: device %d: %w", d, err)
			}
			if slot == 1 {
				m.Primary = a
			} else {
				m.Secondary = a
			}

		case "MemoryController":
			m.Mapper = mapper.New(nil)
			if err := m.Bus.Register(m.Mapper); err != nil {
				return fmt.Errorf("config: device %d: %w", d, err)
			}

		case "RAM":
			if m.Mapper == nil {
				return fmt.Errorf("config: device %d: RAM declared before MemoryController", d)
			}
			ram := memory.NewRAM(m.Mapper)
			if err := m.Bus.Register(ram); err != nil {
				return fmt.Errorf("config: device %d: %w", d, err)
			}

		case "ROM":
			filename := section.Key("Filename").MustString("")
			rom := memory.NewROM(filename)
			if err := m.Bus.Register(rom); err != nil {
				return fmt.Errorf("config: device %d: %w", d, err)
			}

		case "Clock":
			m.Clock = clock.New()
			if err := m.Bus.Register(m.Clock); err != nil {
				return fmt.Errorf("config: device %d: %w", d, err)
			}

		case "Serial":
			if err := m.buildSerial(section, d, numberPeripherals); err != nil {
				return err
			}

		case "None":
			// declared but unused device slot.

		default:
			return fmt.Errorf("config: device %d: unknown kind %q", d, kind)
		}
		slog.Info("config: built device", "slot", d, "kind", kind)
	}
	return nil
}

func (m *Machine) buildSerial(section *ini.Section, d, numberPeripherals int) error {
	typeName := section.Key("Type").MustString("")
	statusAddr := int16(section.Key("Status").MustInt(-1))
	peripheralSlot := section.Key("Peripheral").MustInt(-1)

	if peripheralSlot < 1 || peripheralSlot > numberPeripherals {
		return fmt.Errorf("config: device %d: no/invalid peripheral specified", d)
	}

	var direction serial.Direction
	switch typeName {
	case "Input":
		direction = serial.Input
	case "Output":
		direction = serial.Output
	default:
		return fmt.Errorf("config: device %d: unknown serial device type %q", d, typeName)
	}

	s := serial.New(direction, statusAddr)
	if err := m.Bus.Register(s); err != nil {
		return fmt.Errorf("config: device %d: %w", d, err)
	}
	if p, ok := m.Peripherals[peripheralSlot]; ok {
		s.Connect(p)
	}
	return nil
}

package bus_test

import (
	"testing"

	"github.com/starritt/locus16/internal/bus"
)

// stubDevice is a minimal word-addressable device for exercising the bus in
// isolation from any real Locus 16 peripheral.
type stubDevice struct {
	bus.Base
	mem map[int16]int16
}

func newStub(name string, low, high int16) *stubDevice {
	s := &stubDevice{mem: map[int16]int16{}}
	s.Base = bus.NewBase(name, low, high, s)
	return s
}

func (s *stubDevice) GetWord(addr int16) int16 { return s.mem[addr] }
func (s *stubDevice) SetWord(addr int16, v int16) { s.mem[addr] = v }

func TestRegisterRejectsOverlap(t *testing.T) {
	b := bus.New()
	if err := b.Register(newStub("a", 0x1000, 0x2000)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := b.Register(newStub("b", 0x1800, 0x2800)); err == nil {
		t.Fatal("expected overlap error")
	}
	if err := b.Register(newStub("c", 0x2000, 0x3000)); err != nil {
		t.Fatalf("adjacent half-open range should not overlap: %v", err)
	}
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	b := bus.New()
	for i := 0; i < bus.MaxDevices; i++ {
		low := int16(i * 0x100)
		if err := b.Register(newStub("d", low, low+0x100)); err != nil {
			t.Fatalf("register %d: %v", i, err)
		}
	}
	if err := b.Register(newStub("overflow", 0x7000, 0x7100)); err == nil {
		t.Fatal("expected capacity error")
	}
}

func TestFindDeviceExactness(t *testing.T) {
	b := bus.New()
	d := newStub("ram", -28672, -24576) // [0x9000, 0xA000)
	if err := b.Register(d); err != nil {
		t.Fatal(err)
	}
	for addr := int32(0x9000); addr < 0xA000; addr += 0x123 {
		if got := b.FindDevice(int16(addr)); got != bus.Device(d) {
			t.Fatalf("address %04X: got %v, want %v", addr, got, d)
		}
	}
}

func TestNullDeviceAbsorbsUnmappedAccess(t *testing.T) {
	b := bus.New()
	if got := b.GetWord(0x1234); got != bus.AllOnes {
		t.Fatalf("unmapped read = %d, want AllOnes", got)
	}
	b.SetWord(0x1234, 0x5678) // must not panic, must be discarded
	if got := b.GetWord(0x1234); got != bus.AllOnes {
		t.Fatalf("unmapped write leaked into subsequent read: %d", got)
	}
}

func TestByteAccessDefaultsToBigEndianWord(t *testing.T) {
	b := bus.New()
	d := newStub("ram", 0x2000, 0x3000)
	if err := b.Register(d); err != nil {
		t.Fatal(err)
	}
	b.SetWord(0x2000, 0x1234)
	if got := b.GetByte(0x2000); got != 0x12 {
		t.Fatalf("high byte = %02X, want 12", got)
	}
	if got := b.GetByte(0x2001); got != 0x34 {
		t.Fatalf("low byte = %02X, want 34", got)
	}

	b.SetByte(0x2000, 0xAB)
	if got := b.GetWord(0x2000); uint16(got) != 0xAB34 {
		t.Fatalf("word after high-byte write = %04X, want AB34", uint16(got))
	}
}

func TestActiveDevicesPreserveRegistrationOrder(t *testing.T) {
	b := bus.New()
	first := newActiveStub("first", 0x7F00, -32768) // [0x7F00, 0x8000)
	second := newActiveStub("second", 0x7E00, 0x7F00)
	if err := b.Register(first); err != nil {
		t.Fatal(err)
	}
	if err := b.Register(second); err != nil {
		t.Fatal(err)
	}
	active := b.ActiveDevices()
	if len(active) != 2 || active[0].Name() != "first" || active[1].Name() != "second" {
		t.Fatalf("unexpected active device order: %+v", active)
	}
}

type activeStub struct {
	*stubDevice
}

func newActiveStub(name string, low, high int16) *activeStub {
	return &activeStub{stubDevice: newStub(name, low, high)}
}

func (a *activeStub) Execute() bool        { return true }
func (a *activeStub) ActiveIdentity() int  { return 0 }

package bus

// Bus routes accesses on the signed 16-bit Locus 16 address space to the
// unique device whose half-open range contains the address.
type Bus struct {
	devices []Device
}

// New returns an empty bus.
func New() *Bus {
	return &Bus{}
}

// Register adds a device, rejecting it if the bus is full or its range
// overlaps an already-registered device.
func (b *Bus) Register(d Device) error {
	if len(b.devices) >= MaxDevices {
		return &CapacityError{}
	}
	low, high := d.Range()
	for _, existing := range b.devices {
		el, eh := existing.Range()
		if overlaps(low, high, el, eh) {
			return &DuplicateRangeError{New: d, Existing: existing}
		}
	}
	b.devices = append(b.devices, d)
	return nil
}

// find returns the device claiming addr, or the null sentinel. Ranges are
// measured modulo 2^16, so a range ending at 0x8000 has high == -32768.
func (b *Bus) find(addr int16) Device {
	for _, d := range b.devices {
		low, high := d.Range()
		if uint16(addr-low) < uint16(high-low) {
			return d
		}
	}
	return null
}

// FindDevice exposes the same lookup used internally, for diagnostics and
// tests.
func (b *Bus) FindDevice(addr int16) Device {
	return b.find(addr)
}

func (b *Bus) GetWord(addr int16) int16        { return b.find(addr).GetWord(addr) }
func (b *Bus) SetWord(addr int16, v int16)     { b.find(addr).SetWord(addr, v) }
func (b *Bus) GetByte(addr int16) byte         { return b.find(addr).GetByte(addr) }
func (b *Bus) SetByte(addr int16, v byte)      { b.find(addr).SetByte(addr, v) }

// ListDevices returns every registered device in registration order.
func (b *Bus) ListDevices() []Device {
	out := make([]Device, len(b.devices))
	copy(out, b.devices)
	return out
}

// ActiveDevices returns every registered device that also implements
// ActiveDevice, in registration order.
func (b *Bus) ActiveDevices() []ActiveDevice {
	var out []ActiveDevice
	for _, d := range b.devices {
		if ad, ok := d.(ActiveDevice); ok {
			out = append(out, ad)
		}
	}
	return out
}

// InitialiseDevices calls Initialise on every registered device, stopping
// and returning the first error encountered (e.g. a ROM image that could
// not be read).
func (b *Bus) InitialiseDevices() error {
	for _, d := range b.devices {
		if err := d.Initialise(); err != nil {
			return err
		}
	}
	return nil
}

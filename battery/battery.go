// Package battery turns raw battery sense samples into the power-supply
// properties served to the host: calibrated voltage and current readings,
// the write-once chemistry classification and the design voltage bounds.
package battery

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Technology is the battery chemistry classification.
type Technology int

const (
	TechnologyUnknown Technology = iota
	TechnologyNiMH
	TechnologyLiIon
)

func (t Technology) String() string {
	switch t {
	case TechnologyNiMH:
		return "NiMH"
	case TechnologyLiIon:
		return "Li-ion"
	default:
		return "Unknown"
	}
}

// ParseTechnology maps a technology name back to its value.
func ParseTechnology(s string) (Technology, error) {
	switch s {
	case "Unknown":
		return TechnologyUnknown, nil
	case "NiMH":
		return TechnologyNiMH, nil
	case "Li-ion":
		return TechnologyLiIon, nil
	}
	return TechnologyUnknown, fmt.Errorf("%w: unknown technology %q", ErrInvalid, s)
}

// Property names one of the exported battery properties.
type Property string

const (
	PropTechnology       Property = "technology"
	PropVoltageNow       Property = "voltage_now"
	PropVoltageMaxDesign Property = "voltage_max_design"
	PropVoltageMinDesign Property = "voltage_min_design"
	PropCurrentNow       Property = "current_now"
	PropScope            Property = "scope"
)

// Scope is fixed: the battery powers the whole brick.
const Scope = "System"

// Design voltage bounds in µV for each way a pack can be classified.
const (
	// 2-cell Li-ion, 7.4V nominal
	liIonVoltageMax = 84000000
	liIonVoltageMin = 60000000
	// 6x AA Alkaline, 9V nominal
	unknownVoltageMax = 90000000
	unknownVoltageMin = 48000000
	// 6x AA NiMH
	nimhVoltageMax = 7800000
	nimhVoltageMin = 5400000
)

// reading is one calibrated sample pair. It is stored behind a single
// pointer so readers always see voltage and current from the same sample,
// never a torn pair.
type reading struct {
	microVolts int64
	microAmps  int64
}

// Battery owns the state for one battery device: the write-once chemistry
// classification, its design bounds and the last good readings. There is
// one instance per attached device; all methods are safe for concurrent
// use.
type Battery struct {
	src SampleSource

	mu   sync.Mutex // guards tech, vMax, vMin
	tech Technology
	vMax int64
	vMin int64

	last atomic.Pointer[reading]
}

// New builds the state for a battery that has just been attached.
// rechargeable is the chemistry-detection strap, read once by the caller.
// The strap cannot change without removing the battery, so it is never
// re-evaluated: an asserted strap fixes the pack as Li-ion for the life of
// the device, a deasserted strap leaves it Unknown with placeholder
// alkaline bounds and the technology writable exactly once.
func New(src SampleSource, rechargeable bool) *Battery {
	b := &Battery{src: src}
	if rechargeable {
		b.tech = TechnologyLiIon
		b.vMax = liIonVoltageMax
		b.vMin = liIonVoltageMin
	} else {
		b.tech = TechnologyUnknown
		b.vMax = unknownVoltageMax
		b.vMin = unknownVoltageMin
	}
	b.last.Store(&reading{})
	return b
}

// HandleSample stores the calibrated values for a freshly delivered
// conversion pair. It is the only writer of the last-good readings and
// does not block; the acquisition layer calls it on its own goroutine.
func (b *Battery) HandleSample(s RawSample) {
	b.last.Store(&reading{
		microVolts: VoltageMicroVolts(int64(s.Voltage), int64(s.Current)),
		microAmps:  CurrentMicroAmps(int64(s.Current)),
	})
}

// Technology returns the current classification.
func (b *Battery) Technology() Technology {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tech
}

// VoltageMaxDesign returns the design full voltage in µV.
func (b *Battery) VoltageMaxDesign() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vMax
}

// VoltageMinDesign returns the design empty voltage in µV.
func (b *Battery) VoltageMinDesign() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.vMin
}

// VoltageNow returns the battery voltage in µV from a live sample. While
// the source is busy converting, the last stored reading is returned
// instead of an error.
func (b *Battery) VoltageNow() (int64, error) {
	s, err := b.liveSample()
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return b.last.Load().microVolts, nil
		}
		return 0, err
	}
	return VoltageMicroVolts(int64(s.Voltage), int64(s.Current)), nil
}

// CurrentNow returns the battery current in µA from a live sample, with
// the same busy fallback as VoltageNow.
func (b *Battery) CurrentNow() (int64, error) {
	s, err := b.liveSample()
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return b.last.Load().microAmps, nil
		}
		return 0, err
	}
	return CurrentMicroAmps(int64(s.Current)), nil
}

// liveSample reads from the source, keeping busy, not-present and
// retry-later failures intact for the caller and collapsing everything
// else to ErrNoData.
func (b *Battery) liveSample() (RawSample, error) {
	s, err := b.src.Read()
	if err == nil {
		return s, nil
	}
	if errors.Is(err, ErrBusy) || errors.Is(err, ErrNotPresent) || errors.Is(err, ErrRetryLater) {
		return RawSample{}, err
	}
	return RawSample{}, ErrNoData
}

// SetTechnology performs the one allowed classification write: a pack
// still Unknown may be declared NiMH, which assigns the NiMH design
// bounds together with the technology. Li-ion packs are detected from the
// strap and must not be overridden, so any other transition is rejected.
// There is no way back to Unknown.
func (b *Battery) SetTechnology(t Technology) error {
	if t != TechnologyNiMH {
		return fmt.Errorf("%w: technology can only be set to NiMH", ErrInvalid)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tech != TechnologyUnknown {
		return fmt.Errorf("%w: technology already classified as %s", ErrInvalid, b.tech)
	}
	b.tech = TechnologyNiMH
	b.vMax = nimhVoltageMax
	b.vMin = nimhVoltageMin
	return nil
}

// Properties lists the exported properties in the order hosts enumerate
// them.
func (b *Battery) Properties() []Property {
	return []Property{
		PropTechnology,
		PropVoltageNow,
		PropVoltageMaxDesign,
		PropVoltageMinDesign,
		PropCurrentNow,
		PropScope,
	}
}

func supportedProperty(p Property) bool {
	switch p {
	case PropTechnology, PropVoltageNow, PropVoltageMaxDesign,
		PropVoltageMinDesign, PropCurrentNow, PropScope:
		return true
	}
	return false
}

// Get reads one property. Technology and scope are strings, everything
// else is µV or µA as int64.
func (b *Battery) Get(p Property) (interface{}, error) {
	switch p {
	case PropTechnology:
		return b.Technology().String(), nil
	case PropVoltageNow:
		v, err := b.VoltageNow()
		if err != nil {
			return nil, err
		}
		return v, nil
	case PropVoltageMaxDesign:
		return b.VoltageMaxDesign(), nil
	case PropVoltageMinDesign:
		return b.VoltageMinDesign(), nil
	case PropCurrentNow:
		c, err := b.CurrentNow()
		if err != nil {
			return nil, err
		}
		return c, nil
	case PropScope:
		return Scope, nil
	default:
		return nil, fmt.Errorf("%w: unsupported property %q", ErrInvalid, p)
	}
}

// Set writes one property. Only the technology is writable, and only
// while it is still Unknown. The value may be a Technology or its name.
func (b *Battery) Set(p Property, value interface{}) error {
	switch p {
	case PropTechnology:
		switch v := value.(type) {
		case Technology:
			return b.SetTechnology(v)
		case string:
			t, err := ParseTechnology(v)
			if err != nil {
				return err
			}
			return b.SetTechnology(t)
		default:
			return fmt.Errorf("%w: technology value must be a Technology or its name", ErrInvalid)
		}
	default:
		if !supportedProperty(p) {
			return fmt.Errorf("%w: unsupported property %q", ErrInvalid, p)
		}
		return fmt.Errorf("%w: property %q is read only", ErrInvalid, p)
	}
}

// IsWriteable reports whether a property currently accepts writes. Only
// the technology is ever writable, and only until it is classified.
func (b *Battery) IsWriteable(p Property) bool {
	return p == PropTechnology && b.Technology() == TechnologyUnknown
}

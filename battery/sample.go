package battery

// RawSample is one conversion pair from the acquisition hardware. Both
// fields come from the same burst and always refresh together; partial
// pairs are never delivered. The values are unscaled 12-bit conversion
// results.
type RawSample struct {
	Current uint16
	Voltage uint16
}

// SampleSource provides on-demand access to a fresh conversion pair.
// Implementations report failures with the sentinel errors in this
// package: ErrBusy when a read collides with an acquisition burst,
// ErrRetryLater before acquisition has started and ErrNotPresent once the
// device is gone. Anything else is treated as an unclassified failure.
//
// Push delivery is arranged separately: the acquisition layer calls
// (*Battery).HandleSample for every pair it converts.
type SampleSource interface {
	Read() (RawSample, error)
}

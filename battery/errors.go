package battery

import "errors"

// Failure kinds reported by a SampleSource and by the property operations.
// Callers classify with errors.Is; wrapped variants are fine.
var (
	// ErrBusy means a live sample read is not ready yet. The state manager
	// recovers from this itself by substituting the last stored reading,
	// so callers of the property operations never see it.
	ErrBusy = errors.New("sample source busy")

	// ErrNotPresent means the acquisition device has gone away.
	ErrNotPresent = errors.New("sample source not present")

	// ErrRetryLater means the read cannot be serviced yet but is expected
	// to succeed once acquisition is running.
	ErrRetryLater = errors.New("sample source not ready, retry later")

	// ErrNoData is the normalized form of any unclassified read failure.
	// Retrying without evidence the sensor is healthy is pointless.
	ErrNoData = errors.New("no data available")

	// ErrInvalid rejects unsupported properties, writes to read-only
	// properties and invalid technology transitions.
	ErrInvalid = errors.New("invalid argument")

	// ErrNotReady marks a missing attach-time dependency that may appear
	// later (SPI driver still loading, pin not yet exported). Attach
	// should be retried rather than failed permanently.
	ErrNotReady = errors.New("device not yet ready")
)

package refill

import "fmt"

// CreationError is returned by New when the pool cannot be built.
// Match it with errors.As; the pointed-to value compares with ==, as in
// *err == CreationError{Description: ...}.
type CreationError struct {
	Description string
}

// Error implements the error interface
func (e *CreationError) Error() string {
	return fmt.Sprintf("pool creation error: %s", e.Description)
}

const (
	descLowWaterMark = "low_water_mark must be less than capacity"
	descNegative     = "capacity and low_water_mark must not be negative"
	descNilFactory   = "factory must not be nil"
	descPrefill      = "failed to pre-fill the queue"
	descOnDropType   = "on_drop hook does not accept the pool's item type"
)

package timing

import "errors"

// Timing domain errors
var (
	ErrPolicyNotFound     = errors.New("no timing policy found for department")
	ErrOfficeNotFound     = errors.New("office location not found")
	ErrInvalidClockWindow = errors.New("check-out time must differ from check-in time")
)

package attendance

import "errors"

// Attendance domain errors
var (
	// State transition errors
	ErrAlreadyCheckedIn       = errors.New("you have already checked in today")
	ErrNoOpenAttendance       = errors.New("no open attendance record to check out")
	ErrAlreadyCheckedOut      = errors.New("you have already checked out")
	ErrInvalidStateTransition = errors.New("invalid attendance state transition")

	// Validation errors
	ErrLocationRequired       = errors.New("location is required for check-in and check-out")
	ErrPhotoRequired          = errors.New("proof photo is required for check-in and check-out")
	ErrReasonRequired         = errors.New("a reason is required for early or late attendance")
	ErrOvertimeReasonRequired = errors.New("a reason is required when confirming overtime")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrOvertimeDecided    = errors.New("overtime has already been decided for this record")
)

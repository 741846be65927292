package attendance

import (
	"time"
)

type AttendanceType string

const (
	TypeOffice    AttendanceType = "office"
	TypeRemote    AttendanceType = "remote"
	TypeFieldWork AttendanceType = "field_work"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
	StatusHoliday Status = "holiday"
	StatusHalfDay Status = "half_day"
)

// Attendance is one person's record for one working day. There is at most
// one record per (employee, date), and at most one of them may be open
// (check-out still null).
type Attendance struct {
	ID           string
	EmployeeID   string
	DepartmentID string
	Date         time.Time // working day, truncated to local midnight

	CheckInTime       *time.Time
	CheckInLatitude   *float64
	CheckInLongitude  *float64
	CheckInAccuracy   *float64
	CheckInPhotoURL   *string
	CheckOutTime      *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutPhotoURL  *string

	Type   AttendanceType
	Status Status

	IsLate            bool
	LateMinutes       int
	EarlyMinutes      int // minutes before scheduled check-in, when early
	EarlyLeaveMinutes int // minutes before scheduled check-out, when leaving early

	Reason            *string // mandatory when early or late
	OvertimeRequested bool
	OvertimeReason    *string // mandatory when overtime is confirmed

	WorkMinutes     *int
	OvertimeMinutes int

	WithinOfficeRadius *bool
	DistanceFromOffice *float64
	NearestOffice      *string

	AutoClosed bool
	CloseNote  *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
}

// WorkingHours converts the stored work minutes to hours.
func (a Attendance) WorkingHours() float64 {
	if a.WorkMinutes == nil {
		return 0
	}
	return float64(*a.WorkMinutes) / 60.0
}

// OvertimeHours converts the stored overtime minutes to hours.
func (a Attendance) OvertimeHours() float64 {
	return float64(a.OvertimeMinutes) / 60.0
}

// IsOpen reports whether the record has a check-in but no check-out yet.
func (a Attendance) IsOpen() bool {
	return a.CheckInTime != nil && a.CheckOutTime == nil
}

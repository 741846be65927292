package attendance

import (
	"context"
	"time"
)

// ForcedClose is the payload the auto-checkout sweep applies to a record
// that was left open.
type ForcedClose struct {
	CheckOutTime    time.Time
	WorkMinutes     int
	OvertimeMinutes int
	Status          Status
	Note            string
}

// AttendanceRepository defines data access for attendance records.
type AttendanceRepository interface {
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByEmployeeAndDate returns nil when no record exists for the day.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Attendance, error)

	// GetOpenByEmployeeAndDate returns the record with a check-in and no
	// check-out for the day, or ErrNoOpenAttendance.
	GetOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (Attendance, error)

	Update(ctx context.Context, attendance Attendance) error

	// CloseIfOpen applies a forced close only if check_out_time is still
	// null, as a single compare-and-swap. Returns false when someone else
	// closed the record first.
	CloseIfOpen(ctx context.Context, id string, close ForcedClose) (bool, error)

	// ListOpenByDate returns all records for the day with a check-in and
	// no check-out.
	ListOpenByDate(ctx context.Context, date time.Time) ([]Attendance, error)

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)
	ListByEmployee(ctx context.Context, employeeID string, filter MyAttendanceFilter) ([]Attendance, int64, error)

	// BulkCreate inserts absence/holiday records produced by the nightly
	// marking job.
	BulkCreate(ctx context.Context, records []Attendance) error

	// Sweep watermark: when the auto-checkout sweep last completed.
	GetSweepWatermark(ctx context.Context, name string) (*time.Time, error)
	SetSweepWatermark(ctx context.Context, name string, sweptAt time.Time) error
}

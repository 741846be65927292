package attendance

import (
	"context"
	"time"
)

// AttendanceService governs the lifecycle of one day's attendance record:
// not-started, checked-in, checked-out, with early/late/overtime
// classification resolved at clock time.
type AttendanceService interface {
	// CheckIn opens the day's record. At most one check-in per employee
	// per calendar day.
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes the open record, classifying early leave or
	// overtime and computing working hours.
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// OvertimeEligibility reports whether a record is past its scheduled
	// check-out and may confirm overtime.
	OvertimeEligibility(ctx context.Context, attendanceID string) (OvertimeEligibilityResponse, error)

	// RunAutoCheckoutSweep force-closes records left open too long and
	// returns the records it closed. Invoked by the cron scheduler.
	RunAutoCheckoutSweep(ctx context.Context, now time.Time) ([]Attendance, error)

	// MarkAbsentees records absent (or holiday) entries for employees
	// with no record for the previous working day. Returns how many were
	// marked.
	MarkAbsentees(ctx context.Context, now time.Time) (int, error)

	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) (ListAttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)
	UpdateAttendance(ctx context.Context, req UpdateAttendanceRequest) (AttendanceResponse, error)
}

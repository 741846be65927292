package response

import (
	"errors"
	"net/http"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/attendance"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/employee"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "Already checked in today")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "Already checked out")
	case errors.Is(err, attendance.ErrNoOpenAttendance):
		BadRequest(w, "No open attendance record to check out", nil)
	case errors.Is(err, attendance.ErrInvalidStateTransition):
		Conflict(w, "Invalid attendance state transition")
	case errors.Is(err, attendance.ErrOvertimeDecided):
		Conflict(w, "Overtime has already been decided for this record")
	case errors.Is(err, attendance.ErrLocationRequired),
		errors.Is(err, attendance.ErrPhotoRequired),
		errors.Is(err, attendance.ErrReasonRequired),
		errors.Is(err, attendance.ErrOvertimeReasonRequired):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Timing domain errors
	case errors.Is(err, timing.ErrPolicyNotFound):
		NotFound(w, "No timing policy found for department")
	case errors.Is(err, timing.ErrOfficeNotFound):
		NotFound(w, "Office location not found")
	case errors.Is(err, timing.ErrInvalidClockWindow):
		BadRequest(w, err.Error(), nil)

	// Payroll domain errors
	case errors.Is(err, payroll.ErrNoActiveSalaryStructure):
		NotFound(w, "No active salary structure for employee")
	case errors.Is(err, payroll.ErrSalaryStructureNotFound):
		NotFound(w, "Salary structure not found")
	case errors.Is(err, payroll.ErrSalaryStructureOverlap):
		Conflict(w, "An active salary structure already covers this period")
	case errors.Is(err, payroll.ErrFuturePeriod),
		errors.Is(err, payroll.ErrInvalidPeriod),
		errors.Is(err, payroll.ErrPresentDaysExceedMonthDays):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrRecordNotFound):
		NotFound(w, "Payroll record not found")
	case errors.Is(err, payroll.ErrRecordAlreadyPaid):
		Conflict(w, "Payroll record already paid")
	case errors.Is(err, payroll.ErrInvalidStatusTransition):
		Conflict(w, "Payroll status may only move forward")
	case errors.Is(err, payroll.ErrSettingsNotFound):
		NotFound(w, "Payroll settings not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}

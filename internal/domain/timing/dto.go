package timing

import (
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/validator"
)

// ========================================
// TIMING POLICY DTOs
// ========================================

type UpsertTimingPolicyRequest struct {
	DepartmentID             string  `json:"department_id"`
	CheckInTime              string  `json:"check_in_time"`
	CheckOutTime             string  `json:"check_out_time"`
	WorkingHoursPerDay       float64 `json:"working_hours_per_day"`
	LateThresholdMinutes     int     `json:"late_threshold_minutes"`
	OvertimeThresholdMinutes int     `json:"overtime_threshold_minutes"`
	WeeklyOffDays            []int   `json:"weekly_off_days"`
	IsFlexibleTiming         bool    `json:"is_flexible_timing"`
	FlexibleWindowMinutes    int     `json:"flexible_window_minutes"`
}

func (r *UpsertTimingPolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DepartmentID) {
		errs = append(errs, validator.ValidationError{
			Field:   "department_id",
			Message: "department_id is required",
		})
	}

	if !validator.IsValidClockTime(r.CheckInTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_in_time",
			Message: "check_in_time must be HH:MM in 24-hour format",
		})
	}

	if !validator.IsValidClockTime(r.CheckOutTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out_time",
			Message: "check_out_time must be HH:MM in 24-hour format",
		})
	}

	if r.WorkingHoursPerDay <= 0 || r.WorkingHoursPerDay > 24 {
		errs = append(errs, validator.ValidationError{
			Field:   "working_hours_per_day",
			Message: "working_hours_per_day must be between 0 and 24",
		})
	}

	if r.LateThresholdMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "late_threshold_minutes",
			Message: "late_threshold_minutes must not be negative",
		})
	}

	if r.OvertimeThresholdMinutes < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_threshold_minutes",
			Message: "overtime_threshold_minutes must not be negative",
		})
	}

	for _, d := range r.WeeklyOffDays {
		if d < 0 || d > 6 {
			errs = append(errs, validator.ValidationError{
				Field:   "weekly_off_days",
				Message: "weekly_off_days entries must be weekday indices 0-6",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	// Equal clock times describe a degenerate 24-hour shift. A check-out
	// earlier than the check-in is fine: it wraps to the next day.
	if r.CheckInTime == r.CheckOutTime {
		return ErrInvalidClockWindow
	}

	return nil
}

type TimingPolicyResponse struct {
	ID                       string  `json:"id"`
	DepartmentID             string  `json:"department_id"`
	CheckInTime              string  `json:"check_in_time"`
	CheckOutTime             string  `json:"check_out_time"`
	WorkingHoursPerDay       float64 `json:"working_hours_per_day"`
	LateThresholdMinutes     int     `json:"late_threshold_minutes"`
	OvertimeThresholdMinutes int     `json:"overtime_threshold_minutes"`
	WeeklyOffDays            []int   `json:"weekly_off_days"`
	IsFlexibleTiming         bool    `json:"is_flexible_timing"`
	FlexibleWindowMinutes    int     `json:"flexible_window_minutes"`
}

// ========================================
// OFFICE LOCATION DTOs
// ========================================

type UpsertOfficeLocationRequest struct {
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (r *UpsertOfficeLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if r.RadiusMeters <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: "radius_meters must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type OfficeLocationResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters"`
	IsActive     bool    `json:"is_active"`
}

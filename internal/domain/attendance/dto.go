package attendance

import (
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/validator"
)

// ========================================
// CLOCK DTOs
// ========================================

// Location is the reported coordinate of a clock event. Presence is
// mandatory on every clock request. Accuracy is advisory: it annotates
// confidence but never rejects a point.
type Location struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

type CheckInRequest struct {
	Location *Location      `json:"location"`
	PhotoURL string         `json:"photo_url"`
	Type     AttendanceType `json:"attendance_type"`
	Reason   *string        `json:"reason,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	if r.Location == nil {
		return ErrLocationRequired
	}

	var errs validator.ValidationErrors

	errs = append(errs, validateLocation(*r.Location)...)

	if validator.IsEmpty(r.PhotoURL) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo_url",
			Message: "proof photo is required",
		})
	}

	switch r.Type {
	case TypeOffice, TypeRemote, TypeFieldWork:
	case "":
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_type",
			Message: "attendance_type is required",
		})
	default:
		errs = append(errs, validator.ValidationError{
			Field:   "attendance_type",
			Message: "attendance_type must be one of office, remote, field_work",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	Location        *Location `json:"location"`
	PhotoURL        string    `json:"photo_url"`
	Reason          *string   `json:"reason,omitempty"`
	ConfirmOvertime bool      `json:"confirm_overtime"`
	OvertimeReason  *string   `json:"overtime_reason,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	if r.Location == nil {
		return ErrLocationRequired
	}

	var errs validator.ValidationErrors

	errs = append(errs, validateLocation(*r.Location)...)

	if validator.IsEmpty(r.PhotoURL) {
		errs = append(errs, validator.ValidationError{
			Field:   "photo_url",
			Message: "proof photo is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateLocation(loc Location) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(loc.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(loc.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	return errs
}

// ========================================
// RESPONSE DTOs
// ========================================

type AttendanceResponse struct {
	ID                 string   `json:"id"`
	EmployeeID         string   `json:"employee_id"`
	EmployeeName       string   `json:"employee_name,omitempty"`
	Date               string   `json:"date"`
	CheckInTime        *string  `json:"check_in_time,omitempty"`
	CheckOutTime       *string  `json:"check_out_time,omitempty"`
	Type               string   `json:"attendance_type"`
	Status             string   `json:"status"`
	IsLate             bool     `json:"is_late"`
	LateMinutes        int      `json:"late_minutes,omitempty"`
	EarlyMinutes       int      `json:"early_minutes,omitempty"`
	EarlyLeaveMinutes  int      `json:"early_leave_minutes,omitempty"`
	WorkingHours       *float64 `json:"working_hours,omitempty"`
	OvertimeRequested  bool     `json:"overtime_requested"`
	OvertimeHours      float64  `json:"overtime_hours"`
	Reason             *string  `json:"reason,omitempty"`
	OvertimeReason     *string  `json:"overtime_reason,omitempty"`
	WithinOfficeRadius *bool    `json:"is_within_office_radius,omitempty"`
	DistanceFromOffice *float64 `json:"distance_from_office,omitempty"`
	NearestOffice      *string  `json:"nearest_office,omitempty"`
	AutoClosed         bool     `json:"auto_closed"`
	CheckInPhotoURL    *string  `json:"check_in_photo_url,omitempty"`
	CheckOutPhotoURL   *string  `json:"check_out_photo_url,omitempty"`
}

type OvertimeEligibilityResponse struct {
	AttendanceID     string `json:"attendance_id"`
	OvertimeEligible bool   `json:"overtime_eligible"`
	// Minutes past the scheduled check-out at evaluation time.
	MinutesPastScheduled int `json:"minutes_past_scheduled"`
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Attendances []AttendanceResponse `json:"attendances"`
}

// ========================================
// FILTER / ADMIN DTOs
// ========================================

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	DateFrom   *string `json:"date_from,omitempty"`
	DateTo     *string `json:"date_to,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

type MyAttendanceFilter struct {
	DateFrom *string `json:"date_from,omitempty"`
	DateTo   *string `json:"date_to,omitempty"`
	Page     int     `json:"page"`
	Limit    int     `json:"limit"`
}

// UpdateAttendanceRequest lets managers correct wrong records. Corrections
// after payroll has consumed the month must be audited externally.
type UpdateAttendanceRequest struct {
	ID           string  `json:"id"`
	CheckInTime  *string `json:"check_in_time,omitempty"`
	CheckOutTime *string `json:"check_out_time,omitempty"`
	Status       *string `json:"status,omitempty"`
	LateMinutes  *int    `json:"late_minutes,omitempty"`
	Reason       *string `json:"reason,omitempty"`
}

func (r *UpdateAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}

	if r.Status != nil {
		valid := []string{
			string(StatusPresent), string(StatusLate), string(StatusAbsent),
			string(StatusLeave), string(StatusHoliday), string(StatusHalfDay),
		}
		if !validator.IsInSlice(*r.Status, valid) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "invalid attendance status",
			})
		}
	}

	if r.CheckInTime != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckInTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in_time",
				Message: "check_in_time must be an ISO8601 timestamp",
			})
		}
	}

	if r.CheckOutTime != nil {
		if _, ok := validator.IsValidDateTime(*r.CheckOutTime); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out_time",
				Message: "check_out_time must be an ISO8601 timestamp",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

package payroll

import (
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// PROCESSING DTOs
// ========================================

type ProcessPayrollRequest struct {
	Month       int      `json:"month"`
	Year        int      `json:"year"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
}

func (r *ProcessPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if !validator.IsValidYear(r.Year) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// EmployeeFailure is one employee's processing failure inside a bulk run.
// Failures never abort the batch; successes are committed regardless.
type EmployeeFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type ProcessPayrollResponse struct {
	Month     int               `json:"month"`
	Year      int               `json:"year"`
	Processed []RecordResponse  `json:"processed"`
	Failures  []EmployeeFailure `json:"failures,omitempty"`
}

// ========================================
// RECORD DTOs
// ========================================

type RecordResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`

	MonthDays     int             `json:"month_days"`
	PresentDays   int             `json:"present_days"`
	PaidLeaveDays int             `json:"paid_leave_days"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`

	PerDaySalary     decimal.Decimal            `json:"per_day_salary"`
	EarnedBasic      decimal.Decimal            `json:"earned_basic"`
	EarnedHRA        decimal.Decimal            `json:"earned_hra"`
	EarnedConveyance decimal.Decimal            `json:"earned_conveyance"`
	CustomEarnings   map[string]decimal.Decimal `json:"custom_earnings,omitempty"`
	OvertimePay      decimal.Decimal            `json:"overtime_pay"`
	GrossSalary      decimal.Decimal            `json:"gross_salary"`

	EPFDeduction     decimal.Decimal            `json:"epf_deduction"`
	ESIDeduction     decimal.Decimal            `json:"esi_deduction"`
	VPTDeduction     decimal.Decimal            `json:"vpt_deduction"`
	CustomDeductions map[string]decimal.Decimal `json:"custom_deductions,omitempty"`

	TotalEarnings   decimal.Decimal `json:"total_earnings"`
	TotalDeductions decimal.Decimal `json:"total_deductions"`
	NetSalary       decimal.Decimal `json:"net_salary"`

	Status string  `json:"status"`
	PaidAt *string `json:"paid_at,omitempty"`
}

type RecordFilter struct {
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
}

type ListRecordResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	Records    []RecordResponse `json:"records"`
}

type TransitionRequest struct {
	RecordIDs []string `json:"record_ids"`
	Status    string   `json:"status"`
}

func (r *TransitionRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.RecordIDs) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "record_ids",
			Message: "record_ids is required",
		})
	}

	valid := []string{string(StatusProcessed), string(StatusApproved), string(StatusPaid)}
	if !validator.IsInSlice(r.Status, valid) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of processed, approved, paid",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// SALARY STRUCTURE DTOs
// ========================================

type UpsertSalaryStructureRequest struct {
	EmployeeID       string                     `json:"employee_id"`
	FixedBasic       decimal.Decimal            `json:"fixed_basic"`
	FixedHRA         decimal.Decimal            `json:"fixed_hra"`
	FixedConveyance  decimal.Decimal            `json:"fixed_conveyance"`
	CustomEarnings   map[string]decimal.Decimal `json:"custom_earnings,omitempty"`
	CustomDeductions map[string]decimal.Decimal `json:"custom_deductions,omitempty"`
	PerDaySalaryBase string                     `json:"per_day_salary_base"`
	OvertimeRate     *decimal.Decimal           `json:"overtime_rate,omitempty"`
	EPFApplicable    bool                       `json:"epf_applicable"`
	ESIApplicable    bool                       `json:"esi_applicable"`
	VPTAmount        decimal.Decimal            `json:"vpt_amount"`
	EffectiveFrom    string                     `json:"effective_from"`
	EffectiveTo      *string                    `json:"effective_to,omitempty"`
}

func (r *UpsertSalaryStructureRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if r.FixedBasic.IsNegative() || r.FixedHRA.IsNegative() || r.FixedConveyance.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "fixed_components",
			Message: "fixed salary components must not be negative",
		})
	}

	base := []string{string(PerDayBaseBasic), string(PerDayBaseBasicHRA), string(PerDayBaseGross)}
	if !validator.IsInSlice(r.PerDaySalaryBase, base) {
		errs = append(errs, validator.ValidationError{
			Field:   "per_day_salary_base",
			Message: "per_day_salary_base must be one of basic, basic_hra, gross",
		})
	}

	if r.OvertimeRate != nil && r.OvertimeRate.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "overtime_rate",
			Message: "overtime_rate must not be negative",
		})
	}

	if _, ok := validator.IsValidDate(r.EffectiveFrom); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "effective_from",
			Message: "effective_from must be YYYY-MM-DD",
		})
	}

	if r.EffectiveTo != nil {
		if _, ok := validator.IsValidDate(*r.EffectiveTo); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "effective_to",
				Message: "effective_to must be YYYY-MM-DD",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SalaryStructureResponse struct {
	ID               string                     `json:"id"`
	EmployeeID       string                     `json:"employee_id"`
	FixedBasic       decimal.Decimal            `json:"fixed_basic"`
	FixedHRA         decimal.Decimal            `json:"fixed_hra"`
	FixedConveyance  decimal.Decimal            `json:"fixed_conveyance"`
	CustomEarnings   map[string]decimal.Decimal `json:"custom_earnings,omitempty"`
	CustomDeductions map[string]decimal.Decimal `json:"custom_deductions,omitempty"`
	PerDaySalaryBase string                     `json:"per_day_salary_base"`
	OvertimeRate     decimal.Decimal            `json:"overtime_rate"`
	EPFApplicable    bool                       `json:"epf_applicable"`
	ESIApplicable    bool                       `json:"esi_applicable"`
	VPTAmount        decimal.Decimal            `json:"vpt_amount"`
	EffectiveFrom    string                     `json:"effective_from"`
	EffectiveTo      *string                    `json:"effective_to,omitempty"`
	IsActive         bool                       `json:"is_active"`
}

// ========================================
// SETTINGS DTOs
// ========================================

type UpdateSettingsRequest struct {
	EPFRate      *decimal.Decimal `json:"epf_rate,omitempty"`
	EPFCeiling   *decimal.Decimal `json:"epf_ceiling,omitempty"`
	ESIRate      *decimal.Decimal `json:"esi_rate,omitempty"`
	ESIThreshold *decimal.Decimal `json:"esi_threshold,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	check := func(field string, v *decimal.Decimal) {
		if v != nil && v.IsNegative() {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: field + " must not be negative",
			})
		}
	}
	check("epf_rate", r.EPFRate)
	check("epf_ceiling", r.EPFCeiling)
	check("esi_rate", r.ESIRate)
	check("esi_threshold", r.ESIThreshold)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SettingsResponse struct {
	EPFRate      decimal.Decimal `json:"epf_rate"`
	EPFCeiling   decimal.Decimal `json:"epf_ceiling"`
	ESIRate      decimal.Decimal `json:"esi_rate"`
	ESIThreshold decimal.Decimal `json:"esi_threshold"`
}

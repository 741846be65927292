package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PerDayBase selects which salary components are divided by days-in-month
// to derive the daily rate.
type PerDayBase string

const (
	PerDayBaseBasic    PerDayBase = "basic"
	PerDayBaseBasicHRA PerDayBase = "basic_hra"
	PerDayBaseGross    PerDayBase = "gross"
)

// SalaryStructure is the fixed salary definition for one employee. At most
// one structure is active for an employee on any given date.
type SalaryStructure struct {
	ID         string
	EmployeeID string

	FixedBasic      decimal.Decimal
	FixedHRA        decimal.Decimal
	FixedConveyance decimal.Decimal

	CustomEarnings   map[string]decimal.Decimal
	CustomDeductions map[string]decimal.Decimal

	PerDaySalaryBase PerDayBase
	OvertimeRate     decimal.Decimal // multiplier over the hourly rate

	EPFApplicable bool
	ESIApplicable bool
	VPTAmount     decimal.Decimal

	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	IsActive      bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveOn reports whether the structure applies on the given date:
// is_active and date within [effective_from, effective_to).
func (s SalaryStructure) ActiveOn(date time.Time) bool {
	if !s.IsActive {
		return false
	}
	if date.Before(s.EffectiveFrom) {
		return false
	}
	if s.EffectiveTo != nil && !date.Before(*s.EffectiveTo) {
		return false
	}
	return true
}

// FixedGross is the sum of every fixed and custom earning component.
func (s SalaryStructure) FixedGross() decimal.Decimal {
	gross := s.FixedBasic.Add(s.FixedHRA).Add(s.FixedConveyance)
	for _, amount := range s.CustomEarnings {
		gross = gross.Add(amount)
	}
	return gross
}

// Settings holds the statutory deduction configuration. Two divergent rate
// sets existed historically; rates are stored data with config-seeded
// defaults so the authoritative set is whatever administrators last saved.
type Settings struct {
	ID           string
	EPFRate      decimal.Decimal
	EPFCeiling   decimal.Decimal
	ESIRate      decimal.Decimal
	ESIThreshold decimal.Decimal
	UpdatedAt    time.Time
}

// Status enum, forward-only.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusProcessed Status = "processed"
	StatusApproved  Status = "approved"
	StatusPaid      Status = "paid"
)

func (s Status) rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusProcessed:
		return 1
	case StatusApproved:
		return 2
	case StatusPaid:
		return 3
	}
	return -1
}

// CanTransitionTo reports whether moving to next respects the forward-only
// lifecycle draft -> processed -> approved -> paid.
func (s Status) CanTransitionTo(next Status) bool {
	return s.rank() >= 0 && next.rank() > s.rank()
}

// Record is the computed payroll result for one employee and one
// (month, year) period.
type Record struct {
	ID         string
	EmployeeID string
	Month      int
	Year       int

	// Attendance-derived inputs
	MonthDays     int
	PresentDays   int
	PaidLeaveDays int
	OvertimeHours decimal.Decimal

	// Computed earnings
	PerDaySalary     decimal.Decimal
	EarnedBasic      decimal.Decimal
	EarnedHRA        decimal.Decimal
	EarnedConveyance decimal.Decimal
	CustomEarnings   map[string]decimal.Decimal
	OvertimePay      decimal.Decimal
	GrossSalary      decimal.Decimal

	// Computed deductions
	EPFDeduction     decimal.Decimal
	ESIDeduction     decimal.Decimal
	VPTDeduction     decimal.Decimal
	CustomDeductions map[string]decimal.Decimal

	TotalEarnings   decimal.Decimal
	TotalDeductions decimal.Decimal
	NetSalary       decimal.Decimal

	Status Status
	PaidAt *time.Time
	PaidBy *string

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
}

// AttendanceSummary is the per-employee monthly aggregate consumed by the
// payroll calculator.
type AttendanceSummary struct {
	EmployeeID      string
	MonthDays       int
	PresentDays     int
	PaidLeaveDays   int
	OvertimeMinutes int
}

// OvertimeHours converts aggregated overtime minutes to decimal hours.
func (s AttendanceSummary) OvertimeHours() decimal.Decimal {
	return decimal.NewFromInt(int64(s.OvertimeMinutes)).Div(decimal.NewFromInt(60))
}

package payroll

import "errors"

var (
	ErrNoActiveSalaryStructure    = errors.New("no active salary structure for employee")
	ErrSalaryStructureNotFound    = errors.New("salary structure not found")
	ErrSalaryStructureOverlap     = errors.New("an active salary structure already covers this period")
	ErrFuturePeriod               = errors.New("payroll period lies in the future")
	ErrPresentDaysExceedMonthDays = errors.New("present days exceed days in month")
	ErrNegativeNetSalary          = errors.New("computed net salary is negative")
	ErrRecordNotFound             = errors.New("payroll record not found")
	ErrRecordAlreadyPaid          = errors.New("payroll record already paid, cannot modify")
	ErrInvalidStatusTransition    = errors.New("payroll status may only move forward")
	ErrInvalidPeriod              = errors.New("invalid payroll period")
	ErrSettingsNotFound           = errors.New("payroll settings not found")
)

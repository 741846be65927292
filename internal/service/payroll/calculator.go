package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
)

// Calculator turns one employee's salary structure plus the month's
// attendance aggregate into a computed payroll record. It is pure: no
// repository access, no clock reads. Every monetary component is rounded
// to the whole currency unit as it is computed, so the stored record's
// totals always equal the sum of its stored components.
type Calculator struct {
	Settings            payroll.Settings
	StandardDailyHours  decimal.Decimal
	DefaultOvertimeRate decimal.Decimal
}

// Calculate computes the record for one employee. Paid leave days count as
// payable alongside present days. A negative net salary is returned as a
// valid record together with ErrNegativeNetSalary so the caller can commit
// it and surface the condition.
func (c Calculator) Calculate(structure payroll.SalaryStructure, summary payroll.AttendanceSummary) (payroll.Record, error) {
	if summary.MonthDays <= 0 {
		return payroll.Record{}, payroll.ErrInvalidPeriod
	}
	if summary.PresentDays > summary.MonthDays {
		return payroll.Record{}, payroll.ErrPresentDaysExceedMonthDays
	}

	monthDays := decimal.NewFromInt(int64(summary.MonthDays))

	payable := summary.PresentDays + summary.PaidLeaveDays
	if payable > summary.MonthDays {
		payable = summary.MonthDays
	}
	payableDays := decimal.NewFromInt(int64(payable))

	var base decimal.Decimal
	switch structure.PerDaySalaryBase {
	case payroll.PerDayBaseBasic:
		base = structure.FixedBasic
	case payroll.PerDayBaseBasicHRA:
		base = structure.FixedBasic.Add(structure.FixedHRA)
	default:
		base = structure.FixedGross()
	}
	perDay := base.Div(monthDays)

	// Each fixed component is prorated and rounded independently.
	earnedBasic := structure.FixedBasic.Div(monthDays).Mul(payableDays).Round(0)
	earnedHRA := structure.FixedHRA.Div(monthDays).Mul(payableDays).Round(0)
	earnedConveyance := structure.FixedConveyance.Div(monthDays).Mul(payableDays).Round(0)

	customEarnings := make(map[string]decimal.Decimal, len(structure.CustomEarnings))
	customEarningsTotal := decimal.Zero
	for name, amount := range structure.CustomEarnings {
		rounded := amount.Round(0)
		customEarnings[name] = rounded
		customEarningsTotal = customEarningsTotal.Add(rounded)
	}

	overtimeRate := structure.OvertimeRate
	if overtimeRate.IsZero() {
		overtimeRate = c.DefaultOvertimeRate
	}
	overtimeHours := summary.OvertimeHours()
	hourlyRate := decimal.Zero
	if c.StandardDailyHours.IsPositive() {
		hourlyRate = perDay.Div(c.StandardDailyHours)
	}
	overtimePay := overtimeHours.Mul(hourlyRate).Mul(overtimeRate).Round(0)

	gross := earnedBasic.Add(earnedHRA).Add(earnedConveyance).
		Add(customEarningsTotal).Add(overtimePay)

	epf := decimal.Zero
	if structure.EPFApplicable {
		epf = earnedBasic.Mul(c.Settings.EPFRate).Round(0)
		if epf.GreaterThan(c.Settings.EPFCeiling) {
			epf = c.Settings.EPFCeiling
		}
	}

	esi := decimal.Zero
	if structure.ESIApplicable && gross.LessThanOrEqual(c.Settings.ESIThreshold) {
		esi = gross.Mul(c.Settings.ESIRate).Round(0)
	}

	vpt := structure.VPTAmount.Round(0)

	customDeductions := make(map[string]decimal.Decimal, len(structure.CustomDeductions))
	customDeductionsTotal := decimal.Zero
	for name, amount := range structure.CustomDeductions {
		// Sign-aware: negative entries are credit adjustments.
		rounded := amount.Round(0)
		customDeductions[name] = rounded
		customDeductionsTotal = customDeductionsTotal.Add(rounded)
	}

	totalDeductions := epf.Add(esi).Add(vpt).Add(customDeductionsTotal)
	net := gross.Sub(totalDeductions)

	record := payroll.Record{
		EmployeeID:    structure.EmployeeID,
		MonthDays:     summary.MonthDays,
		PresentDays:   summary.PresentDays,
		PaidLeaveDays: summary.PaidLeaveDays,
		OvertimeHours: overtimeHours.Round(2),

		PerDaySalary:     perDay.Round(2),
		EarnedBasic:      earnedBasic,
		EarnedHRA:        earnedHRA,
		EarnedConveyance: earnedConveyance,
		CustomEarnings:   customEarnings,
		OvertimePay:      overtimePay,
		GrossSalary:      gross,

		EPFDeduction:     epf,
		ESIDeduction:     esi,
		VPTDeduction:     vpt,
		CustomDeductions: customDeductions,

		TotalEarnings:   gross,
		TotalDeductions: totalDeductions,
		NetSalary:       net,

		Status: payroll.StatusProcessed,
	}

	if net.IsNegative() {
		return record, payroll.ErrNegativeNetSalary
	}

	return record, nil
}

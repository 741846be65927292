package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func testCalculator() Calculator {
	return Calculator{
		Settings: payroll.Settings{
			EPFRate:      dec("0.12"),
			EPFCeiling:   dec("1800"),
			ESIRate:      dec("0.0075"),
			ESIThreshold: dec("21000"),
		},
		StandardDailyHours:  dec("8"),
		DefaultOvertimeRate: dec("1.5"),
	}
}

func testStructure() payroll.SalaryStructure {
	return payroll.SalaryStructure{
		EmployeeID:       "emp-1",
		FixedBasic:       dec("15000"),
		FixedHRA:         dec("7500"),
		FixedConveyance:  dec("1600"),
		PerDaySalaryBase: payroll.PerDayBaseBasic,
		OvertimeRate:     dec("1.5"),
		EPFApplicable:    true,
		ESIApplicable:    false,
	}
}

func fullMonth() payroll.AttendanceSummary {
	return payroll.AttendanceSummary{
		EmployeeID:  "emp-1",
		MonthDays:   30,
		PresentDays: 30,
	}
}

func TestCalculate_FullMonth(t *testing.T) {
	rec, err := testCalculator().Calculate(testStructure(), fullMonth())
	require.NoError(t, err)

	assert.True(t, rec.EarnedBasic.Equal(dec("15000")), "earned basic: %s", rec.EarnedBasic)
	assert.True(t, rec.EarnedHRA.Equal(dec("7500")), "earned hra: %s", rec.EarnedHRA)
	assert.True(t, rec.EarnedConveyance.Equal(dec("1600")), "earned conveyance: %s", rec.EarnedConveyance)
	assert.True(t, rec.PerDaySalary.Equal(dec("500")), "per day: %s", rec.PerDaySalary)
	assert.True(t, rec.EPFDeduction.Equal(dec("1800")), "epf: %s", rec.EPFDeduction)
	assert.True(t, rec.GrossSalary.Equal(dec("24100")), "gross: %s", rec.GrossSalary)
	assert.True(t, rec.NetSalary.Equal(dec("22300")), "net: %s", rec.NetSalary)
	assert.Equal(t, payroll.StatusProcessed, rec.Status)
}

func TestCalculate_EPFCappedAtCeiling(t *testing.T) {
	// 15000 * 0.12 = 1800 exactly at the ceiling; double the basic and the
	// deduction must stay capped.
	structure := testStructure()
	structure.FixedBasic = dec("30000")

	rec, err := testCalculator().Calculate(structure, fullMonth())
	require.NoError(t, err)

	assert.True(t, rec.EPFDeduction.Equal(dec("1800")), "epf: %s", rec.EPFDeduction)
}

func TestCalculate_ESIOnlyUnderThreshold(t *testing.T) {
	structure := testStructure()
	structure.EPFApplicable = false
	structure.ESIApplicable = true
	structure.FixedBasic = dec("10000")
	structure.FixedHRA = dec("5000")
	structure.FixedConveyance = dec("0")

	rec, err := testCalculator().Calculate(structure, fullMonth())
	require.NoError(t, err)

	// gross 15000 <= 21000: ESI applies. 15000 * 0.0075 = 112.5 -> 113.
	assert.True(t, rec.ESIDeduction.Equal(dec("113")), "esi: %s", rec.ESIDeduction)

	structure.FixedBasic = dec("25000")
	rec, err = testCalculator().Calculate(structure, fullMonth())
	require.NoError(t, err)

	// gross 30000 > 21000: no ESI at all, not a capped amount.
	assert.True(t, rec.ESIDeduction.IsZero(), "esi: %s", rec.ESIDeduction)
}

func TestCalculate_ProratedByPayableDays(t *testing.T) {
	summary := fullMonth()
	summary.PresentDays = 18
	summary.PaidLeaveDays = 2

	rec, err := testCalculator().Calculate(testStructure(), summary)
	require.NoError(t, err)

	// 20 payable days of 30: two thirds of each fixed component.
	assert.True(t, rec.EarnedBasic.Equal(dec("10000")), "earned basic: %s", rec.EarnedBasic)
	assert.True(t, rec.EarnedHRA.Equal(dec("5000")), "earned hra: %s", rec.EarnedHRA)
	assert.True(t, rec.EarnedConveyance.Equal(dec("1067")), "earned conveyance: %s", rec.EarnedConveyance)
}

func TestCalculate_ComponentsRoundedIndependently(t *testing.T) {
	// 10000/30*17 = 5666.67 and 7000/30*17 = 3966.67: each rounds up on
	// its own, so the gross carries both roundings.
	structure := testStructure()
	structure.FixedBasic = dec("10000")
	structure.FixedHRA = dec("7000")
	structure.FixedConveyance = dec("0")
	structure.EPFApplicable = false

	summary := fullMonth()
	summary.PresentDays = 17

	rec, err := testCalculator().Calculate(structure, summary)
	require.NoError(t, err)

	assert.True(t, rec.EarnedBasic.Equal(dec("5667")), "earned basic: %s", rec.EarnedBasic)
	assert.True(t, rec.EarnedHRA.Equal(dec("3967")), "earned hra: %s", rec.EarnedHRA)
	assert.True(t, rec.GrossSalary.Equal(dec("9634")), "gross: %s", rec.GrossSalary)
}

func TestCalculate_OvertimePay(t *testing.T) {
	summary := fullMonth()
	summary.OvertimeMinutes = 600 // 10 hours

	rec, err := testCalculator().Calculate(testStructure(), summary)
	require.NoError(t, err)

	// per day 500, hourly 62.5, x1.5 rate, x10h = 937.5 -> 938.
	assert.True(t, rec.OvertimePay.Equal(dec("938")), "overtime pay: %s", rec.OvertimePay)
	assert.True(t, rec.OvertimeHours.Equal(dec("10")), "overtime hours: %s", rec.OvertimeHours)
}

func TestCalculate_DefaultOvertimeRate(t *testing.T) {
	structure := testStructure()
	structure.OvertimeRate = decimal.Zero

	summary := fullMonth()
	summary.OvertimeMinutes = 480

	rec, err := testCalculator().Calculate(structure, summary)
	require.NoError(t, err)

	// Falls back to the configured 1.5 multiplier: 62.5 * 1.5 * 8 = 750.
	assert.True(t, rec.OvertimePay.Equal(dec("750")), "overtime pay: %s", rec.OvertimePay)
}

func TestCalculate_NetIsExactlyEarningsMinusDeductions(t *testing.T) {
	structure := testStructure()
	structure.ESIApplicable = true
	structure.VPTAmount = dec("200")
	structure.CustomEarnings = map[string]decimal.Decimal{"shift_allowance": dec("1250.4")}
	structure.CustomDeductions = map[string]decimal.Decimal{
		"advance": dec("500"),
		"credit":  dec("-150"), // sign-aware adjustment
	}

	for _, present := range []int{5, 12, 21, 30} {
		summary := fullMonth()
		summary.PresentDays = present

		rec, err := testCalculator().Calculate(structure, summary)
		require.NoError(t, err)

		assert.True(t, rec.NetSalary.Equal(rec.TotalEarnings.Sub(rec.TotalDeductions)),
			"presentDays=%d: net %s != %s - %s", present, rec.NetSalary, rec.TotalEarnings, rec.TotalDeductions)
	}
}

func TestCalculate_NegativeNetIsFlaggedNotClamped(t *testing.T) {
	structure := testStructure()
	structure.EPFApplicable = false
	structure.CustomDeductions = map[string]decimal.Decimal{"advance": dec("50000")}

	rec, err := testCalculator().Calculate(structure, fullMonth())
	assert.ErrorIs(t, err, payroll.ErrNegativeNetSalary)
	assert.True(t, rec.NetSalary.IsNegative())
	assert.True(t, rec.NetSalary.Equal(rec.TotalEarnings.Sub(rec.TotalDeductions)))
}

func TestCalculate_RejectsImpossibleInputs(t *testing.T) {
	summary := fullMonth()
	summary.PresentDays = 31

	_, err := testCalculator().Calculate(testStructure(), summary)
	assert.ErrorIs(t, err, payroll.ErrPresentDaysExceedMonthDays)

	summary = fullMonth()
	summary.MonthDays = 0
	_, err = testCalculator().Calculate(testStructure(), summary)
	assert.ErrorIs(t, err, payroll.ErrInvalidPeriod)
}

func TestCalculate_PerDayBaseSelection(t *testing.T) {
	structure := testStructure()
	structure.CustomEarnings = map[string]decimal.Decimal{"shift_allowance": dec("900")}

	tests := []struct {
		base payroll.PerDayBase
		want string
	}{
		{payroll.PerDayBaseBasic, "500"},    // 15000/30
		{payroll.PerDayBaseBasicHRA, "750"}, // 22500/30
		{payroll.PerDayBaseGross, "833.33"}, // 25000/30
	}

	for _, tt := range tests {
		t.Run(string(tt.base), func(t *testing.T) {
			structure.PerDaySalaryBase = tt.base

			rec, err := testCalculator().Calculate(structure, fullMonth())
			require.NoError(t, err)

			assert.True(t, rec.PerDaySalary.Equal(dec(tt.want)), "per day: %s", rec.PerDaySalary)
		})
	}
}

package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
)

var registerHeaders = []string{
	"Employee ID", "Employee Name", "Month Days", "Present Days", "Paid Leave Days",
	"Overtime Hours", "Earned Basic", "Earned HRA", "Earned Conveyance",
	"Overtime Pay", "Gross Salary", "EPF", "ESI", "VPT",
	"Total Earnings", "Total Deductions", "Net Salary", "Status",
}

// PayrollRegister renders the month's payroll records as an xlsx workbook
// with one row per employee.
func PayrollRegister(month, year int, records []payroll.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := fmt.Sprintf("Payroll %s %d", time.Month(month).String(), year)
	f.SetSheetName("Sheet1", sheet)

	for i, header := range registerHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for rowIdx, rec := range records {
		name := ""
		if rec.EmployeeName != nil {
			name = *rec.EmployeeName
		}

		values := []interface{}{
			rec.EmployeeID, name, rec.MonthDays, rec.PresentDays, rec.PaidLeaveDays,
			rec.OvertimeHours.InexactFloat64(),
			rec.EarnedBasic.InexactFloat64(),
			rec.EarnedHRA.InexactFloat64(),
			rec.EarnedConveyance.InexactFloat64(),
			rec.OvertimePay.InexactFloat64(),
			rec.GrossSalary.InexactFloat64(),
			rec.EPFDeduction.InexactFloat64(),
			rec.ESIDeduction.InexactFloat64(),
			rec.VPTDeduction.InexactFloat64(),
			rec.TotalEarnings.InexactFloat64(),
			rec.TotalDeductions.InexactFloat64(),
			rec.NetSalary.InexactFloat64(),
			string(rec.Status),
		}

		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", rowIdx+2, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

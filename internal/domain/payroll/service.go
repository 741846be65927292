package payroll

import "context"

// PayrollService converts monthly attendance aggregates plus salary
// structures into payroll records.
type PayrollService interface {
	// ProcessPayroll runs the calculation for every eligible employee in
	// the period. Per-employee failures are collected, not fatal.
	ProcessPayroll(ctx context.Context, req ProcessPayrollRequest) (ProcessPayrollResponse, error)

	GetPayroll(ctx context.Context, filter RecordFilter) (ListRecordResponse, error)
	GetRecord(ctx context.Context, id string) (RecordResponse, error)

	// Transition moves records forward through draft -> processed ->
	// approved -> paid.
	Transition(ctx context.Context, req TransitionRequest) error

	// ExportPayroll renders the period's payroll register as an xlsx
	// workbook.
	ExportPayroll(ctx context.Context, month, year int) ([]byte, error)

	// Salary structures
	UpsertSalaryStructure(ctx context.Context, req UpsertSalaryStructureRequest) (SalaryStructureResponse, error)
	ListSalaryStructures(ctx context.Context, employeeID string) ([]SalaryStructureResponse, error)

	// Settings
	GetSettings(ctx context.Context) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsResponse, error)
}

package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access for salary structures, settings
// and computed payroll records.
type PayrollRepository interface {
	// Settings
	GetSettings(ctx context.Context) (Settings, error)
	UpsertSettings(ctx context.Context, settings Settings) (Settings, error)

	// Salary structures
	CreateSalaryStructure(ctx context.Context, structure SalaryStructure) (SalaryStructure, error)
	UpdateSalaryStructure(ctx context.Context, structure SalaryStructure) error
	GetSalaryStructureByID(ctx context.Context, id string) (SalaryStructure, error)
	// GetActiveSalaryStructure returns the structure active on the given
	// date, or ErrNoActiveSalaryStructure.
	GetActiveSalaryStructure(ctx context.Context, employeeID string, on time.Time) (SalaryStructure, error)
	ListSalaryStructures(ctx context.Context, employeeID string) ([]SalaryStructure, error)
	// DeactivateSalaryStructures closes any structure active on the date
	// so a replacement can take effect without overlap.
	DeactivateSalaryStructures(ctx context.Context, employeeID string, on time.Time) error

	// Records
	CreateRecord(ctx context.Context, record Record) (Record, error)
	UpdateRecord(ctx context.Context, record Record) error
	GetRecordByID(ctx context.Context, id string) (Record, error)
	// GetRecordByEmployeePeriod returns ErrRecordNotFound when absent.
	GetRecordByEmployeePeriod(ctx context.Context, employeeID string, month, year int) (Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, int64, error)
	// TransitionRecords advances records to the given status, stamping
	// paid_at/paid_by when the target is paid.
	TransitionRecords(ctx context.Context, ids []string, status Status, actorID string, at time.Time) error

	// MonthlyAttendanceSummary aggregates the month's attendance records
	// into payroll inputs, one summary per employee.
	MonthlyAttendanceSummary(ctx context.Context, month, year int, employeeIDs []string) ([]AttendanceSummary, error)
}

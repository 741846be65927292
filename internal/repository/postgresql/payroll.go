package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/database"
)

type payrollRepository struct {
	db *database.DB
	// Attendance dates are stored as local midnights, so month windows
	// must be built in the same location the services run in.
	loc *time.Location
}

func NewPayrollRepository(db *database.DB, loc *time.Location) payroll.PayrollRepository {
	if loc == nil {
		loc = time.Local
	}
	return &payrollRepository{db: db, loc: loc}
}

// monthWindow returns the half-open [from, to) range covering the given
// month at local midnight, plus the number of calendar days in it.
func monthWindow(month, year int, loc *time.Location) (time.Time, time.Time, int) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)
	return from, to, to.AddDate(0, 0, -1).Day()
}

// Custom earning/deduction maps are stored as jsonb.
func marshalComponents(m map[string]decimal.Decimal) ([]byte, error) {
	if m == nil {
		m = map[string]decimal.Decimal{}
	}
	return json.Marshal(m)
}

func unmarshalComponents(raw []byte) (map[string]decimal.Decimal, error) {
	m := map[string]decimal.Decimal{}
	if len(raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ========================================
// SETTINGS
// ========================================

// GetSettings implements payroll.PayrollRepository. A single row holds the
// statutory configuration.
func (r *payrollRepository) GetSettings(ctx context.Context) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, epf_rate, epf_ceiling, esi_rate, esi_threshold, updated_at
		FROM payroll_settings
		LIMIT 1
	`

	var s payroll.Settings
	err := q.QueryRow(ctx, query).Scan(
		&s.ID, &s.EPFRate, &s.EPFCeiling, &s.ESIRate, &s.ESIThreshold, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Settings{}, payroll.ErrSettingsNotFound
		}
		return payroll.Settings{}, fmt.Errorf("failed to get payroll settings: %w", err)
	}

	return s, nil
}

// UpsertSettings implements payroll.PayrollRepository.
func (r *payrollRepository) UpsertSettings(ctx context.Context, settings payroll.Settings) (payroll.Settings, error) {
	q := GetQuerier(ctx, r.db)

	if settings.ID == "" {
		settings.ID = "default"
	}

	query := `
		INSERT INTO payroll_settings (id, epf_rate, epf_ceiling, esi_rate, esi_threshold)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			epf_rate = EXCLUDED.epf_rate,
			epf_ceiling = EXCLUDED.epf_ceiling,
			esi_rate = EXCLUDED.esi_rate,
			esi_threshold = EXCLUDED.esi_threshold,
			updated_at = NOW()
		RETURNING updated_at
	`

	err := q.QueryRow(ctx, query,
		settings.ID, settings.EPFRate, settings.EPFCeiling, settings.ESIRate, settings.ESIThreshold,
	).Scan(&settings.UpdatedAt)
	if err != nil {
		return payroll.Settings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}

	return settings, nil
}

// ========================================
// SALARY STRUCTURES
// ========================================

const structureColumns = `
	id, employee_id, fixed_basic, fixed_hra, fixed_conveyance,
	custom_earnings, custom_deductions, per_day_salary_base, overtime_rate,
	epf_applicable, esi_applicable, vpt_amount,
	effective_from, effective_to, is_active, created_at, updated_at`

func scanStructure(row pgx.Row) (payroll.SalaryStructure, error) {
	var s payroll.SalaryStructure
	var rawEarnings, rawDeductions []byte

	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.FixedBasic, &s.FixedHRA, &s.FixedConveyance,
		&rawEarnings, &rawDeductions, &s.PerDaySalaryBase, &s.OvertimeRate,
		&s.EPFApplicable, &s.ESIApplicable, &s.VPTAmount,
		&s.EffectiveFrom, &s.EffectiveTo, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return payroll.SalaryStructure{}, err
	}

	if s.CustomEarnings, err = unmarshalComponents(rawEarnings); err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("decode custom earnings: %w", err)
	}
	if s.CustomDeductions, err = unmarshalComponents(rawDeductions); err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("decode custom deductions: %w", err)
	}

	return s, nil
}

// CreateSalaryStructure implements payroll.PayrollRepository.
func (r *payrollRepository) CreateSalaryStructure(ctx context.Context, structure payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	earnings, err := marshalComponents(structure.CustomEarnings)
	if err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("encode custom earnings: %w", err)
	}
	deductions, err := marshalComponents(structure.CustomDeductions)
	if err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("encode custom deductions: %w", err)
	}

	query := `
		INSERT INTO salary_structures (
			id, employee_id, fixed_basic, fixed_hra, fixed_conveyance,
			custom_earnings, custom_deductions, per_day_salary_base, overtime_rate,
			epf_applicable, esi_applicable, vpt_amount,
			effective_from, effective_to, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		structure.ID, structure.EmployeeID,
		structure.FixedBasic, structure.FixedHRA, structure.FixedConveyance,
		earnings, deductions, structure.PerDaySalaryBase, structure.OvertimeRate,
		structure.EPFApplicable, structure.ESIApplicable, structure.VPTAmount,
		structure.EffectiveFrom, structure.EffectiveTo, structure.IsActive,
	).Scan(&structure.CreatedAt, &structure.UpdatedAt)
	if err != nil {
		return payroll.SalaryStructure{}, fmt.Errorf("failed to create salary structure: %w", err)
	}

	return structure, nil
}

// UpdateSalaryStructure implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateSalaryStructure(ctx context.Context, structure payroll.SalaryStructure) error {
	q := GetQuerier(ctx, r.db)

	earnings, err := marshalComponents(structure.CustomEarnings)
	if err != nil {
		return fmt.Errorf("encode custom earnings: %w", err)
	}
	deductions, err := marshalComponents(structure.CustomDeductions)
	if err != nil {
		return fmt.Errorf("encode custom deductions: %w", err)
	}

	query := `
		UPDATE salary_structures SET
			fixed_basic = $2, fixed_hra = $3, fixed_conveyance = $4,
			custom_earnings = $5, custom_deductions = $6,
			per_day_salary_base = $7, overtime_rate = $8,
			epf_applicable = $9, esi_applicable = $10, vpt_amount = $11,
			effective_from = $12, effective_to = $13, is_active = $14,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		structure.ID,
		structure.FixedBasic, structure.FixedHRA, structure.FixedConveyance,
		earnings, deductions,
		structure.PerDaySalaryBase, structure.OvertimeRate,
		structure.EPFApplicable, structure.ESIApplicable, structure.VPTAmount,
		structure.EffectiveFrom, structure.EffectiveTo, structure.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update salary structure: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrSalaryStructureNotFound
	}

	return nil
}

// GetSalaryStructureByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetSalaryStructureByID(ctx context.Context, id string) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + structureColumns + ` FROM salary_structures WHERE id = $1`

	s, err := scanStructure(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get salary structure: %w", err)
	}

	return s, nil
}

// GetActiveSalaryStructure implements payroll.PayrollRepository.
func (r *payrollRepository) GetActiveSalaryStructure(ctx context.Context, employeeID string, on time.Time) (payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE employee_id = $1
		  AND is_active
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to > $2)
		ORDER BY effective_from DESC
		LIMIT 1
	`

	s, err := scanStructure(q.QueryRow(ctx, query, employeeID, on))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.SalaryStructure{}, payroll.ErrNoActiveSalaryStructure
		}
		return payroll.SalaryStructure{}, fmt.Errorf("failed to get active salary structure: %w", err)
	}

	return s, nil
}

// ListSalaryStructures implements payroll.PayrollRepository.
func (r *payrollRepository) ListSalaryStructures(ctx context.Context, employeeID string) ([]payroll.SalaryStructure, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + structureColumns + `
		FROM salary_structures
		WHERE employee_id = $1
		ORDER BY effective_from DESC
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}
	defer rows.Close()

	var out []payroll.SalaryStructure
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary structure: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// DeactivateSalaryStructures implements payroll.PayrollRepository.
func (r *payrollRepository) DeactivateSalaryStructures(ctx context.Context, employeeID string, on time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salary_structures SET
			is_active = FALSE,
			effective_to = $2,
			updated_at = NOW()
		WHERE employee_id = $1
		  AND is_active
		  AND effective_from <= $2
		  AND (effective_to IS NULL OR effective_to > $2)
	`

	if _, err := q.Exec(ctx, query, employeeID, on); err != nil {
		return fmt.Errorf("failed to deactivate salary structures: %w", err)
	}
	return nil
}

// ========================================
// RECORDS
// ========================================

const recordColumns = `
	p.id, p.employee_id, p.month, p.year,
	p.month_days, p.present_days, p.paid_leave_days, p.overtime_hours,
	p.per_day_salary, p.earned_basic, p.earned_hra, p.earned_conveyance,
	p.custom_earnings, p.overtime_pay, p.gross_salary,
	p.epf_deduction, p.esi_deduction, p.vpt_deduction, p.custom_deductions,
	p.total_earnings, p.total_deductions, p.net_salary,
	p.status, p.paid_at, p.paid_by, p.created_at, p.updated_at,
	e.full_name`

func scanRecord(row pgx.Row) (payroll.Record, error) {
	var rec payroll.Record
	var rawEarnings, rawDeductions []byte

	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Month, &rec.Year,
		&rec.MonthDays, &rec.PresentDays, &rec.PaidLeaveDays, &rec.OvertimeHours,
		&rec.PerDaySalary, &rec.EarnedBasic, &rec.EarnedHRA, &rec.EarnedConveyance,
		&rawEarnings, &rec.OvertimePay, &rec.GrossSalary,
		&rec.EPFDeduction, &rec.ESIDeduction, &rec.VPTDeduction, &rawDeductions,
		&rec.TotalEarnings, &rec.TotalDeductions, &rec.NetSalary,
		&rec.Status, &rec.PaidAt, &rec.PaidBy, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.EmployeeName,
	)
	if err != nil {
		return payroll.Record{}, err
	}

	if rec.CustomEarnings, err = unmarshalComponents(rawEarnings); err != nil {
		return payroll.Record{}, fmt.Errorf("decode custom earnings: %w", err)
	}
	if rec.CustomDeductions, err = unmarshalComponents(rawDeductions); err != nil {
		return payroll.Record{}, fmt.Errorf("decode custom deductions: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) writeRecord(ctx context.Context, record payroll.Record, insert bool) error {
	q := GetQuerier(ctx, r.db)

	earnings, err := marshalComponents(record.CustomEarnings)
	if err != nil {
		return fmt.Errorf("encode custom earnings: %w", err)
	}
	deductions, err := marshalComponents(record.CustomDeductions)
	if err != nil {
		return fmt.Errorf("encode custom deductions: %w", err)
	}

	args := []interface{}{
		record.ID, record.EmployeeID, record.Month, record.Year,
		record.MonthDays, record.PresentDays, record.PaidLeaveDays, record.OvertimeHours,
		record.PerDaySalary, record.EarnedBasic, record.EarnedHRA, record.EarnedConveyance,
		earnings, record.OvertimePay, record.GrossSalary,
		record.EPFDeduction, record.ESIDeduction, record.VPTDeduction, deductions,
		record.TotalEarnings, record.TotalDeductions, record.NetSalary,
		record.Status,
	}

	if insert {
		query := `
			INSERT INTO payroll_records (
				id, employee_id, month, year,
				month_days, present_days, paid_leave_days, overtime_hours,
				per_day_salary, earned_basic, earned_hra, earned_conveyance,
				custom_earnings, overtime_pay, gross_salary,
				epf_deduction, esi_deduction, vpt_deduction, custom_deductions,
				total_earnings, total_deductions, net_salary, status
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
			)
		`
		if _, err := q.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to create payroll record: %w", err)
		}
		return nil
	}

	query := `
		UPDATE payroll_records SET
			month_days = $5, present_days = $6, paid_leave_days = $7, overtime_hours = $8,
			per_day_salary = $9, earned_basic = $10, earned_hra = $11, earned_conveyance = $12,
			custom_earnings = $13, overtime_pay = $14, gross_salary = $15,
			epf_deduction = $16, esi_deduction = $17, vpt_deduction = $18, custom_deductions = $19,
			total_earnings = $20, total_deductions = $21, net_salary = $22, status = $23,
			updated_at = NOW()
		WHERE id = $1 AND employee_id = $2 AND month = $3 AND year = $4
	`
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payroll record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrRecordNotFound
	}
	return nil
}

// CreateRecord implements payroll.PayrollRepository.
func (r *payrollRepository) CreateRecord(ctx context.Context, record payroll.Record) (payroll.Record, error) {
	if err := r.writeRecord(ctx, record, true); err != nil {
		return payroll.Record{}, err
	}
	return record, nil
}

// UpdateRecord implements payroll.PayrollRepository.
func (r *payrollRepository) UpdateRecord(ctx context.Context, record payroll.Record) error {
	return r.writeRecord(ctx, record, false)
}

// GetRecordByID implements payroll.PayrollRepository.
func (r *payrollRepository) GetRecordByID(ctx context.Context, id string) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM payroll_records p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.id = $1
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

// GetRecordByEmployeePeriod implements payroll.PayrollRepository.
func (r *payrollRepository) GetRecordByEmployeePeriod(ctx context.Context, employeeID string, month, year int) (payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + recordColumns + `
		FROM payroll_records p
		JOIN employees e ON e.id = p.employee_id
		WHERE p.employee_id = $1 AND p.month = $2 AND p.year = $3
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Record{}, payroll.ErrRecordNotFound
		}
		return payroll.Record{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

// ListRecords implements payroll.PayrollRepository.
func (r *payrollRepository) ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.Record, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.Month != 0 {
		args = append(args, filter.Month)
		where += fmt.Sprintf(" AND p.month = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		where += fmt.Sprintf(" AND p.year = $%d", len(args))
	}
	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		where += fmt.Sprintf(" AND p.employee_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM payroll_records p " + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll records: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM payroll_records p
		JOIN employees e ON e.id = p.employee_id
		%s
		ORDER BY p.year DESC, p.month DESC, e.full_name
		LIMIT $%d OFFSET $%d
	`, recordColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	var out []payroll.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		out = append(out, rec)
	}

	return out, total, rows.Err()
}

// TransitionRecords implements payroll.PayrollRepository.
func (r *payrollRepository) TransitionRecords(ctx context.Context, ids []string, status payroll.Status, actorID string, at time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_records SET
			status = $2,
			paid_at = CASE WHEN $2 = 'paid' THEN $3 ELSE paid_at END,
			paid_by = CASE WHEN $2 = 'paid' THEN $4 ELSE paid_by END,
			updated_at = NOW()
		WHERE id = ANY($1)
	`

	tag, err := q.Exec(ctx, query, ids, status, at, actorID)
	if err != nil {
		return fmt.Errorf("failed to transition payroll records: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return payroll.ErrRecordNotFound
	}

	return nil
}

// MonthlyAttendanceSummary implements payroll.PayrollRepository. Half days
// count as present; leave records count as paid leave.
func (r *payrollRepository) MonthlyAttendanceSummary(ctx context.Context, month, year int, employeeIDs []string) ([]payroll.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	from, to, monthDays := monthWindow(month, year, r.loc)

	query := `
		SELECT employee_id,
			   COUNT(*) FILTER (WHERE status IN ('present', 'late', 'half_day')) AS present_days,
			   COUNT(*) FILTER (WHERE status = 'leave') AS paid_leave_days,
			   COALESCE(SUM(overtime_minutes), 0) AS overtime_minutes
		FROM attendances
		WHERE date >= $1
		  AND date < $2
		  AND employee_id = ANY($3)
		GROUP BY employee_id
	`

	rows, err := q.Query(ctx, query, from, to, employeeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate attendance: %w", err)
	}
	defer rows.Close()

	var out []payroll.AttendanceSummary
	for rows.Next() {
		sum := payroll.AttendanceSummary{MonthDays: monthDays}
		if err := rows.Scan(&sum.EmployeeID, &sum.PresentDays, &sum.PaidLeaveDays, &sum.OvertimeMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		out = append(out, sum)
	}

	return out, rows.Err()
}

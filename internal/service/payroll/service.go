package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/employee"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/export"
)

type PayrollServiceImpl struct {
	payroll.PayrollRepository
	employee.EmployeeRepository
	timingService timing.TimingService

	defaultSettings     payroll.Settings
	defaultOvertimeRate decimal.Decimal

	logger *slog.Logger
	now    func() time.Time
	loc    *time.Location
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	timingService timing.TimingService,
	defaultSettings payroll.Settings,
	defaultOvertimeRate decimal.Decimal,
	loc *time.Location,
	logger *slog.Logger,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		PayrollRepository:   payrollRepo,
		EmployeeRepository:  employeeRepo,
		timingService:       timingService,
		defaultSettings:     defaultSettings,
		defaultOvertimeRate: defaultOvertimeRate,
		logger:              logger,
		now:                 time.Now,
		loc:                 loc,
	}
}

// settings returns the stored statutory configuration, falling back to the
// config-seeded defaults when nothing has been saved yet.
func (s *PayrollServiceImpl) settings(ctx context.Context) (payroll.Settings, error) {
	stored, err := s.PayrollRepository.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, payroll.ErrSettingsNotFound) {
			return s.defaultSettings, nil
		}
		return payroll.Settings{}, fmt.Errorf("failed to load payroll settings: %w", err)
	}
	return stored, nil
}

// standardDailyHours resolves the employee's department working day for
// the overtime hourly rate, defaulting to 8 when no policy exists.
func (s *PayrollServiceImpl) standardDailyHours(ctx context.Context, departmentID string) decimal.Decimal {
	policy, err := s.timingService.ResolvePolicy(ctx, departmentID)
	if err != nil || policy.WorkingHoursPerDay <= 0 {
		return decimal.NewFromInt(8)
	}
	return decimal.NewFromFloat(policy.WorkingHoursPerDay)
}

func daysInMonth(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ProcessPayroll implements payroll.PayrollService. One failed employee
// never aborts the batch: failures are collected per employee and every
// successful record is committed.
func (s *PayrollServiceImpl) ProcessPayroll(ctx context.Context, req payroll.ProcessPayrollRequest) (payroll.ProcessPayrollResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.ProcessPayrollResponse{}, err
	}

	nowLocal := s.now().In(s.loc)
	if req.Year > nowLocal.Year() || (req.Year == nowLocal.Year() && req.Month > int(nowLocal.Month())) {
		return payroll.ProcessPayrollResponse{}, payroll.ErrFuturePeriod
	}

	var employees []employee.Employee
	var err error
	if len(req.EmployeeIDs) > 0 {
		employees, err = s.EmployeeRepository.ListActiveByIDs(ctx, req.EmployeeIDs)
	} else {
		employees, err = s.EmployeeRepository.ListActive(ctx)
	}
	if err != nil {
		return payroll.ProcessPayrollResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return payroll.ProcessPayrollResponse{}, err
	}

	ids := make([]string, 0, len(employees))
	for _, emp := range employees {
		ids = append(ids, emp.ID)
	}

	summaries, err := s.PayrollRepository.MonthlyAttendanceSummary(ctx, req.Month, req.Year, ids)
	if err != nil {
		return payroll.ProcessPayrollResponse{}, fmt.Errorf("failed to aggregate attendance: %w", err)
	}
	summaryByEmployee := make(map[string]payroll.AttendanceSummary, len(summaries))
	for _, sum := range summaries {
		summaryByEmployee[sum.EmployeeID] = sum
	}

	monthDays := daysInMonth(req.Month, req.Year)
	monthEnd := time.Date(req.Year, time.Month(req.Month), monthDays, 0, 0, 0, 0, s.loc)

	resp := payroll.ProcessPayrollResponse{Month: req.Month, Year: req.Year}

	for _, emp := range employees {
		structure, err := s.PayrollRepository.GetActiveSalaryStructure(ctx, emp.ID, monthEnd)
		if err != nil {
			resp.Failures = append(resp.Failures, payroll.EmployeeFailure{
				EmployeeID: emp.ID,
				Reason:     payroll.ErrNoActiveSalaryStructure.Error(),
			})
			continue
		}

		summary, ok := summaryByEmployee[emp.ID]
		if !ok {
			summary = payroll.AttendanceSummary{EmployeeID: emp.ID}
		}
		if summary.MonthDays == 0 {
			summary.MonthDays = monthDays
		}

		calc := Calculator{
			Settings:            settings,
			StandardDailyHours:  s.standardDailyHours(ctx, emp.DepartmentID),
			DefaultOvertimeRate: s.defaultOvertimeRate,
		}

		record, calcErr := calc.Calculate(structure, summary)
		if calcErr != nil && !errors.Is(calcErr, payroll.ErrNegativeNetSalary) {
			resp.Failures = append(resp.Failures, payroll.EmployeeFailure{
				EmployeeID: emp.ID,
				Reason:     calcErr.Error(),
			})
			continue
		}

		record.Month = req.Month
		record.Year = req.Year
		record.EmployeeName = &emp.FullName

		saved, err := s.saveRecord(ctx, record)
		if err != nil {
			resp.Failures = append(resp.Failures, payroll.EmployeeFailure{
				EmployeeID: emp.ID,
				Reason:     err.Error(),
			})
			continue
		}

		if calcErr != nil {
			// Negative net: record is committed, condition is surfaced.
			resp.Failures = append(resp.Failures, payroll.EmployeeFailure{
				EmployeeID: emp.ID,
				Reason:     calcErr.Error(),
			})
		}

		resp.Processed = append(resp.Processed, toRecordResponse(saved))
	}

	s.logger.Info("payroll processed",
		slog.Int("month", req.Month),
		slog.Int("year", req.Year),
		slog.Int("succeeded", len(resp.Processed)),
		slog.Int("failed", len(resp.Failures)))

	return resp, nil
}

// saveRecord creates or replaces the (employee, month, year) record.
// Records already approved or paid are never overwritten by reprocessing.
func (s *PayrollServiceImpl) saveRecord(ctx context.Context, record payroll.Record) (payroll.Record, error) {
	existing, err := s.PayrollRepository.GetRecordByEmployeePeriod(ctx, record.EmployeeID, record.Month, record.Year)
	if err != nil {
		if !errors.Is(err, payroll.ErrRecordNotFound) {
			return payroll.Record{}, fmt.Errorf("failed to load existing record: %w", err)
		}

		record.ID = uuid.NewString()
		return s.PayrollRepository.CreateRecord(ctx, record)
	}

	if existing.Status == payroll.StatusPaid {
		return payroll.Record{}, payroll.ErrRecordAlreadyPaid
	}
	if existing.Status == payroll.StatusApproved {
		return payroll.Record{}, payroll.ErrInvalidStatusTransition
	}

	record.ID = existing.ID
	if err := s.PayrollRepository.UpdateRecord(ctx, record); err != nil {
		return payroll.Record{}, fmt.Errorf("failed to update record: %w", err)
	}
	return record, nil
}

// GetPayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetPayroll(ctx context.Context, filter payroll.RecordFilter) (payroll.ListRecordResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.PayrollRepository.ListRecords(ctx, filter)
	if err != nil {
		return payroll.ListRecordResponse{}, fmt.Errorf("failed to list payroll records: %w", err)
	}

	responses := make([]payroll.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, toRecordResponse(rec))
	}

	return payroll.ListRecordResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Records:    responses,
	}, nil
}

// GetRecord implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetRecord(ctx context.Context, id string) (payroll.RecordResponse, error) {
	rec, err := s.PayrollRepository.GetRecordByID(ctx, id)
	if err != nil {
		return payroll.RecordResponse{}, err
	}
	return toRecordResponse(rec), nil
}

// Transition implements payroll.PayrollService. The whole batch is
// validated before anything moves: a single backward transition rejects
// the request.
func (s *PayrollServiceImpl) Transition(ctx context.Context, req payroll.TransitionRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	target := payroll.Status(req.Status)

	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract claims from context: %w", err)
	}
	actorID, _ := claims["employee_id"].(string)

	for _, id := range req.RecordIDs {
		rec, err := s.PayrollRepository.GetRecordByID(ctx, id)
		if err != nil {
			return err
		}
		if !rec.Status.CanTransitionTo(target) {
			return fmt.Errorf("record %s is %s: %w", id, rec.Status, payroll.ErrInvalidStatusTransition)
		}
	}

	if err := s.PayrollRepository.TransitionRecords(ctx, req.RecordIDs, target, actorID, s.now().In(s.loc)); err != nil {
		return fmt.Errorf("failed to transition records: %w", err)
	}

	s.logger.Info("payroll records transitioned",
		slog.Int("count", len(req.RecordIDs)),
		slog.String("status", req.Status))

	return nil
}

// ExportPayroll implements payroll.PayrollService.
func (s *PayrollServiceImpl) ExportPayroll(ctx context.Context, month, year int) ([]byte, error) {
	records, _, err := s.PayrollRepository.ListRecords(ctx, payroll.RecordFilter{
		Month: month,
		Year:  year,
		Page:  1,
		Limit: 10000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}

	return export.PayrollRegister(month, year, records)
}

// UpsertSalaryStructure implements payroll.PayrollService. Any structure
// still active on the new effective date is closed first so the
// one-active-structure invariant holds.
func (s *PayrollServiceImpl) UpsertSalaryStructure(ctx context.Context, req payroll.UpsertSalaryStructureRequest) (payroll.SalaryStructureResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	if _, err := s.EmployeeRepository.GetByID(ctx, req.EmployeeID); err != nil {
		return payroll.SalaryStructureResponse{}, err
	}

	effectiveFrom, _ := time.ParseInLocation("2006-01-02", req.EffectiveFrom, s.loc)

	var effectiveTo *time.Time
	if req.EffectiveTo != nil {
		to, _ := time.ParseInLocation("2006-01-02", *req.EffectiveTo, s.loc)
		if !to.After(effectiveFrom) {
			return payroll.SalaryStructureResponse{}, payroll.ErrSalaryStructureOverlap
		}
		effectiveTo = &to
	}

	if err := s.PayrollRepository.DeactivateSalaryStructures(ctx, req.EmployeeID, effectiveFrom); err != nil {
		return payroll.SalaryStructureResponse{}, fmt.Errorf("failed to close previous structures: %w", err)
	}

	overtimeRate := s.defaultOvertimeRate
	if req.OvertimeRate != nil {
		overtimeRate = *req.OvertimeRate
	}

	structure := payroll.SalaryStructure{
		ID:               uuid.NewString(),
		EmployeeID:       req.EmployeeID,
		FixedBasic:       req.FixedBasic,
		FixedHRA:         req.FixedHRA,
		FixedConveyance:  req.FixedConveyance,
		CustomEarnings:   req.CustomEarnings,
		CustomDeductions: req.CustomDeductions,
		PerDaySalaryBase: payroll.PerDayBase(req.PerDaySalaryBase),
		OvertimeRate:     overtimeRate,
		EPFApplicable:    req.EPFApplicable,
		ESIApplicable:    req.ESIApplicable,
		VPTAmount:        req.VPTAmount,
		EffectiveFrom:    effectiveFrom,
		EffectiveTo:      effectiveTo,
		IsActive:         true,
	}

	created, err := s.PayrollRepository.CreateSalaryStructure(ctx, structure)
	if err != nil {
		return payroll.SalaryStructureResponse{}, fmt.Errorf("failed to create salary structure: %w", err)
	}

	return toStructureResponse(created), nil
}

// ListSalaryStructures implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListSalaryStructures(ctx context.Context, employeeID string) ([]payroll.SalaryStructureResponse, error) {
	structures, err := s.PayrollRepository.ListSalaryStructures(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary structures: %w", err)
	}

	responses := make([]payroll.SalaryStructureResponse, 0, len(structures))
	for _, structure := range structures {
		responses = append(responses, toStructureResponse(structure))
	}
	return responses, nil
}

// GetSettings implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetSettings(ctx context.Context) (payroll.SettingsResponse, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return payroll.SettingsResponse{}, err
	}
	return toSettingsResponse(settings), nil
}

// UpdateSettings implements payroll.PayrollService.
func (s *PayrollServiceImpl) UpdateSettings(ctx context.Context, req payroll.UpdateSettingsRequest) (payroll.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.SettingsResponse{}, err
	}

	settings, err := s.settings(ctx)
	if err != nil {
		return payroll.SettingsResponse{}, err
	}

	if req.EPFRate != nil {
		settings.EPFRate = *req.EPFRate
	}
	if req.EPFCeiling != nil {
		settings.EPFCeiling = *req.EPFCeiling
	}
	if req.ESIRate != nil {
		settings.ESIRate = *req.ESIRate
	}
	if req.ESIThreshold != nil {
		settings.ESIThreshold = *req.ESIThreshold
	}

	saved, err := s.PayrollRepository.UpsertSettings(ctx, settings)
	if err != nil {
		return payroll.SettingsResponse{}, fmt.Errorf("failed to save payroll settings: %w", err)
	}

	return toSettingsResponse(saved), nil
}

func toRecordResponse(rec payroll.Record) payroll.RecordResponse {
	resp := payroll.RecordResponse{
		ID:         rec.ID,
		EmployeeID: rec.EmployeeID,
		Month:      rec.Month,
		Year:       rec.Year,

		MonthDays:     rec.MonthDays,
		PresentDays:   rec.PresentDays,
		PaidLeaveDays: rec.PaidLeaveDays,
		OvertimeHours: rec.OvertimeHours,

		PerDaySalary:     rec.PerDaySalary,
		EarnedBasic:      rec.EarnedBasic,
		EarnedHRA:        rec.EarnedHRA,
		EarnedConveyance: rec.EarnedConveyance,
		CustomEarnings:   rec.CustomEarnings,
		OvertimePay:      rec.OvertimePay,
		GrossSalary:      rec.GrossSalary,

		EPFDeduction:     rec.EPFDeduction,
		ESIDeduction:     rec.ESIDeduction,
		VPTDeduction:     rec.VPTDeduction,
		CustomDeductions: rec.CustomDeductions,

		TotalEarnings:   rec.TotalEarnings,
		TotalDeductions: rec.TotalDeductions,
		NetSalary:       rec.NetSalary,

		Status: string(rec.Status),
	}

	if rec.EmployeeName != nil {
		resp.EmployeeName = *rec.EmployeeName
	}
	if rec.PaidAt != nil {
		paidAt := rec.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}

	return resp
}

func toStructureResponse(structure payroll.SalaryStructure) payroll.SalaryStructureResponse {
	resp := payroll.SalaryStructureResponse{
		ID:               structure.ID,
		EmployeeID:       structure.EmployeeID,
		FixedBasic:       structure.FixedBasic,
		FixedHRA:         structure.FixedHRA,
		FixedConveyance:  structure.FixedConveyance,
		CustomEarnings:   structure.CustomEarnings,
		CustomDeductions: structure.CustomDeductions,
		PerDaySalaryBase: string(structure.PerDaySalaryBase),
		OvertimeRate:     structure.OvertimeRate,
		EPFApplicable:    structure.EPFApplicable,
		ESIApplicable:    structure.ESIApplicable,
		VPTAmount:        structure.VPTAmount,
		EffectiveFrom:    structure.EffectiveFrom.Format("2006-01-02"),
		IsActive:         structure.IsActive,
	}

	if structure.EffectiveTo != nil {
		to := structure.EffectiveTo.Format("2006-01-02")
		resp.EffectiveTo = &to
	}

	return resp
}

func toSettingsResponse(settings payroll.Settings) payroll.SettingsResponse {
	return payroll.SettingsResponse{
		EPFRate:      settings.EPFRate,
		EPFCeiling:   settings.EPFCeiling,
		ESIRate:      settings.ESIRate,
		ESIThreshold: settings.ESIThreshold,
	}
}

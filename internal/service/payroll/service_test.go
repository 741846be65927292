package payroll

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/employee"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/payroll"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
)

// ========================================
// FAKES
// ========================================

type fakePayrollRepo struct {
	settings   *payroll.Settings
	structures map[string]payroll.SalaryStructure
	records    map[string]payroll.Record
	summaries  map[string]payroll.AttendanceSummary
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{
		structures: make(map[string]payroll.SalaryStructure),
		records:    make(map[string]payroll.Record),
		summaries:  make(map[string]payroll.AttendanceSummary),
	}
}

func (f *fakePayrollRepo) GetSettings(_ context.Context) (payroll.Settings, error) {
	if f.settings == nil {
		return payroll.Settings{}, payroll.ErrSettingsNotFound
	}
	return *f.settings, nil
}

func (f *fakePayrollRepo) UpsertSettings(_ context.Context, s payroll.Settings) (payroll.Settings, error) {
	f.settings = &s
	return s, nil
}

func (f *fakePayrollRepo) CreateSalaryStructure(_ context.Context, s payroll.SalaryStructure) (payroll.SalaryStructure, error) {
	f.structures[s.ID] = s
	return s, nil
}

func (f *fakePayrollRepo) UpdateSalaryStructure(_ context.Context, s payroll.SalaryStructure) error {
	if _, ok := f.structures[s.ID]; !ok {
		return payroll.ErrSalaryStructureNotFound
	}
	f.structures[s.ID] = s
	return nil
}

func (f *fakePayrollRepo) GetSalaryStructureByID(_ context.Context, id string) (payroll.SalaryStructure, error) {
	s, ok := f.structures[id]
	if !ok {
		return payroll.SalaryStructure{}, payroll.ErrSalaryStructureNotFound
	}
	return s, nil
}

func (f *fakePayrollRepo) GetActiveSalaryStructure(_ context.Context, employeeID string, on time.Time) (payroll.SalaryStructure, error) {
	for _, s := range f.structures {
		if s.EmployeeID == employeeID && s.ActiveOn(on) {
			return s, nil
		}
	}
	return payroll.SalaryStructure{}, payroll.ErrNoActiveSalaryStructure
}

func (f *fakePayrollRepo) ListSalaryStructures(_ context.Context, employeeID string) ([]payroll.SalaryStructure, error) {
	var out []payroll.SalaryStructure
	for _, s := range f.structures {
		if s.EmployeeID == employeeID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakePayrollRepo) DeactivateSalaryStructures(_ context.Context, employeeID string, on time.Time) error {
	for id, s := range f.structures {
		if s.EmployeeID == employeeID && s.ActiveOn(on) {
			s.IsActive = false
			f.structures[id] = s
		}
	}
	return nil
}

func (f *fakePayrollRepo) CreateRecord(_ context.Context, r payroll.Record) (payroll.Record, error) {
	f.records[r.ID] = r
	return r, nil
}

func (f *fakePayrollRepo) UpdateRecord(_ context.Context, r payroll.Record) error {
	if _, ok := f.records[r.ID]; !ok {
		return payroll.ErrRecordNotFound
	}
	f.records[r.ID] = r
	return nil
}

func (f *fakePayrollRepo) GetRecordByID(_ context.Context, id string) (payroll.Record, error) {
	r, ok := f.records[id]
	if !ok {
		return payroll.Record{}, payroll.ErrRecordNotFound
	}
	return r, nil
}

func (f *fakePayrollRepo) GetRecordByEmployeePeriod(_ context.Context, employeeID string, month, year int) (payroll.Record, error) {
	for _, r := range f.records {
		if r.EmployeeID == employeeID && r.Month == month && r.Year == year {
			return r, nil
		}
	}
	return payroll.Record{}, payroll.ErrRecordNotFound
}

func (f *fakePayrollRepo) ListRecords(_ context.Context, filter payroll.RecordFilter) ([]payroll.Record, int64, error) {
	var out []payroll.Record
	for _, r := range f.records {
		if filter.Month != 0 && r.Month != filter.Month {
			continue
		}
		if filter.Year != 0 && r.Year != filter.Year {
			continue
		}
		if filter.EmployeeID != nil && r.EmployeeID != *filter.EmployeeID {
			continue
		}
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (f *fakePayrollRepo) TransitionRecords(_ context.Context, ids []string, status payroll.Status, actorID string, at time.Time) error {
	for _, id := range ids {
		r, ok := f.records[id]
		if !ok {
			return payroll.ErrRecordNotFound
		}
		r.Status = status
		if status == payroll.StatusPaid {
			r.PaidAt = &at
			r.PaidBy = &actorID
		}
		f.records[id] = r
	}
	return nil
}

func (f *fakePayrollRepo) MonthlyAttendanceSummary(_ context.Context, month, year int, employeeIDs []string) ([]payroll.AttendanceSummary, error) {
	var out []payroll.AttendanceSummary
	for _, id := range employeeIDs {
		if sum, ok := f.summaries[id]; ok {
			out = append(out, sum)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id string) (employee.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployeeRepo) ListActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range f.employees {
		out = append(out, emp)
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListActiveByIDs(_ context.Context, ids []string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, id := range ids {
		if emp, ok := f.employees[id]; ok {
			out = append(out, emp)
		}
	}
	return out, nil
}

type fakeTimingService struct{}

func (fakeTimingService) ResolvePolicy(context.Context, string) (timing.TimingPolicy, error) {
	return timing.TimingPolicy{WorkingHoursPerDay: 8}, nil
}

func (fakeTimingService) ActiveOffices(context.Context) ([]timing.OfficeLocation, error) {
	return nil, nil
}

func (fakeTimingService) UpsertPolicy(context.Context, timing.UpsertTimingPolicyRequest) (timing.TimingPolicyResponse, error) {
	return timing.TimingPolicyResponse{}, nil
}

func (fakeTimingService) ListPolicies(context.Context) ([]timing.TimingPolicyResponse, error) {
	return nil, nil
}

func (fakeTimingService) CreateOffice(context.Context, timing.UpsertOfficeLocationRequest) (timing.OfficeLocationResponse, error) {
	return timing.OfficeLocationResponse{}, nil
}

func (fakeTimingService) UpdateOffice(context.Context, string, timing.UpsertOfficeLocationRequest) (timing.OfficeLocationResponse, error) {
	return timing.OfficeLocationResponse{}, nil
}

func (fakeTimingService) ListOffices(context.Context) ([]timing.OfficeLocationResponse, error) {
	return nil, nil
}

// ========================================
// HARNESS
// ========================================

type harness struct {
	svc  *PayrollServiceImpl
	repo *fakePayrollRepo
	ctx  context.Context
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	repo := newFakePayrollRepo()
	empRepo := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", FullName: "Asha Verma", DepartmentID: "dept-1", EmploymentStatus: "active"},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewPayrollService(
		repo, empRepo, fakeTimingService{},
		payroll.Settings{
			EPFRate:      dec("0.12"),
			EPFCeiling:   dec("1800"),
			ESIRate:      dec("0.0075"),
			ESIThreshold: dec("21000"),
		},
		dec("1.5"),
		time.UTC,
		logger,
	).(*PayrollServiceImpl)
	svc.now = func() time.Time { return time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC) }

	ta := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ta.Encode(map[string]interface{}{"employee_id": "admin-1", "role": "admin"})
	require.NoError(t, err)
	ctx := jwtauth.NewContext(context.Background(), token, nil)

	return &harness{svc: svc, repo: repo, ctx: ctx}
}

func (h *harness) seedStructure(t *testing.T) {
	t.Helper()

	_, err := h.svc.UpsertSalaryStructure(h.ctx, payroll.UpsertSalaryStructureRequest{
		EmployeeID:       "emp-1",
		FixedBasic:       dec("15000"),
		FixedHRA:         dec("7500"),
		FixedConveyance:  dec("1600"),
		PerDaySalaryBase: string(payroll.PerDayBaseBasic),
		EPFApplicable:    true,
		EffectiveFrom:    "2025-01-01",
	})
	require.NoError(t, err)
}

// ========================================
// TESTS
// ========================================

func TestProcessPayroll(t *testing.T) {
	t.Run("computes and commits one record per employee", func(t *testing.T) {
		h := newHarness(t)
		h.seedStructure(t)
		h.repo.summaries["emp-1"] = payroll.AttendanceSummary{
			EmployeeID: "emp-1", MonthDays: 31, PresentDays: 31,
		}

		resp, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)
		require.Len(t, resp.Processed, 1)
		assert.Empty(t, resp.Failures)

		rec := resp.Processed[0]
		assert.Equal(t, "emp-1", rec.EmployeeID)
		assert.Equal(t, string(payroll.StatusProcessed), rec.Status)
		assert.True(t, rec.EarnedBasic.Equal(dec("15000")))
		assert.True(t, rec.EPFDeduction.Equal(dec("1800")))
		assert.True(t, rec.NetSalary.Equal(rec.TotalEarnings.Sub(rec.TotalDeductions)))
	})

	t.Run("missing salary structure is a per-employee failure", func(t *testing.T) {
		h := newHarness(t)

		resp, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)
		assert.Empty(t, resp.Processed)
		require.Len(t, resp.Failures, 1)
		assert.Equal(t, "emp-1", resp.Failures[0].EmployeeID)
		assert.Equal(t, payroll.ErrNoActiveSalaryStructure.Error(), resp.Failures[0].Reason)
	})

	t.Run("future period is rejected outright", func(t *testing.T) {
		h := newHarness(t)
		h.seedStructure(t)

		_, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 5, Year: 2026})
		assert.ErrorIs(t, err, payroll.ErrFuturePeriod)
	})

	t.Run("employee with no attendance gets a zero-earnings record", func(t *testing.T) {
		h := newHarness(t)
		h.seedStructure(t)

		resp, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)
		require.Len(t, resp.Processed, 1)
		assert.True(t, resp.Processed[0].EarnedBasic.IsZero())
	})

	t.Run("negative net is committed and reported", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.svc.UpsertSalaryStructure(h.ctx, payroll.UpsertSalaryStructureRequest{
			EmployeeID:       "emp-1",
			FixedBasic:       dec("1000"),
			PerDaySalaryBase: string(payroll.PerDayBaseBasic),
			VPTAmount:        dec("5000"),
			EffectiveFrom:    "2025-01-01",
		})
		require.NoError(t, err)
		h.repo.summaries["emp-1"] = payroll.AttendanceSummary{
			EmployeeID: "emp-1", MonthDays: 31, PresentDays: 31,
		}

		resp, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)
		require.Len(t, resp.Processed, 1)
		require.Len(t, resp.Failures, 1)
		assert.Equal(t, payroll.ErrNegativeNetSalary.Error(), resp.Failures[0].Reason)
		assert.True(t, resp.Processed[0].NetSalary.IsNegative())
	})

	t.Run("reprocessing replaces a processed record in place", func(t *testing.T) {
		h := newHarness(t)
		h.seedStructure(t)
		h.repo.summaries["emp-1"] = payroll.AttendanceSummary{
			EmployeeID: "emp-1", MonthDays: 31, PresentDays: 20,
		}

		first, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)

		h.repo.summaries["emp-1"] = payroll.AttendanceSummary{
			EmployeeID: "emp-1", MonthDays: 31, PresentDays: 25,
		}
		second, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)

		require.Len(t, second.Processed, 1)
		assert.Equal(t, first.Processed[0].ID, second.Processed[0].ID)
		assert.Equal(t, 25, second.Processed[0].PresentDays)
		assert.Len(t, h.repo.records, 1)
	})

	t.Run("paid records are never reprocessed", func(t *testing.T) {
		h := newHarness(t)
		h.seedStructure(t)

		resp, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)

		err = h.svc.Transition(h.ctx, payroll.TransitionRequest{
			RecordIDs: []string{resp.Processed[0].ID},
			Status:    string(payroll.StatusPaid),
		})
		require.NoError(t, err)

		again, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
		require.NoError(t, err)
		assert.Empty(t, again.Processed)
		require.Len(t, again.Failures, 1)
		assert.Equal(t, payroll.ErrRecordAlreadyPaid.Error(), again.Failures[0].Reason)
	})
}

func TestTransition(t *testing.T) {
	h := newHarness(t)
	h.seedStructure(t)

	resp, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
	require.NoError(t, err)
	id := resp.Processed[0].ID

	t.Run("forward transitions succeed and stamp paid metadata", func(t *testing.T) {
		err := h.svc.Transition(h.ctx, payroll.TransitionRequest{RecordIDs: []string{id}, Status: string(payroll.StatusApproved)})
		require.NoError(t, err)

		err = h.svc.Transition(h.ctx, payroll.TransitionRequest{RecordIDs: []string{id}, Status: string(payroll.StatusPaid)})
		require.NoError(t, err)

		rec, err := h.repo.GetRecordByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, payroll.StatusPaid, rec.Status)
		require.NotNil(t, rec.PaidAt)
		require.NotNil(t, rec.PaidBy)
		assert.Equal(t, "admin-1", *rec.PaidBy)
	})

	t.Run("backward transition is rejected", func(t *testing.T) {
		err := h.svc.Transition(h.ctx, payroll.TransitionRequest{RecordIDs: []string{id}, Status: string(payroll.StatusProcessed)})
		assert.ErrorIs(t, err, payroll.ErrInvalidStatusTransition)
	})
}

func TestUpsertSalaryStructure(t *testing.T) {
	t.Run("replacement deactivates the previous structure", func(t *testing.T) {
		h := newHarness(t)
		h.seedStructure(t)

		_, err := h.svc.UpsertSalaryStructure(h.ctx, payroll.UpsertSalaryStructureRequest{
			EmployeeID:       "emp-1",
			FixedBasic:       dec("18000"),
			PerDaySalaryBase: string(payroll.PerDayBaseBasic),
			EffectiveFrom:    "2026-01-01",
		})
		require.NoError(t, err)

		structures, err := h.svc.ListSalaryStructures(h.ctx, "emp-1")
		require.NoError(t, err)
		require.Len(t, structures, 2)

		active := 0
		for _, s := range structures {
			if s.IsActive {
				active++
				assert.True(t, s.FixedBasic.Equal(dec("18000")))
			}
		}
		assert.Equal(t, 1, active)
	})

	t.Run("unknown employee is rejected", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.svc.UpsertSalaryStructure(h.ctx, payroll.UpsertSalaryStructureRequest{
			EmployeeID:       "ghost",
			FixedBasic:       dec("10000"),
			PerDaySalaryBase: string(payroll.PerDayBaseBasic),
			EffectiveFrom:    "2026-01-01",
		})
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("effective_to before effective_from is rejected", func(t *testing.T) {
		h := newHarness(t)
		to := "2025-12-01"

		_, err := h.svc.UpsertSalaryStructure(h.ctx, payroll.UpsertSalaryStructureRequest{
			EmployeeID:       "emp-1",
			FixedBasic:       dec("10000"),
			PerDaySalaryBase: string(payroll.PerDayBaseBasic),
			EffectiveFrom:    "2026-01-01",
			EffectiveTo:      &to,
		})
		assert.ErrorIs(t, err, payroll.ErrSalaryStructureOverlap)
	})
}

func TestSettings(t *testing.T) {
	h := newHarness(t)

	t.Run("defaults before anything is saved", func(t *testing.T) {
		settings, err := h.svc.GetSettings(h.ctx)
		require.NoError(t, err)
		assert.True(t, settings.EPFRate.Equal(dec("0.12")))
		assert.True(t, settings.ESIThreshold.Equal(dec("21000")))
	})

	t.Run("partial update keeps the other fields", func(t *testing.T) {
		newCeiling := dec("2000")
		updated, err := h.svc.UpdateSettings(h.ctx, payroll.UpdateSettingsRequest{EPFCeiling: &newCeiling})
		require.NoError(t, err)

		assert.True(t, updated.EPFCeiling.Equal(dec("2000")))
		assert.True(t, updated.EPFRate.Equal(dec("0.12")))
	})
}

func TestExportPayroll(t *testing.T) {
	h := newHarness(t)
	h.seedStructure(t)
	h.repo.summaries["emp-1"] = payroll.AttendanceSummary{
		EmployeeID: "emp-1", MonthDays: 31, PresentDays: 31,
	}

	_, err := h.svc.ProcessPayroll(h.ctx, payroll.ProcessPayrollRequest{Month: 3, Year: 2026})
	require.NoError(t, err)

	raw, err := h.svc.ExportPayroll(h.ctx, 3, 2026)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

var _ payroll.PayrollRepository = (*fakePayrollRepo)(nil)

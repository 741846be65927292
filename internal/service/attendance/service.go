package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/attendance"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/employee"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/geo"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	employee.EmployeeRepository
	timingService timing.TimingService
	loc           *time.Location
	logger        *slog.Logger
	now           func() time.Time
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	timingService timing.TimingService,
	loc *time.Location,
	logger *slog.Logger,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		EmployeeRepository:   employeeRepo,
		timingService:        timingService,
		loc:                  loc,
		logger:               logger,
		now:                  time.Now,
	}
}

func employeeIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return "", fmt.Errorf("employee_id claim is missing or invalid")
	}

	return employeeID, nil
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	emp, err := s.EmployeeRepository.GetByID(ctx, employeeID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	nowLocal := s.now().In(s.loc)
	date := dayOf(nowLocal, s.loc)

	existing, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check today's attendance: %w", err)
	}
	if existing != nil {
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyCheckedIn
	}

	policy, err := s.timingService.ResolvePolicy(ctx, emp.DepartmentID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to resolve timing policy: %w", err)
	}

	cls := ClassifyCheckIn(nowLocal, policy, s.loc)

	if (cls.Early || cls.Late) && (req.Reason == nil || *req.Reason == "") {
		return attendance.AttendanceResponse{}, attendance.ErrReasonRequired
	}

	within, distance, office := s.locateOffice(ctx, *req.Location)

	data := attendance.Attendance{
		ID:           uuid.NewString(),
		EmployeeID:   employeeID,
		DepartmentID: emp.DepartmentID,
		Date:         date,

		CheckInTime:      &nowLocal,
		CheckInLatitude:  &req.Location.Latitude,
		CheckInLongitude: &req.Location.Longitude,
		CheckInAccuracy:  req.Location.Accuracy,
		CheckInPhotoURL:  &req.PhotoURL,

		Type:   req.Type,
		Status: cls.Status,

		IsLate:       cls.Late,
		LateMinutes:  cls.LateMinutes,
		EarlyMinutes: cls.EarlyMinutes,
		Reason:       req.Reason,

		WithinOfficeRadius: within,
		DistanceFromOffice: distance,
		NearestOffice:      office,
	}

	created, err := s.AttendanceRepository.Create(ctx, data)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	created.EmployeeName = &emp.FullName

	return toResponse(created), nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	nowLocal := s.now().In(s.loc)

	rec, err := s.openRecord(ctx, employeeID, nowLocal)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	policy, err := s.timingService.ResolvePolicy(ctx, rec.DepartmentID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to resolve timing policy: %w", err)
	}

	cls := ClassifyCheckOut(nowLocal, rec.Date, policy, s.loc)

	if cls.Early && (req.Reason == nil || *req.Reason == "") {
		return attendance.AttendanceResponse{}, attendance.ErrReasonRequired
	}

	if req.ConfirmOvertime {
		if !cls.OvertimeEligible {
			return attendance.AttendanceResponse{}, attendance.ErrInvalidStateTransition
		}
		if req.OvertimeReason == nil || *req.OvertimeReason == "" {
			return attendance.AttendanceResponse{}, attendance.ErrOvertimeReasonRequired
		}
	}

	work, overtime := ComputeWork(*rec.CheckInTime, nowLocal, policy)
	if !req.ConfirmOvertime {
		overtime = 0
	}

	within, distance, office := s.locateOffice(ctx, *req.Location)

	rec.CheckOutTime = &nowLocal
	rec.CheckOutLatitude = &req.Location.Latitude
	rec.CheckOutLongitude = &req.Location.Longitude
	rec.CheckOutPhotoURL = &req.PhotoURL
	rec.EarlyLeaveMinutes = cls.EarlyLeaveMinutes
	rec.OvertimeRequested = req.ConfirmOvertime
	rec.OvertimeReason = req.OvertimeReason
	rec.WorkMinutes = &work
	rec.OvertimeMinutes = overtime
	if req.Reason != nil {
		rec.Reason = req.Reason
	}
	if within != nil {
		rec.WithinOfficeRadius = within
		rec.DistanceFromOffice = distance
		rec.NearestOffice = office
	}

	if err := s.AttendanceRepository.Update(ctx, rec); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return toResponse(rec), nil
}

// openRecord finds the employee's open record for today, falling back to
// yesterday so overnight shifts can check out after midnight.
func (s *AttendanceServiceImpl) openRecord(ctx context.Context, employeeID string, nowLocal time.Time) (attendance.Attendance, error) {
	today := dayOf(nowLocal, s.loc)

	rec, err := s.AttendanceRepository.GetOpenByEmployeeAndDate(ctx, employeeID, today)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, attendance.ErrNoOpenAttendance) {
		return attendance.Attendance{}, fmt.Errorf("failed to get open attendance: %w", err)
	}

	yesterday := today.AddDate(0, 0, -1)
	rec, err = s.AttendanceRepository.GetOpenByEmployeeAndDate(ctx, employeeID, yesterday)
	if err != nil {
		if !errors.Is(err, attendance.ErrNoOpenAttendance) {
			return attendance.Attendance{}, fmt.Errorf("failed to get open attendance: %w", err)
		}

		// A closed record for today means the day is already settled.
		existing, lookErr := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, today)
		if lookErr == nil && existing != nil && !existing.IsOpen() {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedOut
		}
		return attendance.Attendance{}, attendance.ErrNoOpenAttendance
	}

	return rec, nil
}

// OvertimeEligibility implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) OvertimeEligibility(ctx context.Context, attendanceID string) (attendance.OvertimeEligibilityResponse, error) {
	rec, err := s.AttendanceRepository.GetByID(ctx, attendanceID)
	if err != nil {
		return attendance.OvertimeEligibilityResponse{}, err
	}

	if !rec.IsOpen() {
		return attendance.OvertimeEligibilityResponse{}, attendance.ErrOvertimeDecided
	}

	policy, err := s.timingService.ResolvePolicy(ctx, rec.DepartmentID)
	if err != nil {
		return attendance.OvertimeEligibilityResponse{}, fmt.Errorf("failed to resolve timing policy: %w", err)
	}

	cls := ClassifyCheckOut(s.now().In(s.loc), rec.Date, policy, s.loc)

	return attendance.OvertimeEligibilityResponse{
		AttendanceID:         rec.ID,
		OvertimeEligible:     cls.OvertimeEligible,
		MinutesPastScheduled: cls.MinutesPastScheduled,
	}, nil
}

const sweepName = "auto_checkout"

// RunAutoCheckoutSweep implements attendance.AttendanceService. It scans
// today's and yesterday's open records so overnight shifts are covered, and
// closes each one through a compare-and-swap so a concurrent manual
// check-out always wins.
func (s *AttendanceServiceImpl) RunAutoCheckoutSweep(ctx context.Context, now time.Time) ([]attendance.Attendance, error) {
	nowLocal := now.In(s.loc)
	today := dayOf(nowLocal, s.loc)

	if last, err := s.AttendanceRepository.GetSweepWatermark(ctx, sweepName); err == nil && last != nil {
		s.logger.Debug("sweep starting", slog.Duration("since_last", nowLocal.Sub(*last)))
	}

	var open []attendance.Attendance
	for _, date := range []time.Time{today.AddDate(0, 0, -1), today} {
		records, err := s.AttendanceRepository.ListOpenByDate(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("failed to list open attendance for %s: %w", date.Format("2006-01-02"), err)
		}
		open = append(open, records...)
	}

	var closed []attendance.Attendance
	for _, rec := range open {
		policy, err := s.timingService.ResolvePolicy(ctx, rec.DepartmentID)
		if err != nil {
			s.logger.Error("sweep: failed to resolve timing policy",
				slog.String("attendance_id", rec.ID),
				slog.String("department_id", rec.DepartmentID),
				slog.Any("error", err))
			continue
		}

		fc, ok := PlanAutoClose(rec, policy, nowLocal, s.loc)
		if !ok {
			continue
		}

		applied, err := s.AttendanceRepository.CloseIfOpen(ctx, rec.ID, fc)
		if err != nil {
			s.logger.Error("sweep: failed to close attendance",
				slog.String("attendance_id", rec.ID),
				slog.Any("error", err))
			continue
		}
		if !applied {
			// Someone checked out between the listing and the close.
			continue
		}

		rec.CheckOutTime = &fc.CheckOutTime
		rec.WorkMinutes = &fc.WorkMinutes
		rec.OvertimeMinutes = fc.OvertimeMinutes
		rec.Status = fc.Status
		rec.AutoClosed = true
		rec.CloseNote = &fc.Note
		closed = append(closed, rec)

		s.logger.Info("sweep: auto-closed attendance",
			slog.String("attendance_id", rec.ID),
			slog.String("employee_id", rec.EmployeeID),
			slog.Time("check_out_time", fc.CheckOutTime))
	}

	if err := s.AttendanceRepository.SetSweepWatermark(ctx, sweepName, nowLocal); err != nil {
		s.logger.Error("sweep: failed to store watermark", slog.Any("error", err))
	}

	return closed, nil
}

// MarkAbsentees implements attendance.AttendanceService. It backfills the
// previous day: weekly-off days produce holiday records, everything else
// produces absent records. Re-runs are harmless because employees with an
// existing record for the day are skipped.
func (s *AttendanceServiceImpl) MarkAbsentees(ctx context.Context, now time.Time) (int, error) {
	target := dayOf(now.In(s.loc), s.loc).AddDate(0, 0, -1)

	employees, err := s.EmployeeRepository.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	var records []attendance.Attendance
	for _, emp := range employees {
		existing, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, emp.ID, target)
		if err != nil {
			return 0, fmt.Errorf("failed to check attendance for employee %s: %w", emp.ID, err)
		}
		if existing != nil {
			continue
		}

		policy, err := s.timingService.ResolvePolicy(ctx, emp.DepartmentID)
		if err != nil {
			s.logger.Error("absent marking: failed to resolve timing policy",
				slog.String("employee_id", emp.ID),
				slog.Any("error", err))
			continue
		}

		status := attendance.StatusAbsent
		if policy.IsWeeklyOff(target.Weekday()) {
			status = attendance.StatusHoliday
		}

		records = append(records, attendance.Attendance{
			ID:           uuid.NewString(),
			EmployeeID:   emp.ID,
			DepartmentID: emp.DepartmentID,
			Date:         target,
			Type:         attendance.TypeOffice,
			Status:       status,
		})
	}

	if len(records) == 0 {
		return 0, nil
	}

	if err := s.AttendanceRepository.BulkCreate(ctx, records); err != nil {
		return 0, fmt.Errorf("failed to create absence records: %w", err)
	}

	s.logger.Info("absent marking completed",
		slog.String("date", target.Format("2006-01-02")),
		slog.Int("marked", len(records)))

	return len(records), nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	employeeID, err := employeeIDFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.AttendanceRepository.ListByEmployee(ctx, employeeID, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return toListResponse(records, total, filter.Page, filter.Limit), nil
}

// ListAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	records, total, err := s.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return toListResponse(records, total, filter.Page, filter.Limit), nil
}

// GetAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	rec, err := s.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	return toResponse(rec), nil
}

// UpdateAttendance implements attendance.AttendanceService. Manager
// correction path: times and status may be rewritten, and derived work and
// overtime minutes are recomputed whenever both clock times are present.
func (s *AttendanceServiceImpl) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	rec, err := s.AttendanceRepository.GetByID(ctx, req.ID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if req.CheckInTime != nil {
		t, _ := time.Parse(time.RFC3339, *req.CheckInTime)
		local := t.In(s.loc)
		rec.CheckInTime = &local
	}
	if req.CheckOutTime != nil {
		t, _ := time.Parse(time.RFC3339, *req.CheckOutTime)
		local := t.In(s.loc)
		rec.CheckOutTime = &local
	}
	if req.Status != nil {
		rec.Status = attendance.Status(*req.Status)
	}
	if req.LateMinutes != nil {
		rec.LateMinutes = *req.LateMinutes
		rec.IsLate = *req.LateMinutes > 0
	}
	if req.Reason != nil {
		rec.Reason = req.Reason
	}

	if rec.CheckInTime != nil && rec.CheckOutTime != nil {
		policy, err := s.timingService.ResolvePolicy(ctx, rec.DepartmentID)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to resolve timing policy: %w", err)
		}

		work, overtime := ComputeWork(*rec.CheckInTime, *rec.CheckOutTime, policy)
		if !rec.OvertimeRequested {
			overtime = 0
		}
		rec.WorkMinutes = &work
		rec.OvertimeMinutes = overtime
	}

	if err := s.AttendanceRepository.Update(ctx, rec); err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to update attendance record: %w", err)
	}

	return toResponse(rec), nil
}

// locateOffice annotates a clock coordinate with the nearest active
// geofence. Failures degrade to an unannotated record: distance is an
// audit signal, never a gate.
func (s *AttendanceServiceImpl) locateOffice(ctx context.Context, location attendance.Location) (*bool, *float64, *string) {
	offices, err := s.timingService.ActiveOffices(ctx)
	if err != nil {
		s.logger.Warn("failed to load office locations", slog.Any("error", err))
		return nil, nil, nil
	}

	fences := make([]geo.Fence, 0, len(offices))
	for _, o := range offices {
		fences = append(fences, geo.Fence{
			Name:         o.Name,
			Latitude:     o.Latitude,
			Longitude:    o.Longitude,
			RadiusMeters: o.RadiusMeters,
		})
	}

	nearest, ok := geo.Nearest(location.Latitude, location.Longitude, fences)
	if !ok {
		return nil, nil, nil
	}

	return &nearest.WithinRadius, &nearest.DistanceMeters, &nearest.FenceName
}

func toResponse(rec attendance.Attendance) attendance.AttendanceResponse {
	resp := attendance.AttendanceResponse{
		ID:                 rec.ID,
		EmployeeID:         rec.EmployeeID,
		Date:               rec.Date.Format("2006-01-02"),
		CheckInTime:        timePtrToString(rec.CheckInTime),
		CheckOutTime:       timePtrToString(rec.CheckOutTime),
		Type:               string(rec.Type),
		Status:             string(rec.Status),
		IsLate:             rec.IsLate,
		LateMinutes:        rec.LateMinutes,
		EarlyMinutes:       rec.EarlyMinutes,
		EarlyLeaveMinutes:  rec.EarlyLeaveMinutes,
		OvertimeRequested:  rec.OvertimeRequested,
		OvertimeHours:      rec.OvertimeHours(),
		Reason:             rec.Reason,
		OvertimeReason:     rec.OvertimeReason,
		WithinOfficeRadius: rec.WithinOfficeRadius,
		DistanceFromOffice: rec.DistanceFromOffice,
		NearestOffice:      rec.NearestOffice,
		AutoClosed:         rec.AutoClosed,
		CheckInPhotoURL:    rec.CheckInPhotoURL,
		CheckOutPhotoURL:   rec.CheckOutPhotoURL,
	}

	if rec.EmployeeName != nil {
		resp.EmployeeName = *rec.EmployeeName
	}
	if rec.WorkMinutes != nil {
		hours := rec.WorkingHours()
		resp.WorkingHours = &hours
	}

	return resp
}

func toListResponse(records []attendance.Attendance, total int64, page, limit int) attendance.ListAttendanceResponse {
	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, toResponse(rec))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		Attendances: responses,
	}
}

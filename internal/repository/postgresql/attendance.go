package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/attendance"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.department_id, a.date,
	a.check_in_time, a.check_in_latitude, a.check_in_longitude, a.check_in_accuracy, a.check_in_photo_url,
	a.check_out_time, a.check_out_latitude, a.check_out_longitude, a.check_out_photo_url,
	a.attendance_type, a.status,
	a.is_late, a.late_minutes, a.early_minutes, a.early_leave_minutes,
	a.reason, a.overtime_requested, a.overtime_reason,
	a.work_minutes, a.overtime_minutes,
	a.within_office_radius, a.distance_from_office, a.nearest_office,
	a.auto_closed, a.close_note,
	a.created_at, a.updated_at,
	e.full_name`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.DepartmentID, &att.Date,
		&att.CheckInTime, &att.CheckInLatitude, &att.CheckInLongitude, &att.CheckInAccuracy, &att.CheckInPhotoURL,
		&att.CheckOutTime, &att.CheckOutLatitude, &att.CheckOutLongitude, &att.CheckOutPhotoURL,
		&att.Type, &att.Status,
		&att.IsLate, &att.LateMinutes, &att.EarlyMinutes, &att.EarlyLeaveMinutes,
		&att.Reason, &att.OvertimeRequested, &att.OvertimeReason,
		&att.WorkMinutes, &att.OvertimeMinutes,
		&att.WithinOfficeRadius, &att.DistanceFromOffice, &att.NearestOffice,
		&att.AutoClosed, &att.CloseNote,
		&att.CreatedAt, &att.UpdatedAt,
		&att.EmployeeName,
	)
	return att, err
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			id, employee_id, department_id, date,
			check_in_time, check_in_latitude, check_in_longitude, check_in_accuracy, check_in_photo_url,
			attendance_type, status,
			is_late, late_minutes, early_minutes,
			reason, within_office_radius, distance_from_office, nearest_office
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.EmployeeID,
		newAttendance.DepartmentID,
		newAttendance.Date,
		newAttendance.CheckInTime,
		newAttendance.CheckInLatitude,
		newAttendance.CheckInLongitude,
		newAttendance.CheckInAccuracy,
		newAttendance.CheckInPhotoURL,
		newAttendance.Type,
		newAttendance.Status,
		newAttendance.IsLate,
		newAttendance.LateMinutes,
		newAttendance.EarlyMinutes,
		newAttendance.Reason,
		newAttendance.WithinOfficeRadius,
		newAttendance.DistanceFromOffice,
		newAttendance.NearestOffice,
	).Scan(&newAttendance.CreatedAt, &newAttendance.UpdatedAt)

	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	return newAttendance, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.id = $1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
		  AND a.date = $2
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &att, nil
}

// GetOpenByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
		  AND a.date = $2
		  AND a.check_in_time IS NOT NULL
		  AND a.check_out_time IS NULL
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrNoOpenAttendance
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get open attendance: %w", err)
	}

	return att, nil
}

// Update implements attendance.AttendanceRepository.
func (a *attendanceRepository) Update(ctx context.Context, att attendance.Attendance) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances SET
			check_in_time = $2,
			check_out_time = $3,
			check_out_latitude = $4,
			check_out_longitude = $5,
			check_out_photo_url = $6,
			status = $7,
			is_late = $8,
			late_minutes = $9,
			early_leave_minutes = $10,
			reason = $11,
			overtime_requested = $12,
			overtime_reason = $13,
			work_minutes = $14,
			overtime_minutes = $15,
			within_office_radius = $16,
			distance_from_office = $17,
			nearest_office = $18,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		att.ID,
		att.CheckInTime,
		att.CheckOutTime,
		att.CheckOutLatitude,
		att.CheckOutLongitude,
		att.CheckOutPhotoURL,
		att.Status,
		att.IsLate,
		att.LateMinutes,
		att.EarlyLeaveMinutes,
		att.Reason,
		att.OvertimeRequested,
		att.OvertimeReason,
		att.WorkMinutes,
		att.OvertimeMinutes,
		att.WithinOfficeRadius,
		att.DistanceFromOffice,
		att.NearestOffice,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}

	return nil
}

// CloseIfOpen implements attendance.AttendanceRepository. The WHERE clause
// on check_out_time IS NULL makes the forced close a compare-and-swap.
func (a *attendanceRepository) CloseIfOpen(ctx context.Context, id string, fc attendance.ForcedClose) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances SET
			check_out_time = $2,
			work_minutes = $3,
			overtime_minutes = $4,
			status = $5,
			auto_closed = TRUE,
			close_note = $6,
			updated_at = NOW()
		WHERE id = $1
		  AND check_out_time IS NULL
	`

	tag, err := q.Exec(ctx, query,
		id,
		fc.CheckOutTime,
		fc.WorkMinutes,
		fc.OvertimeMinutes,
		fc.Status,
		fc.Note,
	)
	if err != nil {
		return false, fmt.Errorf("failed to close attendance: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ListOpenByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpenByDate(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.date = $1
		  AND a.check_in_time IS NOT NULL
		  AND a.check_out_time IS NULL
		ORDER BY a.check_in_time
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendance: %w", err)
	}
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, att)
	}

	return out, rows.Err()
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	where := "WHERE 1=1"
	args := []interface{}{}

	if filter.EmployeeID != nil {
		args = append(args, *filter.EmployeeID)
		where += fmt.Sprintf(" AND a.employee_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND a.status = $%d", len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where += fmt.Sprintf(" AND a.date >= $%d", len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where += fmt.Sprintf(" AND a.date <= $%d", len(args))
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM attendances a " + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance: %w", err)
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM attendances a
		JOIN employees e ON e.id = a.employee_id
		%s
		ORDER BY a.date DESC, a.check_in_time DESC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, att)
	}

	return out, total, rows.Err()
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	full := attendance.AttendanceFilter{
		EmployeeID: &employeeID,
		DateFrom:   filter.DateFrom,
		DateTo:     filter.DateTo,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}
	return a.List(ctx, full)
}

// BulkCreate implements attendance.AttendanceRepository.
func (a *attendanceRepository) BulkCreate(ctx context.Context, records []attendance.Attendance) error {
	if len(records) == 0 {
		return nil
	}

	return WithTransaction(ctx, a.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO attendances (id, employee_id, department_id, date, attendance_type, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (employee_id, date) DO NOTHING
		`

		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(query, rec.ID, rec.EmployeeID, rec.DepartmentID, rec.Date, rec.Type, rec.Status)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range records {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to insert absence record: %w", err)
			}
		}
		return nil
	})
}

// GetSweepWatermark implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetSweepWatermark(ctx context.Context, name string) (*time.Time, error) {
	q := GetQuerier(ctx, a.db)

	var sweptAt time.Time
	err := q.QueryRow(ctx, `SELECT swept_at FROM sweep_watermarks WHERE name = $1`, name).Scan(&sweptAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sweep watermark: %w", err)
	}

	return &sweptAt, nil
}

// SetSweepWatermark implements attendance.AttendanceRepository.
func (a *attendanceRepository) SetSweepWatermark(ctx context.Context, name string, sweptAt time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO sweep_watermarks (name, swept_at)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET swept_at = EXCLUDED.swept_at
	`

	if _, err := q.Exec(ctx, query, name, sweptAt); err != nil {
		return fmt.Errorf("failed to set sweep watermark: %w", err)
	}
	return nil
}

package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/database"
)

type timingPolicyRepository struct {
	db *database.DB
}

func NewTimingPolicyRepository(db *database.DB) timing.TimingPolicyRepository {
	return &timingPolicyRepository{db: db}
}

// Upsert implements timing.TimingPolicyRepository. One policy per
// department: a second upsert replaces the row in place.
func (r *timingPolicyRepository) Upsert(ctx context.Context, policy timing.TimingPolicy) (timing.TimingPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO timing_policies (
			id, department_id, check_in_time, check_out_time, working_hours_per_day,
			late_threshold_minutes, overtime_threshold_minutes, weekly_off_days,
			is_flexible_timing, flexible_window_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (department_id) DO UPDATE SET
			check_in_time = EXCLUDED.check_in_time,
			check_out_time = EXCLUDED.check_out_time,
			working_hours_per_day = EXCLUDED.working_hours_per_day,
			late_threshold_minutes = EXCLUDED.late_threshold_minutes,
			overtime_threshold_minutes = EXCLUDED.overtime_threshold_minutes,
			weekly_off_days = EXCLUDED.weekly_off_days,
			is_flexible_timing = EXCLUDED.is_flexible_timing,
			flexible_window_minutes = EXCLUDED.flexible_window_minutes,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		policy.ID,
		policy.DepartmentID,
		policy.CheckInTime,
		policy.CheckOutTime,
		policy.WorkingHoursPerDay,
		policy.LateThresholdMinutes,
		policy.OvertimeThresholdMinutes,
		policy.WeeklyOffDays,
		policy.IsFlexibleTiming,
		policy.FlexibleWindowMinutes,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)

	if err != nil {
		return timing.TimingPolicy{}, fmt.Errorf("failed to upsert timing policy: %w", err)
	}

	return policy, nil
}

// GetByDepartment implements timing.TimingPolicyRepository.
func (r *timingPolicyRepository) GetByDepartment(ctx context.Context, departmentID string) (timing.TimingPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, department_id, check_in_time, check_out_time, working_hours_per_day,
			   late_threshold_minutes, overtime_threshold_minutes, weekly_off_days,
			   is_flexible_timing, flexible_window_minutes, created_at, updated_at
		FROM timing_policies
		WHERE department_id = $1
	`

	var policy timing.TimingPolicy
	err := q.QueryRow(ctx, query, departmentID).Scan(
		&policy.ID, &policy.DepartmentID, &policy.CheckInTime, &policy.CheckOutTime,
		&policy.WorkingHoursPerDay, &policy.LateThresholdMinutes, &policy.OvertimeThresholdMinutes,
		&policy.WeeklyOffDays, &policy.IsFlexibleTiming, &policy.FlexibleWindowMinutes,
		&policy.CreatedAt, &policy.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timing.TimingPolicy{}, timing.ErrPolicyNotFound
		}
		return timing.TimingPolicy{}, fmt.Errorf("failed to get timing policy: %w", err)
	}

	return policy, nil
}

// List implements timing.TimingPolicyRepository.
func (r *timingPolicyRepository) List(ctx context.Context) ([]timing.TimingPolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, department_id, check_in_time, check_out_time, working_hours_per_day,
			   late_threshold_minutes, overtime_threshold_minutes, weekly_off_days,
			   is_flexible_timing, flexible_window_minutes, created_at, updated_at
		FROM timing_policies
		ORDER BY department_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list timing policies: %w", err)
	}
	defer rows.Close()

	var out []timing.TimingPolicy
	for rows.Next() {
		var policy timing.TimingPolicy
		if err := rows.Scan(
			&policy.ID, &policy.DepartmentID, &policy.CheckInTime, &policy.CheckOutTime,
			&policy.WorkingHoursPerDay, &policy.LateThresholdMinutes, &policy.OvertimeThresholdMinutes,
			&policy.WeeklyOffDays, &policy.IsFlexibleTiming, &policy.FlexibleWindowMinutes,
			&policy.CreatedAt, &policy.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timing policy: %w", err)
		}
		out = append(out, policy)
	}

	return out, rows.Err()
}

package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/attendance"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
)

func testPolicy() timing.TimingPolicy {
	return timing.TimingPolicy{
		ID:                       "pol-1",
		DepartmentID:             "dept-1",
		CheckInTime:              "09:00",
		CheckOutTime:             "18:00",
		WorkingHoursPerDay:       8,
		LateThresholdMinutes:     15,
		OvertimeThresholdMinutes: 30,
		WeeklyOffDays:            []int{int(time.Sunday)},
	}
}

func at(t *testing.T, clock string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2026-03-10 "+clock)
	require.NoError(t, err)
	return ts.In(time.UTC)
}

func TestClassifyCheckIn(t *testing.T) {
	policy := testPolicy()

	tests := []struct {
		name         string
		now          string
		wantEarly    bool
		wantEarlyMin int
		wantLate     bool
		wantLateMin  int
		wantStatus   attendance.Status
	}{
		{
			name:         "before scheduled time is early",
			now:          "08:30",
			wantEarly:    true,
			wantEarlyMin: 30,
			wantStatus:   attendance.StatusPresent,
		},
		{
			name:       "exactly on time",
			now:        "09:00",
			wantStatus: attendance.StatusPresent,
		},
		{
			name:       "inside grace window is on time",
			now:        "09:10",
			wantStatus: attendance.StatusPresent,
		},
		{
			name:       "last minute of grace is on time",
			now:        "09:15",
			wantStatus: attendance.StatusPresent,
		},
		{
			name:        "late counted from end of grace",
			now:         "09:40",
			wantLate:    true,
			wantLateMin: 25,
			wantStatus:  attendance.StatusLate,
		},
		{
			name:        "one minute past grace",
			now:         "09:16",
			wantLate:    true,
			wantLateMin: 1,
			wantStatus:  attendance.StatusLate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCheckIn(at(t, tt.now), policy, time.UTC)

			assert.Equal(t, tt.wantEarly, got.Early)
			assert.Equal(t, tt.wantEarlyMin, got.EarlyMinutes)
			assert.Equal(t, tt.wantLate, got.Late)
			assert.Equal(t, tt.wantLateMin, got.LateMinutes)
			assert.Equal(t, tt.wantStatus, got.Status)
		})
	}
}

func TestClassifyCheckIn_EarlyAndLateExclusive(t *testing.T) {
	policy := testPolicy()

	for hour := 6; hour < 23; hour++ {
		for _, minute := range []int{0, 1, 14, 15, 16, 30, 59} {
			now := time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
			got := ClassifyCheckIn(now, policy, time.UTC)
			assert.False(t, got.Early && got.Late, "both early and late at %s", now)
		}
	}
}

func TestClassifyCheckOut(t *testing.T) {
	policy := testPolicy()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		now           string
		wantEarly     bool
		wantEarlyMin  int
		wantEligible  bool
		wantPastSched int
	}{
		{
			name:         "before scheduled end is early leave",
			now:          "17:30",
			wantEarly:    true,
			wantEarlyMin: 30,
		},
		{
			name:         "exactly at scheduled end",
			now:          "18:00",
			wantEligible: true,
		},
		{
			name:          "past scheduled end is overtime eligible",
			now:           "19:15",
			wantEligible:  true,
			wantPastSched: 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCheckOut(at(t, tt.now), day, policy, time.UTC)

			assert.Equal(t, tt.wantEarly, got.Early)
			assert.Equal(t, tt.wantEarlyMin, got.EarlyLeaveMinutes)
			assert.Equal(t, tt.wantEligible, got.OvertimeEligible)
			assert.Equal(t, tt.wantPastSched, got.MinutesPastScheduled)
		})
	}
}

func TestClassifyCheckOut_OvernightShift(t *testing.T) {
	policy := testPolicy()
	policy.CheckInTime = "22:00"
	policy.CheckOutTime = "06:00"
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// 05:00 next day is still an hour before the shift ends.
	now := time.Date(2026, 3, 11, 5, 0, 0, 0, time.UTC)
	got := ClassifyCheckOut(now, day, policy, time.UTC)

	assert.True(t, got.Early)
	assert.Equal(t, 60, got.EarlyLeaveMinutes)
}

func TestComputeWork(t *testing.T) {
	policy := testPolicy()
	day := func(clock string) time.Time {
		ts, _ := time.Parse("2006-01-02 15:04", "2026-03-10 "+clock)
		return ts
	}

	tests := []struct {
		name     string
		in, out  string
		wantWork int
		wantOT   int
	}{
		{
			name:     "short day keeps actual minutes",
			in:       "09:00",
			out:      "13:00",
			wantWork: 240,
		},
		{
			name:     "full day caps at standard",
			in:       "09:00",
			out:      "17:00",
			wantWork: 480,
		},
		{
			name:     "excess below threshold is dropped",
			in:       "09:00",
			out:      "17:20",
			wantWork: 480,
			wantOT:   0,
		},
		{
			name:     "excess at threshold counts in full",
			in:       "09:00",
			out:      "17:30",
			wantWork: 480,
			wantOT:   30,
		},
		{
			name:     "long overtime",
			in:       "09:00",
			out:      "20:00",
			wantWork: 480,
			wantOT:   180,
		},
		{
			name:     "checkout before checkin clamps to zero",
			in:       "09:00",
			out:      "08:00",
			wantWork: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			work, ot := ComputeWork(day(tt.in), day(tt.out), policy)

			assert.Equal(t, tt.wantWork, work)
			assert.Equal(t, tt.wantOT, ot)
		})
	}
}

func TestComputeWork_WorkNeverExceedsStandard(t *testing.T) {
	policy := testPolicy()
	in := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for minutes := 0; minutes <= 16*60; minutes += 17 {
		work, ot := ComputeWork(in, in.Add(time.Duration(minutes)*time.Minute), policy)

		assert.LessOrEqual(t, work, policy.StandardWorkingMinutes())
		if ot > 0 {
			assert.GreaterOrEqual(t, ot, policy.OvertimeThresholdMinutes)
			assert.Equal(t, policy.StandardWorkingMinutes(), work)
		}
	}
}

func openRecord(in time.Time) attendance.Attendance {
	return attendance.Attendance{
		ID:          "att-1",
		EmployeeID:  "emp-1",
		Date:        time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC),
		CheckInTime: &in,
		Status:      attendance.StatusPresent,
	}
}

func TestPlanAutoClose(t *testing.T) {
	policy := testPolicy()
	in := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("open record before grace deadline stays open", func(t *testing.T) {
		rec := openRecord(in)
		now := time.Date(2026, 3, 10, 19, 59, 0, 0, time.UTC)

		_, ok := PlanAutoClose(rec, policy, now, time.UTC)
		assert.False(t, ok)
	})

	t.Run("closed at deadline and backdated to it", func(t *testing.T) {
		rec := openRecord(in)
		now := time.Date(2026, 3, 10, 20, 1, 0, 0, time.UTC)

		fc, ok := PlanAutoClose(rec, policy, now, time.UTC)
		require.True(t, ok)

		assert.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), fc.CheckOutTime)
		assert.Equal(t, 480, fc.WorkMinutes)
		assert.Zero(t, fc.OvertimeMinutes)
		assert.Equal(t, attendance.StatusPresent, fc.Status)
	})

	t.Run("work stops at scheduled end even for long overruns", func(t *testing.T) {
		rec := openRecord(time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC))
		now := time.Date(2026, 3, 10, 21, 0, 0, 0, time.UTC)

		fc, ok := PlanAutoClose(rec, policy, now, time.UTC)
		require.True(t, ok)

		// 13:00 to 18:00 is five hours of work, nothing beyond it.
		assert.Equal(t, 300, fc.WorkMinutes)
		assert.Zero(t, fc.OvertimeMinutes)
	})

	t.Run("overtime request blocks the two hour rule", func(t *testing.T) {
		rec := openRecord(in)
		rec.OvertimeRequested = true
		now := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)

		_, ok := PlanAutoClose(rec, policy, now, time.UTC)
		assert.False(t, ok)
	})

	t.Run("emergency cutoff closes overtime records with full overtime", func(t *testing.T) {
		rec := openRecord(in)
		rec.OvertimeRequested = true
		now := time.Date(2026, 3, 10, 23, 55, 0, 0, time.UTC)

		fc, ok := PlanAutoClose(rec, policy, now, time.UTC)
		require.True(t, ok)

		assert.Equal(t, now, fc.CheckOutTime)
		assert.Equal(t, 480, fc.WorkMinutes)
		// 09:00 to 23:55 is 895 minutes, 415 beyond the standard day.
		assert.Equal(t, 415, fc.OvertimeMinutes)
	})

	t.Run("emergency cutoff without overtime request pays no overtime", func(t *testing.T) {
		rec := openRecord(in)
		now := time.Date(2026, 3, 10, 23, 56, 0, 0, time.UTC)

		fc, ok := PlanAutoClose(rec, policy, now, time.UTC)
		require.True(t, ok)

		assert.Equal(t, now, fc.CheckOutTime)
		assert.Equal(t, 480, fc.WorkMinutes)
		assert.Zero(t, fc.OvertimeMinutes)
	})

	t.Run("already closed record is skipped", func(t *testing.T) {
		rec := openRecord(in)
		out := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
		rec.CheckOutTime = &out
		now := time.Date(2026, 3, 10, 23, 56, 0, 0, time.UTC)

		_, ok := PlanAutoClose(rec, policy, now, time.UTC)
		assert.False(t, ok)
	})
}

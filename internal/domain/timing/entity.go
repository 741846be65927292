package timing

import (
	"time"
)

// TimingPolicy is the per-department configuration every clock decision
// reads: scheduled in/out clock times, grace and overtime thresholds, and
// the standard working day. Stored once per department, cached with a
// short TTL, read-only to the attendance engine.
type TimingPolicy struct {
	ID                       string
	DepartmentID             string
	CheckInTime              string // "15:04" 24-hour wall clock
	CheckOutTime             string
	WorkingHoursPerDay       float64
	LateThresholdMinutes     int
	OvertimeThresholdMinutes int
	WeeklyOffDays            []int // time.Weekday values
	IsFlexibleTiming         bool
	FlexibleWindowMinutes    int
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func parseClock(s string) (hour, minute int) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

// ExpectedCheckIn returns the scheduled check-in instant for the given
// working day in the given location.
func (p TimingPolicy) ExpectedCheckIn(date time.Time, loc *time.Location) time.Time {
	h, m := parseClock(p.CheckInTime)
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc)
}

// ExpectedCheckOut returns the scheduled check-out instant for the given
// working day. Overnight shifts wrap to the next calendar day: a check-out
// clock time at or before the check-in clock time means the shift ends
// tomorrow.
func (p TimingPolicy) ExpectedCheckOut(date time.Time, loc *time.Location) time.Time {
	h, m := parseClock(p.CheckOutTime)
	out := time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc)

	inH, inM := parseClock(p.CheckInTime)
	if h*60+m <= inH*60+inM {
		out = out.Add(24 * time.Hour)
	}
	return out
}

// StandardWorkingMinutes is the length of the regular working day.
func (p TimingPolicy) StandardWorkingMinutes() int {
	return int(p.WorkingHoursPerDay * 60)
}

// IsWeeklyOff reports whether the weekday is a scheduled off day.
func (p TimingPolicy) IsWeeklyOff(d time.Weekday) bool {
	for _, off := range p.WeeklyOffDays {
		if time.Weekday(off) == d {
			return true
		}
	}
	return false
}

// OfficeLocation is a named geofence center used to annotate clock events
// with distance-from-office. Geofencing is advisory: the distance and the
// within-radius flag are recorded for audit, never used to block.
type OfficeLocation struct {
	ID           string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

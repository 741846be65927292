package attendance

import (
	"time"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/attendance"
	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
)

const (
	// How long past the scheduled check-out an open record survives
	// before the sweep force-closes it, unless overtime was requested.
	autoCheckoutGrace = 2 * time.Hour

	// Terminal safety net: nothing stays open past this local time.
	emergencyCutoffHour   = 23
	emergencyCutoffMinute = 55
)

// CheckInClassification is the timing verdict for a single check-in
// instant. Early and Late are mutually exclusive: early wins only when the
// instant is strictly before the scheduled time.
type CheckInClassification struct {
	Expected     time.Time
	Early        bool
	EarlyMinutes int
	Late         bool
	LateMinutes  int
	Status       attendance.Status
}

// ClassifyCheckIn resolves early/on-time/late for a check-in happening at
// now against the department policy. Lateness is measured from the end of
// the grace window, not from the scheduled time itself.
func ClassifyCheckIn(now time.Time, policy timing.TimingPolicy, loc *time.Location) CheckInClassification {
	nowLocal := now.In(loc)
	expected := policy.ExpectedCheckIn(nowLocal, loc)
	graceLimit := expected.Add(time.Duration(policy.LateThresholdMinutes) * time.Minute)

	c := CheckInClassification{Expected: expected, Status: attendance.StatusPresent}

	switch {
	case nowLocal.Before(expected):
		c.Early = true
		c.EarlyMinutes = int(expected.Sub(nowLocal).Minutes())
	case nowLocal.After(graceLimit):
		c.Late = true
		c.LateMinutes = int(nowLocal.Sub(graceLimit).Minutes())
		c.Status = attendance.StatusLate
	}

	return c
}

// CheckOutClassification is the timing verdict for a check-out instant.
type CheckOutClassification struct {
	Expected             time.Time
	Early                bool
	EarlyLeaveMinutes    int
	OvertimeEligible     bool
	MinutesPastScheduled int
}

// ClassifyCheckOut resolves early-leave vs overtime-eligible for a
// check-out happening at now, for a record opened on date.
func ClassifyCheckOut(now time.Time, date time.Time, policy timing.TimingPolicy, loc *time.Location) CheckOutClassification {
	nowLocal := now.In(loc)
	expected := policy.ExpectedCheckOut(date, loc)

	c := CheckOutClassification{Expected: expected}

	if nowLocal.Before(expected) {
		c.Early = true
		c.EarlyLeaveMinutes = int(expected.Sub(nowLocal).Minutes())
	} else {
		c.OvertimeEligible = true
		c.MinutesPastScheduled = int(nowLocal.Sub(expected).Minutes())
	}

	return c
}

// ComputeWork splits the checked-in duration into regular work minutes,
// capped at the policy's standard day, and overtime minutes. Excess below
// the overtime threshold is dropped so trivial overruns never pay out.
func ComputeWork(checkIn, checkOut time.Time, policy timing.TimingPolicy) (workMinutes, overtimeMinutes int) {
	total := int(checkOut.Sub(checkIn).Minutes())
	if total < 0 {
		total = 0
	}

	standard := policy.StandardWorkingMinutes()
	workMinutes = total
	if workMinutes > standard {
		workMinutes = standard
	}

	excess := total - standard
	if excess > 0 && excess >= policy.OvertimeThresholdMinutes {
		overtimeMinutes = excess
	}

	return workMinutes, overtimeMinutes
}

// EmergencyCutoff is the 23:55 instant of now's local day.
func EmergencyCutoff(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), emergencyCutoffHour, emergencyCutoffMinute, 0, 0, loc)
}

// PlanAutoClose decides whether the sweep must force-close an open record
// at now, and with what values. Returns false when the record should stay
// open.
//
// Two triggers, checked in order:
//   - the 23:55 emergency cutoff closes everything still open, including
//     overtime-confirmed records;
//   - otherwise, a record without an overtime request is closed once now
//     reaches scheduled-checkout + 2h, backdated to that instant.
//
// A forced close without an overtime request never pays overtime, and its
// work minutes stop at the scheduled checkout: overtime must be explicitly
// requested to count.
func PlanAutoClose(rec attendance.Attendance, policy timing.TimingPolicy, now time.Time, loc *time.Location) (attendance.ForcedClose, bool) {
	if !rec.IsOpen() {
		return attendance.ForcedClose{}, false
	}

	nowLocal := now.In(loc)
	expectedOut := policy.ExpectedCheckOut(rec.Date, loc)
	cutoff := EmergencyCutoff(now, loc)

	if !nowLocal.Before(cutoff) {
		fc := attendance.ForcedClose{
			CheckOutTime: nowLocal,
			Status:       rec.Status,
			Note:         "auto-closed at emergency cutoff",
		}
		if rec.OvertimeRequested {
			fc.WorkMinutes, fc.OvertimeMinutes = ComputeWork(*rec.CheckInTime, nowLocal, policy)
		} else {
			end := expectedOut
			if nowLocal.Before(end) {
				end = nowLocal
			}
			fc.WorkMinutes, _ = ComputeWork(*rec.CheckInTime, end, policy)
		}
		return fc, true
	}

	if rec.OvertimeRequested {
		// Only the emergency cutoff may close an overtime-confirmed record.
		return attendance.ForcedClose{}, false
	}

	deadline := expectedOut.Add(autoCheckoutGrace)
	if nowLocal.Before(deadline) {
		return attendance.ForcedClose{}, false
	}

	work, _ := ComputeWork(*rec.CheckInTime, expectedOut, policy)
	return attendance.ForcedClose{
		CheckOutTime: deadline,
		WorkMinutes:  work,
		Status:       rec.Status,
		Note:         "auto-closed: no check-out within 2 hours of scheduled end",
	}, true
}

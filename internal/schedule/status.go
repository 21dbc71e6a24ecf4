package schedule

import "time"

// DueStatus buckets a wheel by how close its next rotation is.
type DueStatus string

const (
	StatusUnscheduled DueStatus = "unscheduled"
	StatusOverdue     DueStatus = "overdue"
	StatusDueSoon     DueStatus = "due_soon"
	StatusOK          DueStatus = "ok"
)

// Status classifies nextDue relative to now. A wheel is due soon when its due
// date falls within horizon from now.
func Status(nextDue *time.Time, now time.Time, horizon time.Duration) DueStatus {
	switch {
	case nextDue == nil:
		return StatusUnscheduled
	case !nextDue.After(now):
		return StatusOverdue
	case !nextDue.After(now.Add(horizon)):
		return StatusDueSoon
	default:
		return StatusOK
	}
}

// NextChange returns when Status for nextDue will next differ from its value
// at now. It reports false once the wheel is overdue or unscheduled.
func NextChange(nextDue *time.Time, now time.Time, horizon time.Duration) (time.Time, bool) {
	if nextDue == nil {
		return time.Time{}, false
	}
	if soon := nextDue.Add(-horizon); now.Before(soon) {
		return soon, true
	}
	if now.Before(*nextDue) {
		return *nextDue, true
	}
	return time.Time{}, false
}

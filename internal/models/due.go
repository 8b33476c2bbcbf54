package models

// DueState is the bucket a contact's next touchpoint falls into.
type DueState string

const (
	DueOverdue     DueState = "overdue"
	DueToday       DueState = "today"
	DueSoon        DueState = "soon"
	DueScheduled   DueState = "scheduled"
	DueUnscheduled DueState = "unscheduled"
)

// Rank is the fixed ordering position of the bucket in contact listings.
// Overdue sorts first, unscheduled last.
func (s DueState) Rank() int {
	switch s {
	case DueOverdue:
		return 0
	case DueToday:
		return 1
	case DueSoon:
		return 2
	case DueScheduled:
		return 3
	default:
		return 4
	}
}

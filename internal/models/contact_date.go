package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Date kinds.
const (
	DateBirthday = "birthday"
	DateNameDay  = "name-day"
	DateCustom   = "custom"
)

// ContactDate is a recurring date attached to a contact. The natural key per
// contact is (kind, label, month, day); the year is optional.
type ContactDate struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label"`
	Month     int       `json:"month"`
	Day       int       `json:"day"`
	Year      *int      `json:"year"`
	CreatedAt time.Time `json:"created_at"`
}

// NewContactDate creates a new ContactDate with a generated UUID
func NewContactDate(contactID, kind string, month, day int) *ContactDate {
	return &ContactDate{
		ID:        uuid.New().String(),
		ContactID: contactID,
		Kind:      kind,
		Month:     month,
		Day:       day,
	}
}

// Validate checks kind, label, and that (month, day) names a real calendar
// day. When the year is absent, 2000 is used for the check so Feb 29 stays
// representable.
func (d *ContactDate) Validate() error {
	switch d.Kind {
	case DateBirthday, DateNameDay:
		d.Label = ""
	case DateCustom:
		d.Label = strings.TrimSpace(d.Label)
		if d.Label == "" {
			return &ValidationError{Field: "label", Message: "Custom dates require a label"}
		}
	default:
		return &ValidationError{Field: "kind", Message: "Unknown date kind"}
	}

	if d.Month < 1 || d.Month > 12 {
		return &ValidationError{Field: "month", Message: "Month must be between 1 and 12"}
	}

	year := 2000
	if d.Year != nil {
		year = *d.Year
	}
	if d.Day < 1 || d.Day > daysInMonth(year, d.Month) {
		return &ValidationError{Field: "day", Message: "Day does not exist in that month"}
	}
	return nil
}

// OccursOn reports whether the date occurs on the given calendar day.
// A Feb 29 entry falls back to Feb 28 in non-leap years rather than being
// skipped, and never matches a literal Feb 29 in a year that has none.
func (d *ContactDate) OccursOn(year, month, day int) bool {
	if d.Month == month && d.Day == day {
		if month == 2 && day == 29 && !isLeapYear(year) {
			return false
		}
		return true
	}
	if d.Month == 2 && d.Day == 29 && month == 2 && day == 28 && !isLeapYear(year) {
		return true
	}
	return false
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

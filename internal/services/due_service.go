package services

import (
	"time"

	"github.com/tomatyss/knotter/internal/models"
)

// Soon-window bounds. A window outside this range is a caller error, not
// something to clamp silently.
const (
	MinSoonWindowDays = 1
	MaxSoonWindowDays = 365
)

// Precision of a user-supplied timestamp. Users typing a bare date or a
// minute-granular time should not be rejected for clock skew inside that
// granularity, so each precision gets its own past-check.
type Precision int

const (
	PrecisionSecond Precision = iota
	PrecisionMinute
	PrecisionDate
)

// DueBounds are the local calendar boundaries every due computation and
// listing shares. Computing them once per request keeps per-item due labels
// and list ordering from ever disagreeing.
type DueBounds struct {
	Now           time.Time
	TomorrowStart time.Time
	SoonEnd       time.Time
}

// DueService implements the pure due-state and cadence rules. It holds no
// state; time and timezone are always passed in.
type DueService struct{}

func NewDueService() *DueService {
	return &DueService{}
}

// ValidateSoonWindow checks the soon-window width is within bounds.
func ValidateSoonWindow(days int) error {
	if days < MinSoonWindowDays || days > MaxSoonWindowDays {
		return &models.ValidationError{Field: "soon_window_days", Message: "Soon window must be between 1 and 365 days"}
	}
	return nil
}

// Bounds computes the shared boundaries for one due computation or listing.
func (s *DueService) Bounds(now time.Time, loc *time.Location, soonWindowDays int) (DueBounds, error) {
	if err := ValidateSoonWindow(soonWindowDays); err != nil {
		return DueBounds{}, err
	}
	local := now.In(loc)
	tomorrowStart := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	soonEnd := time.Date(local.Year(), local.Month(), local.Day()+1+soonWindowDays, 0, 0, 0, 0, loc)
	return DueBounds{
		Now:           now.UTC(),
		TomorrowStart: tomorrowStart.UTC(),
		SoonEnd:       soonEnd.UTC(),
	}, nil
}

// ComputeDueState buckets a touchpoint relative to now.
func (s *DueService) ComputeDueState(now time.Time, next *time.Time, soonWindowDays int, loc *time.Location) (models.DueState, error) {
	bounds, err := s.Bounds(now, loc, soonWindowDays)
	if err != nil {
		return "", err
	}
	return s.dueStateWithin(next, bounds), nil
}

// dueStateWithin buckets a touchpoint against precomputed bounds.
func (s *DueService) dueStateWithin(next *time.Time, bounds DueBounds) models.DueState {
	switch {
	case next == nil:
		return models.DueUnscheduled
	case next.Before(bounds.Now):
		return models.DueOverdue
	case next.Before(bounds.TomorrowStart):
		return models.DueToday
	case next.Before(bounds.SoonEnd):
		return models.DueSoon
	default:
		return models.DueScheduled
	}
}

// ScheduleNext returns now plus the cadence, in whole days of 86400 seconds.
func (s *DueService) ScheduleNext(now time.Time, cadenceDays int) (time.Time, error) {
	if err := models.ValidateCadence(cadenceDays); err != nil {
		return time.Time{}, err
	}
	return now.Add(time.Duration(cadenceDays) * 24 * time.Hour), nil
}

// EnsureFuture validates a user-supplied timestamp against now at the given
// precision and returns the timestamp to store.
//
// Second precision rejects anything strictly before now. Minute precision
// compares against now rounded down to the minute and snaps a result inside
// the current minute up to now. Date precision compares local calendar days
// and normalizes an accepted date to 23:59:59 local time.
func (s *DueService) EnsureFuture(now, timestamp time.Time, precision Precision, loc *time.Location) (time.Time, error) {
	switch precision {
	case PrecisionSecond:
		if timestamp.Before(now) {
			return time.Time{}, &models.ValidationError{Field: "timestamp", Message: "Timestamp is in the past"}
		}
		return timestamp.UTC(), nil

	case PrecisionMinute:
		minuteStart := now.Truncate(time.Minute)
		if timestamp.Before(minuteStart) {
			return time.Time{}, &models.ValidationError{Field: "timestamp", Message: "Timestamp is in the past"}
		}
		if timestamp.Before(now) {
			return now.UTC(), nil
		}
		return timestamp.UTC(), nil

	case PrecisionDate:
		nowLocal := now.In(loc)
		tsLocal := timestamp.In(loc)
		nowDay := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, loc)
		tsDay := time.Date(tsLocal.Year(), tsLocal.Month(), tsLocal.Day(), 0, 0, 0, 0, loc)
		if tsDay.Before(nowDay) {
			return time.Time{}, &models.ValidationError{Field: "timestamp", Message: "Date is in the past"}
		}
		endOfDay := time.Date(tsLocal.Year(), tsLocal.Month(), tsLocal.Day(), 23, 59, 59, 0, loc)
		return endOfDay.UTC(), nil

	default:
		return time.Time{}, &models.ValidationError{Field: "precision", Message: "Unknown timestamp precision"}
	}
}

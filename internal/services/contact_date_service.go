package services

import (
	"time"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
)

// YearPolicy decides what happens to the stored year when an upsert hits an
// existing date.
type YearPolicy int

const (
	// KeepExistingYear preserves a year already on file, adopting the new
	// one only when none is set.
	KeepExistingYear YearPolicy = iota
	// OverwriteYear always takes the incoming year.
	OverwriteYear
)

// UpcomingDate is a date occurrence inside a lookahead window.
type UpcomingDate struct {
	Date     *models.ContactDate `json:"date"`
	OccursOn time.Time           `json:"occurs_on"`
}

// ContactDateService manages birthdays and other recurring dates.
type ContactDateService struct {
	dateRepo    *repositories.ContactDateRepository
	contactRepo *repositories.ContactRepository
	clk         clock.Clock
}

func NewContactDateService(dateRepo *repositories.ContactDateRepository,
	contactRepo *repositories.ContactRepository, clk clock.Clock) *ContactDateService {
	return &ContactDateService{
		dateRepo:    dateRepo,
		contactRepo: contactRepo,
		clk:         clk,
	}
}

// UpsertDate creates or updates a date on its per-contact natural key
// (kind, label, month, day). Hitting an existing row is not an error; the
// year policy decides whether the stored year survives. Returns whether a
// new row was created.
func (s *ContactDateService) UpsertDate(date *models.ContactDate, policy YearPolicy) (bool, error) {
	if err := date.Validate(); err != nil {
		return false, err
	}
	if _, err := s.contactRepo.GetByID(date.ContactID); err != nil {
		return false, err
	}

	existing, err := s.dateRepo.GetByNaturalKey(date.ContactID, date.Kind, date.Label, date.Month, date.Day)
	if err != nil {
		return false, err
	}

	if existing == nil {
		date.CreatedAt = s.clk.Now()
		return true, s.dateRepo.Create(date)
	}

	if policy == OverwriteYear || existing.Year == nil {
		existing.Year = date.Year
	}
	*date = *existing
	return false, s.dateRepo.Update(existing)
}

// GetDates lists a contact's dates.
func (s *ContactDateService) GetDates(contactID string) ([]*models.ContactDate, error) {
	if _, err := s.contactRepo.GetByID(contactID); err != nil {
		return nil, err
	}
	return s.dateRepo.GetByContactID(contactID)
}

// DeleteDate removes a date by ID.
func (s *ContactDateService) DeleteDate(id string) error {
	return s.dateRepo.Delete(id)
}

// ListUpcoming returns every date occurring within the next days, today
// included, in occurrence order. Feb 29 entries fall back to Feb 28 in
// non-leap years.
func (s *ContactDateService) ListUpcoming(days int) ([]*UpcomingDate, error) {
	if days < 1 {
		return nil, &models.ValidationError{Field: "days", Message: "Lookahead must be at least one day"}
	}

	dates, err := s.dateRepo.GetAll()
	if err != nil {
		return nil, err
	}

	local := s.clk.Now().In(s.clk.Location())
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.clk.Location())

	var upcoming []*UpcomingDate
	for offset := 0; offset < days; offset++ {
		day := today.AddDate(0, 0, offset)
		for _, date := range dates {
			if date.OccursOn(day.Year(), int(day.Month()), day.Day()) {
				upcoming = append(upcoming, &UpcomingDate{Date: date, OccursOn: day})
			}
		}
	}
	return upcoming, nil
}

package services

import (
	"database/sql"
	"time"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
)

// PreferSide selects which contact's scalar fields win on conflict.
type PreferSide string

const (
	PreferPrimary   PreferSide = "primary"
	PreferSecondary PreferSide = "secondary"
)

// TouchpointRule selects how the merged touchpoint is combined.
type TouchpointRule string

const (
	TouchpointPrimary   TouchpointRule = "primary"
	TouchpointSecondary TouchpointRule = "secondary"
	TouchpointEarliest  TouchpointRule = "earliest"
	TouchpointLatest    TouchpointRule = "latest"
)

// ArchivedRule selects the merged archived state.
type ArchivedRule string

const (
	// ActiveIfAny unarchives the result if either side is active.
	ActiveIfAny           ArchivedRule = "active-if-any"
	ArchivedFromPrimary   ArchivedRule = "primary"
	ArchivedFromSecondary ArchivedRule = "secondary"
)

// MergeOptions steer a contact merge. Zero values mean prefer the primary,
// take the earliest touchpoint, and stay active if either side is.
type MergeOptions struct {
	Prefer     PreferSide     `json:"prefer"`
	Touchpoint TouchpointRule `json:"touchpoint"`
	Archived   ArchivedRule   `json:"archived"`
}

func (o *MergeOptions) normalize() error {
	if o.Prefer == "" {
		o.Prefer = PreferPrimary
	}
	if o.Touchpoint == "" {
		o.Touchpoint = TouchpointEarliest
	}
	if o.Archived == "" {
		o.Archived = ActiveIfAny
	}
	switch o.Prefer {
	case PreferPrimary, PreferSecondary:
	default:
		return &models.ValidationError{Field: "prefer", Message: "Unknown prefer side"}
	}
	switch o.Touchpoint {
	case TouchpointPrimary, TouchpointSecondary, TouchpointEarliest, TouchpointLatest:
	default:
		return &models.ValidationError{Field: "touchpoint", Message: "Unknown touchpoint rule"}
	}
	switch o.Archived {
	case ActiveIfAny, ArchivedFromPrimary, ArchivedFromSecondary:
	default:
		return &models.ValidationError{Field: "archived", Message: "Unknown archived rule"}
	}
	return nil
}

// MergeService fuses two contacts and every dependent record into one,
// all inside a single transaction.
type MergeService struct {
	db              *sql.DB
	contactRepo     *repositories.ContactRepository
	emailRepo       *repositories.ContactEmailRepository
	tagRepo         *repositories.TagRepository
	interactionRepo *repositories.InteractionRepository
	dateRepo        *repositories.ContactDateRepository
	linkedRepo      *repositories.LinkedRecordRepository
	candidateRepo   *repositories.MergeCandidateRepository
	clk             clock.Clock
}

func NewMergeService(db *sql.DB, contactRepo *repositories.ContactRepository,
	emailRepo *repositories.ContactEmailRepository, tagRepo *repositories.TagRepository,
	interactionRepo *repositories.InteractionRepository, dateRepo *repositories.ContactDateRepository,
	linkedRepo *repositories.LinkedRecordRepository, candidateRepo *repositories.MergeCandidateRepository,
	clk clock.Clock) *MergeService {
	return &MergeService{
		db:              db,
		contactRepo:     contactRepo,
		emailRepo:       emailRepo,
		tagRepo:         tagRepo,
		interactionRepo: interactionRepo,
		dateRepo:        dateRepo,
		linkedRepo:      linkedRepo,
		candidateRepo:   candidateRepo,
		clk:             clk,
	}
}

// choose picks the preferred side's value when present, falling back to the
// other side. Shared by every optional scalar field so the fallback logic
// lives in exactly one place.
func choose[T any](primary, secondary *T, preferSecondary bool) *T {
	first, second := primary, secondary
	if preferSecondary {
		first, second = secondary, primary
	}
	if first != nil {
		return first
	}
	return second
}

// MergeContacts absorbs the secondary contact into the primary. Tags, emails,
// interactions, dates and provider-linked records move over; the secondary
// row is deleted last. Any failure rolls the whole operation back.
func (s *MergeService) MergeContacts(primaryID, secondaryID string, opts MergeOptions) (*models.Contact, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if primaryID == secondaryID {
		return nil, &models.ConflictError{Message: "Cannot merge a contact with itself"}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	contactRepo := s.contactRepo.WithTx(tx)
	primary, err := contactRepo.GetByID(primaryID)
	if err != nil {
		return nil, err
	}
	secondary, err := contactRepo.GetByID(secondaryID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	preferSecondary := opts.Prefer == PreferSecondary

	if preferSecondary {
		primary.Name = secondary.Name
	}
	primary.Phone = choose(primary.Phone, secondary.Phone, preferSecondary)
	primary.Handle = choose(primary.Handle, secondary.Handle, preferSecondary)
	primary.Timezone = choose(primary.Timezone, secondary.Timezone, preferSecondary)
	primary.CadenceDays = choose(primary.CadenceDays, secondary.CadenceDays, preferSecondary)
	primary.NextTouchpoint = mergeTouchpoint(primary.NextTouchpoint, secondary.NextTouchpoint, opts.Touchpoint)
	primary.ArchivedAt = mergeArchived(primary.ArchivedAt, secondary.ArchivedAt, opts.Archived)

	if err := s.tagRepo.WithTx(tx).CopyLinks(secondaryID, primaryID); err != nil {
		return nil, err
	}
	if err := s.interactionRepo.WithTx(tx).RepointContact(secondaryID, primaryID); err != nil {
		return nil, err
	}
	if err := s.mergeDates(tx, primaryID, secondaryID); err != nil {
		return nil, err
	}
	if err := s.linkedRepo.WithTx(tx).RepointContact(secondaryID, primaryID); err != nil {
		return nil, err
	}
	if err := s.mergeEmails(tx, primary, secondaryID, preferSecondary); err != nil {
		return nil, err
	}
	if err := s.resolveCandidates(tx, primaryID, secondaryID, now); err != nil {
		return nil, err
	}

	primary.UpdatedAt = now
	if err := contactRepo.Update(primary); err != nil {
		return nil, err
	}

	if err := contactRepo.Delete(secondaryID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return primary, nil
}

func mergeTouchpoint(primary, secondary *time.Time, rule TouchpointRule) *time.Time {
	switch rule {
	case TouchpointPrimary:
		return primary
	case TouchpointSecondary:
		return secondary
	case TouchpointLatest:
		if primary == nil {
			return secondary
		}
		if secondary == nil {
			return primary
		}
		if secondary.After(*primary) {
			return secondary
		}
		return primary
	default: // TouchpointEarliest
		if primary == nil {
			return secondary
		}
		if secondary == nil {
			return primary
		}
		if secondary.Before(*primary) {
			return secondary
		}
		return primary
	}
}

func mergeArchived(primary, secondary *time.Time, rule ArchivedRule) *time.Time {
	switch rule {
	case ArchivedFromPrimary:
		return primary
	case ArchivedFromSecondary:
		return secondary
	default: // ActiveIfAny
		if primary == nil || secondary == nil {
			return nil
		}
		return primary
	}
}

// mergeDates re-points the secondary's dates, discarding a secondary row
// when the primary already has the same natural key. On collision the
// existing year survives if set, else the secondary's is adopted.
func (s *MergeService) mergeDates(tx *sql.Tx, primaryID, secondaryID string) error {
	dateRepo := s.dateRepo.WithTx(tx)
	secondaryDates, err := dateRepo.GetByContactID(secondaryID)
	if err != nil {
		return err
	}

	for _, date := range secondaryDates {
		existing, err := dateRepo.GetByNaturalKey(primaryID, date.Kind, date.Label, date.Month, date.Day)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Year == nil && date.Year != nil {
				existing.Year = date.Year
				if err := dateRepo.Update(existing); err != nil {
					return err
				}
			}
			if err := dateRepo.Delete(date.ID); err != nil {
				return err
			}
			continue
		}
		date.ContactID = primaryID
		if err := dateRepo.Update(date); err != nil {
			return err
		}
	}
	return nil
}

// mergeEmails unions both email sets onto the primary contact. Address
// collisions merge metadata (earliest creation time, provenance) instead of
// duplicating. The resulting primary address follows the prefer option
// through the fallback chain: preferred side's marked primary, preferred
// side's first address, other side's marked primary, other side's first.
func (s *MergeService) mergeEmails(tx *sql.Tx, primary *models.Contact, secondaryID string, preferSecondary bool) error {
	emailRepo := s.emailRepo.WithTx(tx)

	primaryEmails, err := emailRepo.GetByContactID(primary.ID)
	if err != nil {
		return err
	}
	secondaryEmails, err := emailRepo.GetByContactID(secondaryID)
	if err != nil {
		return err
	}

	byAddress := make(map[string]*models.ContactEmail, len(primaryEmails))
	for _, email := range primaryEmails {
		byAddress[email.Address] = email
	}

	for _, email := range secondaryEmails {
		existing, collided := byAddress[email.Address]
		if collided {
			changed := false
			if existing.Source == nil && email.Source != nil {
				existing.Source = email.Source
				changed = true
			}
			if email.CreatedAt.Before(existing.CreatedAt) {
				existing.CreatedAt = email.CreatedAt
				changed = true
			}
			if changed {
				if err := emailRepo.Update(existing); err != nil {
					return err
				}
			}
			if err := emailRepo.Delete(email.ID); err != nil {
				return err
			}
			continue
		}
		email.ContactID = primary.ID
		if err := emailRepo.Update(email); err != nil {
			return err
		}
	}

	preferred, other := primaryEmails, secondaryEmails
	if preferSecondary {
		preferred, other = secondaryEmails, primaryEmails
	}
	address := pickPrimaryAddress(preferred, other)

	if err := emailRepo.ClearPrimary(primary.ID); err != nil {
		return err
	}
	primary.Email = nil
	if address == "" {
		return nil
	}

	row, err := emailRepo.GetByAddress(address)
	if err != nil {
		return err
	}
	if row != nil {
		row.IsPrimary = true
		if err := emailRepo.Update(row); err != nil {
			return err
		}
	}
	primary.Email = &address
	return nil
}

func pickPrimaryAddress(preferred, other []*models.ContactEmail) string {
	// Exhaust the preferred side (marked primary, then any address) before
	// looking at the other side at all.
	for _, emails := range [][]*models.ContactEmail{preferred, other} {
		for _, email := range emails {
			if email.IsPrimary {
				return email.Address
			}
		}
		if len(emails) > 0 {
			return emails[0].Address
		}
	}
	return ""
}

// resolveCandidates closes every open candidate referencing the absorbed
// contact: the pair with the primary becomes Merged, all others are
// Dismissed. A dismissed party may still duplicate the primary; a later scan
// can re-detect that.
func (s *MergeService) resolveCandidates(tx *sql.Tx, primaryID, secondaryID string, now time.Time) error {
	candidateRepo := s.candidateRepo.WithTx(tx)
	candidates, err := candidateRepo.GetOpenByContact(secondaryID)
	if err != nil {
		return err
	}

	for _, candidate := range candidates {
		status := models.CandidateDismissed
		if candidate.Other(secondaryID) == primaryID {
			status = models.CandidateMerged
		}
		if err := candidateRepo.UpdateStatus(candidate.ID, status, now); err != nil {
			return err
		}
	}
	return nil
}

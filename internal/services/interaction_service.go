package services

import (
	"database/sql"
	"time"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
)

// InteractionService records interaction history. Interactions are immutable
// once created; only merges move them between contacts.
type InteractionService struct {
	db              *sql.DB
	interactionRepo *repositories.InteractionRepository
	contactRepo     *repositories.ContactRepository
	dueService      *DueService
	clk             clock.Clock
}

func NewInteractionService(db *sql.DB, interactionRepo *repositories.InteractionRepository,
	contactRepo *repositories.ContactRepository, dueService *DueService, clk clock.Clock) *InteractionService {
	return &InteractionService{
		db:              db,
		interactionRepo: interactionRepo,
		contactRepo:     contactRepo,
		dueService:      dueService,
		clk:             clk,
	}
}

// LogInteraction records an interaction for a contact. A zero happenedAt
// means now.
func (s *InteractionService) LogInteraction(contactID, kind, note string, happenedAt time.Time, followUp *time.Time) (*models.Interaction, error) {
	normalizedKind, err := models.NormalizeInteractionKind(kind)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	if happenedAt.IsZero() {
		happenedAt = now
	}

	if _, err := s.contactRepo.GetByID(contactID); err != nil {
		return nil, err
	}

	interaction := models.NewInteraction(contactID, normalizedKind, note, happenedAt.UTC())
	interaction.FollowUp = followUp
	interaction.CreatedAt = now
	if err := s.interactionRepo.Create(interaction); err != nil {
		return nil, err
	}
	return interaction, nil
}

// TouchContact records an interaction and pushes the contact's next
// touchpoint forward by its cadence, in one transaction. Contacts without a
// cadence just get the interaction logged.
func (s *InteractionService) TouchContact(contactID, kind, note string) (*models.Interaction, *models.Contact, error) {
	normalizedKind, err := models.NormalizeInteractionKind(kind)
	if err != nil {
		return nil, nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	contactRepo := s.contactRepo.WithTx(tx)
	contact, err := contactRepo.GetByID(contactID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clk.Now()
	interaction := models.NewInteraction(contactID, normalizedKind, note, now)
	interaction.CreatedAt = now
	if err := s.interactionRepo.WithTx(tx).Create(interaction); err != nil {
		return nil, nil, err
	}

	if contact.CadenceDays != nil {
		next, err := s.dueService.ScheduleNext(now, *contact.CadenceDays)
		if err != nil {
			return nil, nil, err
		}
		contact.NextTouchpoint = &next
	}
	contact.UpdatedAt = now
	if err := contactRepo.Update(contact); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return interaction, contact, nil
}

// GetInteractions lists a contact's interactions, newest first.
func (s *InteractionService) GetInteractions(contactID string) ([]*models.Interaction, error) {
	if _, err := s.contactRepo.GetByID(contactID); err != nil {
		return nil, err
	}
	return s.interactionRepo.GetByContactID(contactID)
}

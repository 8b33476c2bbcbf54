package services

import (
	"database/sql"
	"time"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
)

// ContactListItem is a contact annotated with its due bucket. The bucket is
// computed from the same bounds that ordered the listing.
type ContactListItem struct {
	Contact  *models.Contact `json:"contact"`
	DueState models.DueState `json:"due_state"`
}

// ContactDetail is a contact with its associations.
type ContactDetail struct {
	Contact *models.Contact        `json:"contact"`
	Tags    []*models.Tag          `json:"tags"`
	Emails  []*models.ContactEmail `json:"emails"`
}

// ContactService is the sole mutation and query surface for contacts.
// Multi-statement operations run inside one transaction.
type ContactService struct {
	db             *sql.DB
	contactRepo    *repositories.ContactRepository
	emailRepo      *repositories.ContactEmailRepository
	tagRepo        *repositories.TagRepository
	candidateRepo  *repositories.MergeCandidateRepository
	dueService     *DueService
	filterService  *FilterService
	clk            clock.Clock
	soonWindowDays int
}

func NewContactService(db *sql.DB, contactRepo *repositories.ContactRepository,
	emailRepo *repositories.ContactEmailRepository, tagRepo *repositories.TagRepository,
	candidateRepo *repositories.MergeCandidateRepository, dueService *DueService,
	filterService *FilterService, clk clock.Clock, soonWindowDays int) *ContactService {
	return &ContactService{
		db:             db,
		contactRepo:    contactRepo,
		emailRepo:      emailRepo,
		tagRepo:        tagRepo,
		candidateRepo:  candidateRepo,
		dueService:     dueService,
		filterService:  filterService,
		clk:            clk,
		soonWindowDays: soonWindowDays,
	}
}

// CreateContact creates a contact together with its tags and primary email.
func (s *ContactService) CreateContact(contact *models.Contact, tagNames []string) error {
	if contact.Email != nil {
		normalized := models.NormalizeEmail(*contact.Email)
		if normalized == "" {
			contact.Email = nil
		} else {
			contact.Email = &normalized
		}
	}
	if err := contact.Validate(); err != nil {
		return err
	}

	normalizedTags := make([]string, 0, len(tagNames))
	for _, name := range tagNames {
		normalized, err := models.NormalizeTagName(name)
		if err != nil {
			return err
		}
		normalizedTags = append(normalizedTags, normalized)
	}

	now := s.clk.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	emailRepo := s.emailRepo.WithTx(tx)
	if contact.Email != nil {
		existing, err := emailRepo.GetByAddress(*contact.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return &models.ConflictError{Message: "Email address already belongs to another contact"}
		}
	}

	if err := s.contactRepo.WithTx(tx).Create(contact); err != nil {
		return err
	}

	if contact.Email != nil {
		email := models.NewContactEmail(contact.ID, *contact.Email)
		email.IsPrimary = true
		email.CreatedAt = now
		if err := emailRepo.Create(email); err != nil {
			return err
		}
	}

	tagRepo := s.tagRepo.WithTx(tx)
	for _, name := range normalizedTags {
		tag, err := tagRepo.GetOrCreate(name, now)
		if err != nil {
			return err
		}
		if err := tagRepo.Link(contact.ID, tag.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetContact retrieves a contact by ID.
func (s *ContactService) GetContact(id string) (*models.Contact, error) {
	return s.contactRepo.GetByID(id)
}

// GetContactDetail retrieves a contact with its tags and emails.
func (s *ContactService) GetContactDetail(id string) (*ContactDetail, error) {
	contact, err := s.contactRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	tags, err := s.tagRepo.GetByContactID(id)
	if err != nil {
		return nil, err
	}
	emails, err := s.emailRepo.GetByContactID(id)
	if err != nil {
		return nil, err
	}
	return &ContactDetail{Contact: contact, Tags: tags, Emails: emails}, nil
}

// UpdateContact updates a contact's fields, keeping the email set in sync
// with the denormalized primary address and bumping updated_at.
func (s *ContactService) UpdateContact(contact *models.Contact) error {
	if contact.Email != nil {
		normalized := models.NormalizeEmail(*contact.Email)
		if normalized == "" {
			contact.Email = nil
		} else {
			contact.Email = &normalized
		}
	}
	if err := contact.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	existing, err := s.contactRepo.WithTx(tx).GetByID(contact.ID)
	if err != nil {
		return err
	}

	if !equalOptional(existing.Email, contact.Email) {
		if err := s.syncPrimaryEmail(tx, contact); err != nil {
			return err
		}
	}

	contact.CreatedAt = existing.CreatedAt
	contact.UpdatedAt = s.clk.Now()
	if err := s.contactRepo.WithTx(tx).Update(contact); err != nil {
		return err
	}

	return tx.Commit()
}

// syncPrimaryEmail makes the email set agree with the contact's primary
// address. A collision with another contact's address is a conflict, never a
// silent overwrite. Editing the primary address in place preserves the email
// row's creation time.
func (s *ContactService) syncPrimaryEmail(tx *sql.Tx, contact *models.Contact) error {
	emailRepo := s.emailRepo.WithTx(tx)

	if contact.Email == nil {
		return emailRepo.ClearPrimary(contact.ID)
	}

	owner, err := emailRepo.GetByAddress(*contact.Email)
	if err != nil {
		return err
	}
	if owner != nil && owner.ContactID != contact.ID {
		return &models.ConflictError{Message: "Email address already belongs to another contact"}
	}

	emails, err := emailRepo.GetByContactID(contact.ID)
	if err != nil {
		return err
	}
	if err := emailRepo.ClearPrimary(contact.ID); err != nil {
		return err
	}

	if owner != nil {
		owner.IsPrimary = true
		return emailRepo.Update(owner)
	}

	for _, email := range emails {
		if !email.IsPrimary {
			continue
		}
		email.Address = *contact.Email
		email.IsPrimary = true
		return emailRepo.Update(email)
	}

	email := models.NewContactEmail(contact.ID, *contact.Email)
	email.IsPrimary = true
	email.CreatedAt = s.clk.Now()
	return emailRepo.Create(email)
}

// SetArchived archives or unarchives a contact through the regular update
// path so timestamp bookkeeping is not bypassed.
func (s *ContactService) SetArchived(id string, archived bool) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	if archived {
		contact.ArchivedAt = &now
	} else {
		contact.ArchivedAt = nil
	}
	contact.UpdatedAt = now

	if err := s.contactRepo.Update(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// DeleteContact deletes a contact and dismisses its open merge candidates.
func (s *ContactService) DeleteContact(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := s.contactRepo.WithTx(tx).GetByID(id); err != nil {
		return err
	}

	candidateRepo := s.candidateRepo.WithTx(tx)
	candidates, err := candidateRepo.GetOpenByContact(id)
	if err != nil {
		return err
	}
	now := s.clk.Now()
	for _, candidate := range candidates {
		if err := candidateRepo.UpdateStatus(candidate.ID, models.CandidateDismissed, now); err != nil {
			return err
		}
	}

	if err := s.contactRepo.WithTx(tx).Delete(id); err != nil {
		return err
	}

	return tx.Commit()
}

// AddTag tags a contact, creating the tag if needed.
func (s *ContactService) AddTag(contactID, name string) (*models.Tag, error) {
	normalized, err := models.NormalizeTagName(name)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := s.contactRepo.WithTx(tx).GetByID(contactID); err != nil {
		return nil, err
	}

	tagRepo := s.tagRepo.WithTx(tx)
	tag, err := tagRepo.GetOrCreate(normalized, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if err := tagRepo.Link(contactID, tag.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return tag, nil
}

// RemoveTag removes a tag from a contact.
func (s *ContactService) RemoveTag(contactID, name string) error {
	normalized, err := models.NormalizeTagName(name)
	if err != nil {
		return err
	}
	tag, err := s.tagRepo.GetByName(normalized)
	if err != nil {
		return err
	}
	if tag == nil {
		return &models.NotFoundError{Resource: "tag", ID: normalized}
	}
	return s.tagRepo.Unlink(contactID, tag.ID)
}

// ListContacts applies a filter string and returns contacts in the fixed
// order: due-bucket rank, then name. soonWindowDays of 0 selects the
// configured default.
func (s *ContactService) ListContacts(filterInput string, soonWindowDays, limit, offset int) ([]*ContactListItem, error) {
	filter, err := s.filterService.Parse(filterInput)
	if err != nil {
		return nil, err
	}
	return s.listFiltered(filter, soonWindowDays, limit, offset, false)
}

// ListDueContacts returns active contacts that are overdue, due today or due
// soon. Used for reminder generation.
func (s *ContactService) ListDueContacts(soonWindowDays int) ([]*ContactListItem, error) {
	active := false
	filter := &Filter{Archived: &active}
	return s.listFiltered(filter, soonWindowDays, 0, 0, true)
}

func (s *ContactService) listFiltered(filter *Filter, soonWindowDays, limit, offset int, dueOnly bool) ([]*ContactListItem, error) {
	if soonWindowDays == 0 {
		soonWindowDays = s.soonWindowDays
	}
	bounds, err := s.dueService.Bounds(s.clk.Now(), s.clk.Location(), soonWindowDays)
	if err != nil {
		return nil, err
	}

	q := s.filterService.Compile(filter, bounds)
	if dueOnly {
		q.Where = append(q.Where, `c.next_touchpoint IS NOT NULL AND c.next_touchpoint < ?`)
		q.Args = append(q.Args, bounds.SoonEnd)
	}
	q.Limit = limit
	q.Offset = offset

	contacts, err := s.contactRepo.List(q)
	if err != nil {
		return nil, err
	}

	items := make([]*ContactListItem, 0, len(contacts))
	for _, contact := range contacts {
		items = append(items, &ContactListItem{
			Contact:  contact,
			DueState: s.dueService.dueStateWithin(contact.NextTouchpoint, bounds),
		})
	}
	return items, nil
}

// ScheduleTouchpoint sets a contact's next touchpoint after validating it
// against now at the given precision.
func (s *ContactService) ScheduleTouchpoint(contactID string, at time.Time, precision Precision) (*models.Contact, error) {
	accepted, err := s.dueService.EnsureFuture(s.clk.Now(), at, precision, s.clk.Location())
	if err != nil {
		return nil, err
	}
	return s.setTouchpoint(contactID, &accepted)
}

// ScheduleByCadence pushes a contact's next touchpoint forward by its own
// cadence.
func (s *ContactService) ScheduleByCadence(contactID string) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(contactID)
	if err != nil {
		return nil, err
	}
	if contact.CadenceDays == nil {
		return nil, &models.ValidationError{Field: "cadence_days", Message: "Contact has no cadence"}
	}
	next, err := s.dueService.ScheduleNext(s.clk.Now(), *contact.CadenceDays)
	if err != nil {
		return nil, err
	}
	return s.setTouchpoint(contactID, &next)
}

// ClearTouchpoint removes a contact's next touchpoint.
func (s *ContactService) ClearTouchpoint(contactID string) (*models.Contact, error) {
	return s.setTouchpoint(contactID, nil)
}

func (s *ContactService) setTouchpoint(contactID string, at *time.Time) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(contactID)
	if err != nil {
		return nil, err
	}
	contact.NextTouchpoint = at
	contact.UpdatedAt = s.clk.Now()
	if err := s.contactRepo.Update(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

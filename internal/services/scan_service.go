package services

import (
	"database/sql"
	"sort"

	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/logger"
)

// ScanService is the batch same-name duplicate detector. It only ever
// creates candidates; name equality alone is too weak a signal to merge on.
type ScanService struct {
	db               *sql.DB
	contactRepo      *repositories.ContactRepository
	candidateRepo    *repositories.MergeCandidateRepository
	candidateService *MergeCandidateService
}

func NewScanService(db *sql.DB, contactRepo *repositories.ContactRepository,
	candidateRepo *repositories.MergeCandidateRepository,
	candidateService *MergeCandidateService) *ScanService {
	return &ScanService{
		db:               db,
		contactRepo:      contactRepo,
		candidateRepo:    candidateRepo,
		candidateService: candidateService,
	}
}

// ScanSameNames groups contacts by normalized display name and registers a
// candidate for every non-preferred member of each group, paired against the
// group's preferred contact. Pairs that already have an Open candidate are
// skipped. The whole scan runs in one transaction.
func (s *ScanService) ScanSameNames() ([]*models.MergeCandidate, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	contactRepo := s.contactRepo.WithTx(tx)
	candidateRepo := s.candidateRepo.WithTx(tx)

	contacts, err := contactRepo.GetAll()
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]*models.Contact)
	for _, contact := range contacts {
		key := models.NormalizeName(contact.Name)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], contact)
	}

	source := "same-name-scan"
	var created []*models.MergeCandidate
	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		preferred := pickPreferred(group)
		for _, contact := range group {
			if contact.ID == preferred.ID {
				continue
			}
			candidate, isNew, err := s.candidateService.createWith(candidateRepo, contactRepo,
				preferred.ID, contact.ID, models.ReasonSameName, &source, &preferred.ID)
			if err != nil {
				return nil, err
			}
			if isNew {
				created = append(created, candidate)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.WithField("created", len(created)).Info("same-name scan finished")
	return created, nil
}

// pickPreferred chooses the group member the others merge into: active over
// archived, then the richest identity, then most recently updated, then
// earliest created. The final ID comparison makes the pick stable.
func pickPreferred(group []*models.Contact) *models.Contact {
	sorted := make([]*models.Contact, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsArchived() != b.IsArchived() {
			return !a.IsArchived()
		}
		if ra, rb := a.IdentityRichness(), b.IdentityRichness(); ra != rb {
			return ra > rb
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted[0]
}

package services

import (
	"github.com/tomatyss/knotter/internal/models"
	"github.com/tomatyss/knotter/internal/repositories"
	"github.com/tomatyss/knotter/pkg/clock"
)

// MergeCandidateService manages the duplicate-pair registry and its status
// state machine: Open -> Merged, Open -> Dismissed, nothing else.
type MergeCandidateService struct {
	candidateRepo *repositories.MergeCandidateRepository
	contactRepo   *repositories.ContactRepository
	clk           clock.Clock
}

func NewMergeCandidateService(candidateRepo *repositories.MergeCandidateRepository,
	contactRepo *repositories.ContactRepository, clk clock.Clock) *MergeCandidateService {
	return &MergeCandidateService{
		candidateRepo: candidateRepo,
		contactRepo:   contactRepo,
		clk:           clk,
	}
}

// CreateCandidate registers a duplicate pair. The pair is canonicalized; a
// preferred ID naming neither member is dropped rather than rejected. If an
// Open candidate for the pair already exists it is returned with created
// false — including when a concurrent insert wins the race, in which case
// the unique-constraint failure is resolved by re-reading.
func (s *MergeCandidateService) CreateCandidate(contactA, contactB, reason string, source, preferredID *string) (*models.MergeCandidate, bool, error) {
	return s.createWith(s.candidateRepo, s.contactRepo, contactA, contactB, reason, source, preferredID)
}

// createWith is CreateCandidate against explicit repositories, so the
// same-name scanner can run it inside its own transaction.
func (s *MergeCandidateService) createWith(candidateRepo *repositories.MergeCandidateRepository,
	contactRepo *repositories.ContactRepository,
	contactA, contactB, reason string, source, preferredID *string) (*models.MergeCandidate, bool, error) {
	if contactA == contactB {
		return nil, false, &models.ConflictError{Message: "A contact cannot be its own duplicate"}
	}
	if reason == "" {
		return nil, false, &models.ValidationError{Field: "reason", Message: "Reason is required"}
	}
	for _, id := range []string{contactA, contactB} {
		if _, err := contactRepo.GetByID(id); err != nil {
			return nil, false, err
		}
	}

	a, b := models.CanonicalPair(contactA, contactB)
	if preferredID != nil && *preferredID != a && *preferredID != b {
		preferredID = nil
	}

	existing, err := candidateRepo.GetOpenByPair(a, b)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	candidate := models.NewMergeCandidate(a, b, reason)
	candidate.Source = source
	candidate.PreferredID = preferredID
	candidate.CreatedAt = s.clk.Now()
	if err := candidateRepo.Create(candidate); err != nil {
		if repositories.IsUniquePairViolation(err) {
			existing, readErr := candidateRepo.GetOpenByPair(a, b)
			if readErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return candidate, true, nil
}

// GetCandidate retrieves a candidate by ID.
func (s *MergeCandidateService) GetCandidate(id string) (*models.MergeCandidate, error) {
	return s.candidateRepo.GetByID(id)
}

// ListCandidates lists candidates by status.
func (s *MergeCandidateService) ListCandidates(status string) ([]*models.MergeCandidate, error) {
	switch status {
	case models.CandidateOpen, models.CandidateMerged, models.CandidateDismissed:
	default:
		return nil, &models.ValidationError{Field: "status", Message: "Unknown candidate status"}
	}
	return s.candidateRepo.GetByStatus(status)
}

// Dismiss rejects an Open candidate. Dismissing a candidate that is no
// longer Open is a conflict, never a silent no-op.
func (s *MergeCandidateService) Dismiss(id string) (*models.MergeCandidate, error) {
	return s.transition(id, models.CandidateDismissed)
}

// MarkMerged marks an Open candidate as merged.
func (s *MergeCandidateService) MarkMerged(id string) (*models.MergeCandidate, error) {
	return s.transition(id, models.CandidateMerged)
}

func (s *MergeCandidateService) transition(id, status string) (*models.MergeCandidate, error) {
	candidate, err := s.candidateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !candidate.IsOpen() {
		return nil, &models.ConflictError{Message: "Merge candidate is no longer open"}
	}

	resolvedAt := s.clk.Now()
	if err := s.candidateRepo.UpdateStatus(id, status, resolvedAt); err != nil {
		return nil, err
	}
	candidate.Status = status
	candidate.ResolvedAt = &resolvedAt
	return candidate, nil
}

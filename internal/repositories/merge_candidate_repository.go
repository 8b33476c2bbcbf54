package repositories

import (
	"database/sql"
	"strings"
	"time"

	"github.com/tomatyss/knotter/internal/models"
)

type MergeCandidateRepository struct {
	db DBTX
}

func NewMergeCandidateRepository(db DBTX) *MergeCandidateRepository {
	return &MergeCandidateRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *MergeCandidateRepository) WithTx(tx *sql.Tx) *MergeCandidateRepository {
	return &MergeCandidateRepository{db: tx}
}

const candidateColumns = `id, contact_a, contact_b, reason, source, preferred_id, status, created_at, resolved_at`

// Create inserts an Open candidate. The partial unique index on
// (contact_a, contact_b) WHERE status = 'open' guards the one-open-per-pair
// invariant; IsUniquePairViolation identifies that failure so the caller can
// re-read the existing row instead of surfacing an error.
func (r *MergeCandidateRepository) Create(candidate *models.MergeCandidate) error {
	query := `
		INSERT INTO merge_candidates (` + candidateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		candidate.ID, candidate.ContactA, candidate.ContactB, candidate.Reason,
		candidate.Source, candidate.PreferredID, candidate.Status,
		candidate.CreatedAt, candidate.ResolvedAt,
	)
	return err
}

// IsUniquePairViolation reports whether err is the open-pair unique
// constraint firing.
func IsUniquePairViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") &&
		strings.Contains(err.Error(), "merge_candidates")
}

// GetByID retrieves a candidate by ID
func (r *MergeCandidateRepository) GetByID(id string) (*models.MergeCandidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM merge_candidates WHERE id = ?`

	candidate, err := r.scanOne(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "merge candidate", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetOpenByPair retrieves the Open candidate for a canonical pair.
// Returns nil without error when there is none.
func (r *MergeCandidateRepository) GetOpenByPair(contactA, contactB string) (*models.MergeCandidate, error) {
	query := `
		SELECT ` + candidateColumns + ` FROM merge_candidates
		WHERE contact_a = ? AND contact_b = ? AND status = ?
	`

	candidate, err := r.scanOne(r.db.QueryRow(query, contactA, contactB, models.CandidateOpen))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetOpenByContact retrieves every Open candidate referencing a contact.
func (r *MergeCandidateRepository) GetOpenByContact(contactID string) ([]*models.MergeCandidate, error) {
	query := `
		SELECT ` + candidateColumns + ` FROM merge_candidates
		WHERE status = ? AND (contact_a = ? OR contact_b = ?)
		ORDER BY created_at ASC, id ASC
	`
	return r.queryCandidates(query, models.CandidateOpen, contactID, contactID)
}

// GetByStatus retrieves candidates by status, oldest first.
func (r *MergeCandidateRepository) GetByStatus(status string) ([]*models.MergeCandidate, error) {
	query := `
		SELECT ` + candidateColumns + ` FROM merge_candidates
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
	`
	return r.queryCandidates(query, status)
}

// UpdateStatus transitions a candidate out of Open and stamps resolved_at.
func (r *MergeCandidateRepository) UpdateStatus(id, status string, resolvedAt time.Time) error {
	query := `UPDATE merge_candidates SET status = ?, resolved_at = ? WHERE id = ?`
	_, err := r.db.Exec(query, status, resolvedAt, id)
	return err
}

func (r *MergeCandidateRepository) scanOne(row *sql.Row) (*models.MergeCandidate, error) {
	candidate := &models.MergeCandidate{}
	err := row.Scan(
		&candidate.ID, &candidate.ContactA, &candidate.ContactB, &candidate.Reason,
		&candidate.Source, &candidate.PreferredID, &candidate.Status,
		&candidate.CreatedAt, &candidate.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return candidate, nil
}

func (r *MergeCandidateRepository) queryCandidates(query string, args ...interface{}) ([]*models.MergeCandidate, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*models.MergeCandidate
	for rows.Next() {
		candidate := &models.MergeCandidate{}
		err := rows.Scan(
			&candidate.ID, &candidate.ContactA, &candidate.ContactB, &candidate.Reason,
			&candidate.Source, &candidate.PreferredID, &candidate.Status,
			&candidate.CreatedAt, &candidate.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	return candidates, rows.Err()
}

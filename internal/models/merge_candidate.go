package models

import (
	"time"

	"github.com/google/uuid"
)

// Merge candidate statuses. Open is the only non-terminal state.
const (
	CandidateOpen      = "open"
	CandidateMerged    = "merged"
	CandidateDismissed = "dismissed"
)

// Candidate reasons.
const (
	ReasonSameName = "same-name"
	ReasonManual   = "manual"
)

// MergeCandidate is a proposed duplicate pair. The pair is unordered and
// stored canonically with the smaller ID as ContactA, so the one-open-per-pair
// constraint can be a plain unique index.
type MergeCandidate struct {
	ID          string     `json:"id"`
	ContactA    string     `json:"contact_a"`
	ContactB    string     `json:"contact_b"`
	Reason      string     `json:"reason"`
	Source      *string    `json:"source"`
	PreferredID *string    `json:"preferred_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// NewMergeCandidate creates an Open candidate for the canonicalized pair.
func NewMergeCandidate(contactA, contactB, reason string) *MergeCandidate {
	a, b := CanonicalPair(contactA, contactB)
	return &MergeCandidate{
		ID:       uuid.New().String(),
		ContactA: a,
		ContactB: b,
		Reason:   reason,
		Status:   CandidateOpen,
	}
}

// CanonicalPair orders two contact IDs so the lexicographically smaller one
// comes first.
func CanonicalPair(x, y string) (string, string) {
	if y < x {
		return y, x
	}
	return x, y
}

// IsOpen reports whether the candidate can still transition.
func (m *MergeCandidate) IsOpen() bool {
	return m.Status == CandidateOpen
}

// Other returns the member of the pair that is not id, or "" if id is not a
// member.
func (m *MergeCandidate) Other(id string) string {
	switch id {
	case m.ContactA:
		return m.ContactB
	case m.ContactB:
		return m.ContactA
	default:
		return ""
	}
}

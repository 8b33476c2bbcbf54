package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Interaction kinds. Anything outside this set is treated as a free-text
// label and normalized to lowercase.
const (
	InteractionCall    = "call"
	InteractionMessage = "message"
	InteractionEmail   = "email"
	InteractionMeeting = "meeting"
	InteractionNote    = "note"
)

// Interaction is a record of contact having happened. Immutable once created;
// only merges re-point ContactID.
type Interaction struct {
	ID         string     `json:"id"`
	ContactID  string     `json:"contact_id"`
	Kind       string     `json:"kind"`
	Note       string     `json:"note"`
	HappenedAt time.Time  `json:"happened_at"`
	FollowUp   *time.Time `json:"follow_up"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewInteraction creates a new Interaction with a generated UUID
func NewInteraction(contactID, kind, note string, happenedAt time.Time) *Interaction {
	return &Interaction{
		ID:         uuid.New().String(),
		ContactID:  contactID,
		Kind:       kind,
		Note:       note,
		HappenedAt: happenedAt,
	}
}

// NormalizeInteractionKind maps a raw kind to either a known kind or a
// lowercased free-text label. A blank kind is a validation error.
func NormalizeInteractionKind(kind string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(kind))
	if normalized == "" {
		return "", &ValidationError{Field: "kind", Message: "Interaction kind is required"}
	}
	return normalized, nil
}

// Validate checks the interaction's own invariants.
func (i *Interaction) Validate() error {
	if i.ContactID == "" {
		return &ValidationError{Field: "contact_id", Message: "Contact ID is required"}
	}
	if _, err := NormalizeInteractionKind(i.Kind); err != nil {
		return err
	}
	return nil
}

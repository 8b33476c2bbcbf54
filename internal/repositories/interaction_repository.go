package repositories

import (
	"database/sql"

	"github.com/tomatyss/knotter/internal/models"
)

type InteractionRepository struct {
	db DBTX
}

func NewInteractionRepository(db DBTX) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *InteractionRepository) WithTx(tx *sql.Tx) *InteractionRepository {
	return &InteractionRepository{db: tx}
}

// Create creates a new interaction
func (r *InteractionRepository) Create(interaction *models.Interaction) error {
	query := `
		INSERT INTO interactions (id, contact_id, kind, note, happened_at, follow_up, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		interaction.ID, interaction.ContactID, interaction.Kind, interaction.Note,
		interaction.HappenedAt, interaction.FollowUp, interaction.CreatedAt,
	)
	return err
}

// GetByContactID retrieves a contact's interactions, newest first.
func (r *InteractionRepository) GetByContactID(contactID string) ([]*models.Interaction, error) {
	query := `
		SELECT id, contact_id, kind, note, happened_at, follow_up, created_at
		FROM interactions WHERE contact_id = ?
		ORDER BY happened_at DESC, created_at DESC
	`

	rows, err := r.db.Query(query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var interactions []*models.Interaction
	for rows.Next() {
		interaction := &models.Interaction{}
		err := rows.Scan(
			&interaction.ID, &interaction.ContactID, &interaction.Kind, &interaction.Note,
			&interaction.HappenedAt, &interaction.FollowUp, &interaction.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, interaction)
	}
	return interactions, rows.Err()
}

// RepointContact moves all interactions from one contact to another.
// Used by the merge engine.
func (r *InteractionRepository) RepointContact(fromContactID, toContactID string) error {
	_, err := r.db.Exec(`UPDATE interactions SET contact_id = ? WHERE contact_id = ?`,
		toContactID, fromContactID)
	return err
}

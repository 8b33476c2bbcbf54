package repositories

import (
	"database/sql"
	"strings"
	"time"

	"github.com/tomatyss/knotter/internal/models"
)

type TagRepository struct {
	db DBTX
}

func NewTagRepository(db DBTX) *TagRepository {
	return &TagRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *TagRepository) WithTx(tx *sql.Tx) *TagRepository {
	return &TagRepository{db: tx}
}

// GetByName retrieves a tag by its normalized name. Returns nil without error
// when the tag does not exist.
func (r *TagRepository) GetByName(name string) (*models.Tag, error) {
	query := `SELECT id, name, created_at FROM tags WHERE name = ?`

	tag := &models.Tag{}
	err := r.db.QueryRow(query, name).Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return tag, nil
}

// GetOrCreate gets a tag by normalized name or creates a new one stamped with
// now. A unique constraint violation from a concurrent insert is resolved by
// re-reading.
func (r *TagRepository) GetOrCreate(name string, now time.Time) (*models.Tag, error) {
	tag, err := r.GetByName(name)
	if err != nil {
		return nil, err
	}
	if tag != nil {
		return tag, nil
	}

	tag = models.NewTag(name)
	tag.CreatedAt = now
	if _, err := r.db.Exec(`INSERT INTO tags (id, name, created_at) VALUES (?, ?, ?)`,
		tag.ID, tag.Name, tag.CreatedAt); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return r.GetByName(name)
		}
		return nil, err
	}
	return tag, nil
}

// Link associates a tag with a contact. Linking twice is a no-op.
func (r *TagRepository) Link(contactID, tagID string) error {
	_, err := r.db.Exec(`INSERT OR IGNORE INTO contact_tags (contact_id, tag_id) VALUES (?, ?)`,
		contactID, tagID)
	return err
}

// Unlink removes a tag from a contact.
func (r *TagRepository) Unlink(contactID, tagID string) error {
	_, err := r.db.Exec(`DELETE FROM contact_tags WHERE contact_id = ? AND tag_id = ?`,
		contactID, tagID)
	return err
}

// GetByContactID retrieves the tags of a contact ordered by name.
func (r *TagRepository) GetByContactID(contactID string) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		INNER JOIN contact_tags ct ON ct.tag_id = t.id
		WHERE ct.contact_id = ?
		ORDER BY t.name ASC
	`

	rows, err := r.db.Query(query, contactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// GetNamesByContact returns every contact's tag names in one query.
// Used by the batch loop-cadence application.
func (r *TagRepository) GetNamesByContact() (map[string][]string, error) {
	query := `
		SELECT ct.contact_id, t.name
		FROM contact_tags ct
		INNER JOIN tags t ON t.id = ct.tag_id
		ORDER BY ct.contact_id, t.name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string][]string)
	for rows.Next() {
		var contactID, name string
		if err := rows.Scan(&contactID, &name); err != nil {
			return nil, err
		}
		names[contactID] = append(names[contactID], name)
	}
	return names, rows.Err()
}

// CopyLinks links every tag of one contact to another, skipping duplicates.
// Used by the merge engine to union tag sets.
func (r *TagRepository) CopyLinks(fromContactID, toContactID string) error {
	query := `
		INSERT OR IGNORE INTO contact_tags (contact_id, tag_id)
		SELECT ?, tag_id FROM contact_tags WHERE contact_id = ?
	`
	_, err := r.db.Exec(query, toContactID, fromContactID)
	return err
}

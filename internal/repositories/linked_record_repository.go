package repositories

import "database/sql"

// LinkedRecordRepository re-points provider-owned rows (email messages, chat
// accounts, chat messages) during merges. The engine never reads or writes
// their payloads.
type LinkedRecordRepository struct {
	db DBTX
}

func NewLinkedRecordRepository(db DBTX) *LinkedRecordRepository {
	return &LinkedRecordRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *LinkedRecordRepository) WithTx(tx *sql.Tx) *LinkedRecordRepository {
	return &LinkedRecordRepository{db: tx}
}

// RepointContact moves every provider-linked row from one contact to another.
func (r *LinkedRecordRepository) RepointContact(fromContactID, toContactID string) error {
	for _, table := range []string{"email_messages", "chat_accounts", "chat_messages"} {
		query := `UPDATE ` + table + ` SET contact_id = ? WHERE contact_id = ?`
		if _, err := r.db.Exec(query, toContactID, fromContactID); err != nil {
			return err
		}
	}
	return nil
}

package repositories

import "database/sql"

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against either, so a caller already inside a transaction
// passes its *sql.Tx instead of opening a nested one.
type DBTX interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

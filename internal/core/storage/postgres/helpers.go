package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// validateTable checks that a table exists.
// Returns an error if the table is missing (migrations not run).
func validateTable(db *sql.DB, table string) error {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`
	if err := db.QueryRow(query, table).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if !exists {
		return fmt.Errorf("%s table does not exist", table)
	}
	return nil
}

// validatePayload rejects records postgres would refuse as JSONB, so a bad
// record fails before the transaction starts.
func validatePayload(rec []byte) error {
	if !json.Valid(rec) {
		return fmt.Errorf("record is not valid JSON")
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanPayload scans a single bytea/jsonb column.
// Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanPayload(row scanner) ([]byte, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, fmt.Errorf("failed to scan payload: %w", err)
	}
	return payload, nil
}

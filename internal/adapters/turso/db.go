// Package turso implements the persistence ports on a libsql database.
// Variations, audience filters and variation configs travel as JSON text
// columns; rows whose JSON fails to decode are logged and skipped so that
// corrupt state never takes the engine down.
package turso

import (
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// NewDB opens a libsql database. url may be a remote Turso URL or a local
// file: URL; authToken is appended only when set.
func NewDB(url, authToken string) (*sql.DB, error) {
	connStr := url
	if authToken != "" {
		connStr = fmt.Sprintf("%s?authToken=%s", url, authToken)
	}

	db, err := sql.Open("libsql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

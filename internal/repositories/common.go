package repositories

import (
	"database/sql"

	intconfig "titledesk/internal/config"
	"titledesk/internal/domain"
)

// conn returns the repository's handle, falling back to the shared pool.
func conn(db *sql.DB) (*sql.DB, error) {
	if db != nil {
		return db, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, domain.InternalError{Msg: "database not configured"}
}

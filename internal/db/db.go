package db

import "database/sql"

// DB wraps the standard sql.DB so callers depend on one place
// for connection handles.
type DB struct {
	*sql.DB
}

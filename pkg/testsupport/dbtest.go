package testsupport

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN returns a shared-cache in-memory SQLite DSN. Connections opened
// with the same name see the same database.
func MemoryDSN(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "markmap"
	}
	return "file:" + name + "?mode=memory&cache=shared"
}

// NewSQLiteMemoryDB opens the in-memory database named name.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	return sql.Open("sqlite3", MemoryDSN(name))
}

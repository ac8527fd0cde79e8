package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is stamped into every completed store. Bump it whenever
// schema.sql changes so existing caches are rebuilt.
const SchemaVersion = "1"

const driverName = "sqlite3"

//go:embed schema.sql
var migrationsSQL string

// InitDB creates the schema on the given connection.
func InitDB(ctx context.Context, db DBExecutor) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// OpenBuild opens (creating if needed) a database for bulk loading. Journal
// and sync are relaxed: the file is only published after Close and an
// explicit fsync, and a failed build is discarded whole.
func OpenBuild(path string) (*sql.DB, error) {
	conn, err := sql.Open(driverName, dsn(path, url.Values{
		"_journal_mode": {"MEMORY"},
		"_synchronous":  {"OFF"},
		"_cache_size":   {"-64000"},
	}))
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// OpenReadOnly opens an existing store for queries and checks that it is
// readable.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	conn, err := sql.Open(driverName, dsn(path, url.Values{
		"mode":          {"ro"},
		"_query_only":   {"true"},
		"_busy_timeout": {"5000"},
		"_cache_size":   {"-64000"},
	}))
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// dsn builds a SQLite URI filename; mattn/go-sqlite3 strips the
// underscore parameters and passes the rest to sqlite3_open_v2.
func dsn(path string, params url.Values) string {
	r := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")
	return "file:" + r.Replace(filepath.ToSlash(path)) + "?" + params.Encode()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type DatabaseConfig struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// opens the cursor database: a local sqlite file, or a remote libsql
// endpoint when `url` is set
func (c DatabaseConfig) OpenDB() (*sql.DB, error) {
	var db *sql.DB
	var err error

	if c.Url != "" {
		dsn := c.Url
		if c.AuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", c.Url, c.AuthToken)
		}
		db, err = sql.Open("libsql", dsn)
	} else {
		db, err = sql.Open("sqlite", c.File)
	}
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(Schema)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return nil, err
	}
	return db, nil
}

// cursor persistence in a single-row sqlite table. sqlite's journal
// gives the same crash safety the file store gets from rename.
type SqliteStore struct {
	db *sql.DB
}

func NewSqliteStore(db *sql.DB) SqliteStore {
	return SqliteStore{db: db}
}

func (s SqliteStore) Load(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM cursor WHERE id = 1").Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (s SqliteStore) Save(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO cursor (id, value) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET value = excluded.value`,
		value,
	)
	return err
}

func (s SqliteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cursor")
	return err
}

package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pixil98/go-tacklebox/internal/item"
)

// SQLiteStore keeps every owner's items in a local SQLite file. It is both a
// Sink for the outbox and the Loader the grant server restores from.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			instance_id   TEXT PRIMARY KEY,
			owner_id      TEXT NOT NULL,
			definition_id INTEGER NOT NULL,
			state_blob    BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS items_owner ON items (owner_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Apply(ctx context.Context, c Change) error {
	switch c.Op {
	case OpUpsert:
		blob := c.StateBlob
		if blob == nil {
			blob = []byte{}
		}
		_, err := s.db.ExecContext(ctx, `INSERT INTO items (instance_id, owner_id, definition_id, state_blob)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(instance_id) DO UPDATE SET
				owner_id = excluded.owner_id,
				definition_id = excluded.definition_id,
				state_blob = excluded.state_blob`,
			c.InstanceID.String(), c.OwnerID.String(), c.DefinitionID, blob)
		if err != nil {
			return fmt.Errorf("upserting %s: %w", c.InstanceID, err)
		}
		return nil
	case OpDestroy:
		_, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE instance_id = ? AND owner_id = ?`,
			c.InstanceID.String(), c.OwnerID.String())
		if err != nil {
			return fmt.Errorf("deleting %s: %w", c.InstanceID, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported change op %d", c.Op)
	}
}

// LoadInventory returns the owner's records in the order they were first
// stored.
func (s *SQLiteStore) LoadInventory(ctx context.Context, owner uuid.UUID) ([]item.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT instance_id, definition_id, state_blob
		FROM items WHERE owner_id = ? ORDER BY rowid`, owner.String())
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []item.Record
	for rows.Next() {
		var (
			id   string
			rec  item.Record
			blob []byte
		)
		if err := rows.Scan(&id, &rec.DefinitionID, &blob); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		rec.InstanceID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("item id %q: %w", id, err)
		}
		rec.StateBlob = blob
		out = append(out, rec)
	}
	return out, rows.Err()
}

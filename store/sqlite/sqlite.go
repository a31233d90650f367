// Package sqlite stores checkpoints in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
)

func init() {
	store.Register("sqlite", func(ctx context.Context, cfg config.CheckpointConfig) (store.CheckpointStore, error) {
		path := cfg.DSN
		if path == "" {
			path = cfg.Path
		}
		return NewSqliteCheckpointStore(ctx, SqliteOptions{Path: path, TableName: cfg.TableName})
	})
}

// SqliteCheckpointStore implements store.CheckpointStore using SQLite.
type SqliteCheckpointStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "checkpoints"
}

// NewSqliteCheckpointStore opens the database and creates the table.
func NewSqliteCheckpointStore(ctx context.Context, opts SqliteOptions) (*SqliteCheckpointStore, error) {
	if opts.Path == "" {
		return nil, errors.New("sqlite path not set")
	}
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "checkpoints"
	}

	s := &SqliteCheckpointStore{db: db, tableName: tableName}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteCheckpointStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			node_name TEXT NOT NULL,
			next TEXT NOT NULL,
			state TEXT NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL,
			version INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_thread_id ON %s (thread_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteCheckpointStore) Close() error {
	return s.db.Close()
}

func (s *SqliteCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
	nextJSON, err := json.Marshal(checkpoint.Next)
	if err != nil {
		return fmt.Errorf("failed to marshal next nodes: %w", err)
	}
	metadataJSON, err := json.Marshal(checkpoint.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, thread_id, node_name, next, state, metadata, timestamp, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thread_id = excluded.thread_id,
			node_name = excluded.node_name,
			next = excluded.next,
			state = excluded.state,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp,
			version = excluded.version
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		checkpoint.ID,
		checkpoint.ThreadID,
		checkpoint.NodeName,
		string(nextJSON),
		string(checkpoint.State),
		string(metadataJSON),
		checkpoint.Timestamp,
		checkpoint.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

const columns = "id, thread_id, node_name, next, state, metadata, timestamp, version"

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*store.Checkpoint, error) {
	var (
		cp       store.Checkpoint
		next     string
		state    string
		metadata sql.NullString
	)
	if err := row.Scan(&cp.ID, &cp.ThreadID, &cp.NodeName, &next, &state, &metadata, &cp.Timestamp, &cp.Version); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(next), &cp.Next); err != nil {
		return nil, fmt.Errorf("failed to unmarshal next nodes: %w", err)
	}
	cp.State = json.RawMessage(state)
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &cp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &cp, nil
}

func (s *SqliteCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", columns, s.tableName)

	cp, err := scan(s.db.QueryRowContext(ctx, query, checkpointID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

func (s *SqliteCheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE thread_id = ? ORDER BY version ASC, timestamp ASC", columns, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	var checkpoints []*store.Checkpoint
	for rows.Next() {
		cp, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		checkpoints = append(checkpoints, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating checkpoint rows: %w", err)
	}
	return checkpoints, nil
}

func (s *SqliteCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, checkpointID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *SqliteCheckpointStore) Clear(ctx context.Context, threadID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

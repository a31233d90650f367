// Package postgres stores checkpoints in a PostgreSQL table through pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/agentpatterns/config"
	"github.com/smallnest/agentpatterns/store"
)

func init() {
	store.Register("postgres", func(ctx context.Context, cfg config.CheckpointConfig) (store.CheckpointStore, error) {
		s, err := NewPostgresCheckpointStore(ctx, PostgresOptions{ConnString: cfg.DSN, TableName: cfg.TableName})
		if err != nil {
			return nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	})
}

// DBPool is the subset of pgxpool.Pool used by the store.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresCheckpointStore implements store.CheckpointStore using PostgreSQL.
type PostgresCheckpointStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "checkpoints"
}

// NewPostgresCheckpointStore creates a new Postgres checkpoint store
func NewPostgresCheckpointStore(ctx context.Context, opts PostgresOptions) (*PostgresCheckpointStore, error) {
	if opts.ConnString == "" {
		return nil, errors.New("postgres connection string not set")
	}
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresCheckpointStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresCheckpointStoreWithPool wraps an existing pool.
func NewPostgresCheckpointStoreWithPool(pool DBPool, tableName string) *PostgresCheckpointStore {
	if tableName == "" {
		tableName = "checkpoints"
	}
	return &PostgresCheckpointStore{pool: pool, tableName: tableName}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresCheckpointStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			thread_id TEXT NOT NULL,
			node_name TEXT NOT NULL,
			next JSONB NOT NULL,
			state JSONB NOT NULL,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			version INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_thread_id ON %s (thread_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresCheckpointStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresCheckpointStore) Save(ctx context.Context, checkpoint *store.Checkpoint) error {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			thread_id = EXCLUDED.thread_id,
			node_name = EXCLUDED.node_name,
			next = EXCLUDED.next,
			state = EXCLUDED.state,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp,
			version = EXCLUDED.version
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		checkpoint.ID,
		checkpoint.ThreadID,
		checkpoint.NodeName,
		nextJSON,
		[]byte(checkpoint.State),
		metadataJSON,
		checkpoint.Timestamp,
		checkpoint.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

const columns = "id, thread_id, node_name, next, state, metadata, timestamp, version"

func scan(row pgx.Row) (*store.Checkpoint, error) {
	var (
		cp       store.Checkpoint
		next     []byte
		state    []byte
		metadata []byte
	)
	if err := row.Scan(&cp.ID, &cp.ThreadID, &cp.NodeName, &next, &state, &metadata, &cp.Timestamp, &cp.Version); err != nil {
		return nil, err
	}
	if len(next) > 0 {
		if err := json.Unmarshal(next, &cp.Next); err != nil {
			return nil, fmt.Errorf("failed to unmarshal next nodes: %w", err)
		}
	}
	cp.State = json.RawMessage(state)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &cp.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &cp, nil
}

func (s *PostgresCheckpointStore) Load(ctx context.Context, checkpointID string) (*store.Checkpoint, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", columns, s.tableName)

	cp, err := scan(s.pool.QueryRow(ctx, query, checkpointID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	return cp, nil
}

func (s *PostgresCheckpointStore) List(ctx context.Context, threadID string) ([]*store.Checkpoint, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE thread_id = $1 ORDER BY version ASC, timestamp ASC", columns, s.tableName)

	rows, err := s.pool.Query(ctx, query, threadID)
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

func (s *PostgresCheckpointStore) Delete(ctx context.Context, checkpointID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, checkpointID); err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}

func (s *PostgresCheckpointStore) Clear(ctx context.Context, threadID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE thread_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, threadID); err != nil {
		return fmt.Errorf("failed to clear checkpoints: %w", err)
	}
	return nil
}

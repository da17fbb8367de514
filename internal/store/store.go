package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite" // Register the "sqlite" database/sql driver

	"github.com/ironsheep/image-stipple-mcp/internal/stipple"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS stipple_results (
		key        TEXT PRIMARY KEY,
		width      INTEGER NOT NULL,
		height     INTEGER NOT NULL,
		requested  INTEGER NOT NULL,
		placed     INTEGER NOT NULL,
		payload    BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stipple_results_created ON stipple_results(created_at)`,
}

// Store is a SQLite-backed result cache. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *log.Logger
	now    func() time.Time
}

// Open opens or creates the cache database at path. Use ":memory:" for a
// private in-memory database.
func Open(ctx context.Context, path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open result store: %w", err)
	}

	// One connection: SQLite serializes writers and ":memory:" databases are
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to result store: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logger.Debug("sqlite pragma skipped", "pragma", pragma, "err", err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create result store schema: %w", err)
		}
	}

	logger.Debug("result store opened", "path", path)
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives a cache key from an image digest and the parameters that
// shape the result. params must be JSON-encodable; equal values give equal
// keys.
func Key(digest string, params any) string {
	data, _ := json.Marshal([]any{digest, params})
	sum := sha256.Sum256(data)
	return "stipple:" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for key. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, key string) (*stipple.Result, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM stipple_results WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("result cache miss", "key", key)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached result: %w", err)
	}

	var res stipple.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached result: %w", err)
	}
	s.logger.Debug("result cache hit", "key", key, "points", res.Len())
	return &res, true, nil
}

// Put stores res under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, res *stipple.Result) error {
	if res == nil {
		return fmt.Errorf("cannot cache a nil result")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stipple_results (key, width, height, requested, placed, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			requested = excluded.requested,
			placed = excluded.placed,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		key, res.Width, res.Height, res.Requested, res.Len(), payload, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	s.logger.Debug("result cached", "key", key, "bytes", len(payload))
	return nil
}

// Count returns the number of cached results.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stipple_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cached results: %w", err)
	}
	return n, nil
}

// Prune deletes entries created before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	r, err := s.db.ExecContext(ctx,
		`DELETE FROM stipple_results WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune result store: %w", err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune result store: %w", err)
	}
	if n > 0 {
		s.logger.Info("pruned cached results", "removed", n)
	}
	return n, nil
}

package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Store provides SQLite-based persistence for the quote audit log.
type Store struct {
	db *sql.DB
}

// QuoteRecord represents one served quote stored in the database.
// Amounts are decimal strings so arbitrary-precision values survive the
// round trip.
type QuoteRecord struct {
	ID          int64
	Operation   string
	PoolAddress string
	PoolType    string
	Kind        string
	TokenIn     string
	TokenOut    string
	AmountGiven string
	Result      string
	Error       string
	LatencyUS   int64
	CreatedAt   time.Time
}

// NewStore creates a new SQLite store and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// migrate runs database schema migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS quotes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			operation TEXT NOT NULL,
			pool_address TEXT NOT NULL,
			pool_type TEXT NOT NULL,
			kind TEXT NOT NULL,
			token_in TEXT NOT NULL DEFAULT '',
			token_out TEXT NOT NULL DEFAULT '',
			amount_given TEXT NOT NULL DEFAULT '0',
			result TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			latency_us INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_pool ON quotes(pool_address)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_created ON quotes(created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS system_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	log.Info().Msg("Database migrations completed")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertQuote appends a quote record to the audit log.
func (s *Store) InsertQuote(ctx context.Context, quote QuoteRecord) error {
	query := `INSERT INTO quotes (operation, pool_address, pool_type, kind, token_in, token_out, amount_given, result, error, latency_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		quote.Operation, quote.PoolAddress, quote.PoolType, quote.Kind,
		quote.TokenIn, quote.TokenOut,
		quote.AmountGiven, quote.Result, quote.Error,
		quote.LatencyUS, time.Now(),
	)
	return err
}

// GetRecentQuotes retrieves the most recent quote records, newest first.
func (s *Store) GetRecentQuotes(ctx context.Context, limit int) ([]QuoteRecord, error) {
	query := `SELECT id, operation, pool_address, pool_type, kind, token_in, token_out, amount_given, result, error, latency_us, created_at
		FROM quotes
		ORDER BY id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []QuoteRecord
	for rows.Next() {
		var q QuoteRecord
		if err := rows.Scan(&q.ID, &q.Operation, &q.PoolAddress, &q.PoolType, &q.Kind,
			&q.TokenIn, &q.TokenOut, &q.AmountGiven, &q.Result, &q.Error,
			&q.LatencyUS, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// GetQuotesForPool retrieves the most recent quotes served for one pool.
func (s *Store) GetQuotesForPool(ctx context.Context, poolAddress string, limit int) ([]QuoteRecord, error) {
	query := `SELECT id, operation, pool_address, pool_type, kind, token_in, token_out, amount_given, result, error, latency_us, created_at
		FROM quotes
		WHERE pool_address = ?
		ORDER BY id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, poolAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []QuoteRecord
	for rows.Next() {
		var q QuoteRecord
		if err := rows.Scan(&q.ID, &q.Operation, &q.PoolAddress, &q.PoolType, &q.Kind,
			&q.TokenIn, &q.TokenOut, &q.AmountGiven, &q.Result, &q.Error,
			&q.LatencyUS, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		quotes = append(quotes, q)
	}

	return quotes, rows.Err()
}

// GetQuoteCount returns the total number of quote records.
func (s *Store) GetQuoteCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM quotes").Scan(&count)
	return count, err
}

// PruneQuotes deletes audit records older than the retention window.
func (s *Store) PruneQuotes(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM quotes WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("pruning quotes: %w", err)
	}
	return result.RowsAffected()
}

// SetSystemState stores a key-value pair in system state.
func (s *Store) SetSystemState(ctx context.Context, key, value string) error {
	query := `INSERT INTO system_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}

// GetSystemState retrieves a value from system state.
func (s *Store) GetSystemState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM system_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

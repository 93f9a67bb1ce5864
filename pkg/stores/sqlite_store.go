package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string

	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path:            cfg.Path,
		maxOpenConns:    cfg.MaxOpenConns,
		maxIdleConns:    cfg.MaxIdleConns,
		connMaxLifetime: cfg.ConnMaxLifetime,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxIdleConns)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Foreign keys are a connection-level setting
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// UpsertSession inserts or refreshes a session record
func (s *SQLiteStore) UpsertSession(ctx context.Context, rec *SessionRecord) error {
	query := `
		INSERT INTO sessions (id, device_id, source_path, format, sensor_count, sample_count, imported_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			device_id = excluded.device_id,
			source_path = excluded.source_path,
			format = excluded.format,
			sensor_count = excluded.sensor_count,
			sample_count = excluded.sample_count,
			imported_at = excluded.imported_at,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.DeviceID,
		rec.SourcePath,
		rec.Format,
		rec.SensorCount,
		rec.SampleCount,
		rec.ImportedAt.UTC().Format(sqliteTimeLayout),
		rec.CreatedAt.Format(sqliteTimeLayout),
		rec.UpdatedAt.Format(sqliteTimeLayout),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	query := `
		SELECT id, device_id, source_path, format, sensor_count, sample_count, imported_at, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	rec := &SessionRecord{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.DeviceID,
		&rec.SourcePath,
		&rec.Format,
		&rec.SensorCount,
		&rec.SampleCount,
		&rec.ImportedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return rec, nil
}

// ListSessions lists sessions with pagination, newest first
func (s *SQLiteStore) ListSessions(ctx context.Context, limit, offset int) ([]*SessionRecord, error) {
	query := `
		SELECT id, device_id, source_path, format, sensor_count, sample_count, imported_at, created_at, updated_at
		FROM sessions
		ORDER BY imported_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	records := []*SessionRecord{}
	for rows.Next() {
		rec := &SessionRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.DeviceID,
			&rec.SourcePath,
			&rec.Format,
			&rec.SensorCount,
			&rec.SampleCount,
			&rec.ImportedAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return records, nil
}

// DeleteSession deletes a session by ID; attribute snapshots cascade
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("session not found: %s", id)
	}

	return nil
}

// UpsertAttribute inserts or refreshes an attribute snapshot
func (s *SQLiteStore) UpsertAttribute(ctx context.Context, rec *AttributeRecord) error {
	query := `
		INSERT INTO session_attributes (session_id, name, value, available, resolved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, name) DO UPDATE SET
			value = excluded.value,
			available = excluded.available,
			resolved_at = excluded.resolved_at
	`

	if rec.ResolvedAt.IsZero() {
		rec.ResolvedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.SessionID,
		rec.Name,
		rec.Value,
		rec.Available,
		rec.ResolvedAt.UTC().Format(sqliteTimeLayout),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert attribute: %w", err)
	}

	return nil
}

// ListAttributes lists the attribute snapshots of a session
func (s *SQLiteStore) ListAttributes(ctx context.Context, sessionID string) ([]*AttributeRecord, error) {
	query := `
		SELECT session_id, name, value, available, resolved_at
		FROM session_attributes
		WHERE session_id = ?
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attributes: %w", err)
	}
	defer rows.Close()

	records := []*AttributeRecord{}
	for rows.Next() {
		rec := &AttributeRecord{}
		err := rows.Scan(
			&rec.SessionID,
			&rec.Name,
			&rec.Value,
			&rec.Available,
			&rec.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attributes: %w", err)
	}

	return records, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}

// sqliteTimeLayout is the datetime format SQLite's date functions accept.
const sqliteTimeLayout = "2006-01-02 15:04:05"

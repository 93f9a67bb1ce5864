package stores

import (
	"context"
	"time"
)

// SessionRecord is one imported session in the catalog.
type SessionRecord struct {
	// ID is the session's stable identifier (content hash on import).
	ID string

	// DeviceID identifies the recording device.
	DeviceID string

	// SourcePath is the log file the session was imported from.
	SourcePath string

	// Format is the detected file format label.
	Format string

	// SensorCount is the number of sensors with raw data.
	SensorCount int

	// SampleCount is the total number of raw samples across sensors.
	SampleCount int

	ImportedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AttributeRecord is a resolved attribute snapshot for a session.
type AttributeRecord struct {
	SessionID string
	Name      string

	// Value is the resolved value rendered as text. Empty with
	// Available false when the attribute resolved unavailable.
	Value     string
	Available bool

	ResolvedAt time.Time
}

// Store defines the catalog operations.
type Store interface {
	// Init opens the database connection.
	Init(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// Migrate runs schema migrations.
	Migrate(ctx context.Context) error

	// UpsertSession inserts or refreshes a session record. Re-importing
	// the same file updates the existing row.
	UpsertSession(ctx context.Context, rec *SessionRecord) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*SessionRecord, error)

	// ListSessions lists sessions ordered by import time, newest first.
	ListSessions(ctx context.Context, limit, offset int) ([]*SessionRecord, error)

	// DeleteSession deletes a session and its attribute snapshots.
	DeleteSession(ctx context.Context, id string) error

	// UpsertAttribute inserts or refreshes an attribute snapshot.
	UpsertAttribute(ctx context.Context, rec *AttributeRecord) error

	// ListAttributes lists the attribute snapshots of a session.
	ListAttributes(ctx context.Context, sessionID string) ([]*AttributeRecord, error)

	// HealthCheck verifies the database connection is healthy.
	HealthCheck(ctx context.Context) error
}

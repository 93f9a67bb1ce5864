package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "catalog.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRecord(id string) *SessionRecord {
	return &SessionRecord{
		ID:          id,
		DeviceID:    "device-1",
		SourcePath:  "/mnt/flysight/12-34-56.CSV",
		Format:      "fs1",
		SensorCount: 1,
		SampleCount: 1200,
		ImportedAt:  time.Date(2015, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	if _, err := NewSQLiteStore(Config{}); err == nil {
		t.Error("expected an error for empty path")
	}
}

func TestUpsertAndGetSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("abc123")
	if err := store.UpsertSession(ctx, rec); err != nil {
		t.Fatalf("UpsertSession: %v", err)
	}

	got, err := store.GetSession(ctx, "abc123")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.DeviceID != "device-1" || got.Format != "fs1" || got.SampleCount != 1200 {
		t.Errorf("GetSession = %+v", got)
	}

	// Re-importing the same file updates in place.
	rec.SampleCount = 2400
	if err := store.UpsertSession(ctx, rec); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	got, err = store.GetSession(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if got.SampleCount != 2400 {
		t.Errorf("SampleCount after re-upsert = %d, want 2400", got.SampleCount)
	}

	records, err := store.ListSessions(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("ListSessions returned %d records, want 1", len(records))
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetSession(context.Background(), "nope"); err == nil {
		t.Error("expected an error for unknown session")
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	old := sampleRecord("old")
	old.ImportedAt = time.Date(2015, 5, 1, 10, 0, 0, 0, time.UTC)
	recent := sampleRecord("recent")
	recent.ImportedAt = time.Date(2015, 5, 1, 14, 0, 0, 0, time.UTC)

	for _, rec := range []*SessionRecord{old, recent} {
		if err := store.UpsertSession(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.ListSessions(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 || records[0].ID != "recent" {
		t.Errorf("expected newest first, got %v", []string{records[0].ID, records[1].ID})
	}

	page, err := store.ListSessions(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != "old" {
		t.Errorf("pagination broken: %+v", page)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertSession(ctx, sampleRecord("abc123")); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertAttribute(ctx, &AttributeRecord{
		SessionID: "abc123",
		Name:      "_DURATION",
		Value:     "60",
		Available: true,
	}); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteSession(ctx, "abc123"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := store.DeleteSession(ctx, "abc123"); err == nil {
		t.Error("deleting twice should fail")
	}

	attrs, err := store.ListAttributes(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(attrs) != 0 {
		t.Errorf("attributes should cascade on delete, found %d", len(attrs))
	}
}

func TestUpsertAndListAttributes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertSession(ctx, sampleRecord("abc123")); err != nil {
		t.Fatal(err)
	}

	attrs := []*AttributeRecord{
		{SessionID: "abc123", Name: "_START_TIME", Value: "2015-05-01T12:00:00.000Z", Available: true},
		{SessionID: "abc123", Name: "_DURATION", Value: "60", Available: true},
		{SessionID: "abc123", Name: "_EXIT_TIME", Available: false},
	}
	for _, a := range attrs {
		if err := store.UpsertAttribute(ctx, a); err != nil {
			t.Fatalf("UpsertAttribute %s: %v", a.Name, err)
		}
	}

	// Re-resolving overwrites the snapshot.
	if err := store.UpsertAttribute(ctx, &AttributeRecord{
		SessionID: "abc123", Name: "_DURATION", Value: "61", Available: true,
	}); err != nil {
		t.Fatal(err)
	}

	got, err := store.ListAttributes(ctx, "abc123")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("ListAttributes returned %d records, want 3", len(got))
	}
	// Sorted by name.
	if got[0].Name != "_DURATION" || got[0].Value != "61" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Name != "_EXIT_TIME" || got[1].Available {
		t.Errorf("got[1] = %+v", got[1])
	}
}

func TestHealthCheck(t *testing.T) {
	store := newTestStore(t)
	if err := store.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}

	uninitialized, err := NewSQLiteStore(Config{Path: filepath.Join(t.TempDir(), "x.db")})
	if err != nil {
		t.Fatal(err)
	}
	if err := uninitialized.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck before Init should fail")
	}
}

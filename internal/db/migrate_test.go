package db

import (
	"testing"
)

func newTestMigrator(t *testing.T) (*Migrator, *DB) {
	t.Helper()
	database, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	migrator := NewMigrator(database.DB)
	if err := migrator.Initialize(); err != nil {
		t.Fatalf("Failed to initialize migrations: %v", err)
	}
	return migrator, database
}

func TestMigrateUp(t *testing.T) {
	migrator, database := newTestMigrator(t)

	if err := migrator.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	version, err := migrator.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version < 1 {
		t.Errorf("CurrentVersion = %d, want >= 1", version)
	}

	// Schema tables must exist after the initial migration.
	for _, table := range []string{"documents", "actions", "remote_credentials"} {
		var name string
		err := database.QueryRow(
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("Table %s missing after migration: %v", table, err)
		}
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	migrator, _ := newTestMigrator(t)

	if err := migrator.Up(); err != nil {
		t.Fatalf("First Up failed: %v", err)
	}
	first, err := migrator.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}

	if err := migrator.Up(); err != nil {
		t.Fatalf("Second Up failed: %v", err)
	}
	second, err := migrator.CurrentVersion()
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if first != second {
		t.Errorf("Version changed on repeated Up: %d -> %d", first, second)
	}
}

func TestAppliedMigrationsRecorded(t *testing.T) {
	migrator, _ := newTestMigrator(t)

	if err := migrator.Up(); err != nil {
		t.Fatalf("Up failed: %v", err)
	}

	applied, err := migrator.GetAppliedMigrations()
	if err != nil {
		t.Fatalf("GetAppliedMigrations failed: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("No migrations recorded")
	}
	for _, m := range applied {
		if len(m.Checksum) != 64 {
			t.Errorf("Migration %d checksum length = %d, want 64", m.Version, len(m.Checksum))
		}
	}
}

package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunMigrationsAppliesOnce(t *testing.T) {
	dir := t.TempDir()
	migrations := filepath.Join(dir, "migrations")
	if err := os.Mkdir(migrations, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(migrations, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("0001_a.sql", `CREATE TABLE a (id INTEGER PRIMARY KEY);`)
	write("0002_b.sql", `CREATE TABLE b (id INTEGER PRIMARY KEY);`)
	write("README.md", `not a migration`)

	database, err := OpenSQLite(filepath.Join(dir, "nested", "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	status, err := MigrationStatus(database, migrations)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(status) != 2 || status[0].AppliedAt != nil || status[1].AppliedAt != nil {
		t.Fatalf("expected two pending migrations, got %+v", status)
	}

	if err := RunMigrations(database, migrations); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := RunMigrations(database, migrations); err != nil {
		t.Fatalf("second run should be a no-op: %v", err)
	}

	status, err = MigrationStatus(database, migrations)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, m := range status {
		if m.AppliedAt == nil {
			t.Fatalf("expected %s applied", m.Name)
		}
	}
}

func TestRunMigrationsRollsBackFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "0001_bad.sql"), []byte(`CREATE TABLE broken (`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	database, err := OpenSQLite(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	if err := RunMigrations(database, dir); err == nil {
		t.Fatal("expected failure")
	}
	status, err := MigrationStatus(database, dir)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status[0].AppliedAt != nil {
		t.Fatal("failed migration must not be recorded")
	}
}

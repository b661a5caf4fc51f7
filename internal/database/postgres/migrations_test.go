package postgres

import "testing"

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}

	want := []string{"001_create_attendance.sql", "002_create_gallery_references.sql"}
	if len(migrations) != len(want) {
		t.Fatalf("got %d migrations, want %d", len(migrations), len(want))
	}
	for i, m := range migrations {
		if m.version != want[i] {
			t.Errorf("migration %d = %q, want %q", i, m.version, want[i])
		}
		if m.sql == "" {
			t.Errorf("migration %s is empty", m.version)
		}
	}
}

package db_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lojf/classbook/internal/db"
)

// TestWALMode verifies that the DSN parameters enable WAL journal mode and foreign keys.
func TestWALMode(t *testing.T) {
	gdb, err := db.Open(filepath.Join(t.TempDir(), "wal_test.db"), 5*time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	var mode string
	gdb.Raw("PRAGMA journal_mode").Scan(&mode)
	if mode != "wal" {
		t.Errorf("expected journal_mode=wal, got %q", mode)
	}

	var fk int
	gdb.Raw("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}
}

// TestOpen_CreatesTablesAndIndexes verifies the relational layout and the
// composite indexes GORM does not create from struct tags.
func TestOpen_CreatesTablesAndIndexes(t *testing.T) {
	gdb, err := db.Open(filepath.Join(t.TempDir(), "classbook.db"), 5*time.Second, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, table := range []string{
		"classes", "students", "class_students", "attendance", "dates",
		"holidays", "defaults", "form_settings", "teacher_defaults", "factory_defaults",
	} {
		if !gdb.Migrator().HasTable(table) {
			t.Errorf("table %q missing", table)
		}
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}

	found := indexNames(t, sqlDB, "attendance")
	for _, want := range []string{"idx_att_class_date", "idx_att_student"} {
		if !found[want] {
			t.Errorf("index %q missing from attendance table; found: %v", want, found)
		}
	}
}

func indexNames(t *testing.T, sqlDB *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := sqlDB.Query("PRAGMA index_list(" + table + ")")
	if err != nil {
		t.Fatalf("PRAGMA index_list: %v", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var seq int
		var name string
		var unique bool
		var origin, partial string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out[name] = true
	}
	return out
}

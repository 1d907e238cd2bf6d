package db

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lojf/classbook/internal/logger"
	"github.com/lojf/classbook/internal/models"
)

// DSN builds the sqlite connection string for a store file.
func DSN(path string, busyTimeout time.Duration) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=on",
		path, busyTimeout.Milliseconds())
}

// Open opens (creating if needed) the single-file store and migrates it.
func Open(path string, busyTimeout time.Duration, log zerolog.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(DSN(path, busyTimeout)), &gorm.Config{
		Logger: logger.NewGorm(log),
	})
	if err != nil {
		return nil, err
	}

	// SQLite works best with a single writer; cap the pool accordingly.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := Migrate(conn); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Info().Str("path", path).Msg("database ready (sqlite)")
	return conn, nil
}

// Tables lists every model in creation order.
func Tables() []any {
	return []any{
		&models.Class{},
		&models.Student{},
		&models.ClassStudent{},
		&models.ClassDate{},
		&models.Attendance{},
		&models.Holiday{},
		&models.Default{},
		&models.FormSetting{},
		&models.TeacherDefault{},
		&models.FactoryDefault{},
	}
}

// Migrate creates or upgrades the schema.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(Tables()...); err != nil {
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	// Composite indexes that GORM doesn't auto-create from struct tags.
	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_att_class_date ON attendance(class_no, date)",
		"CREATE INDEX IF NOT EXISTS idx_att_student    ON attendance(student_id)",
		"CREATE INDEX IF NOT EXISTS idx_cs_student     ON class_students(student_id)",
	} {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

// Connect opens dsn. Postgres is the default; "file:" DSNs and *.db paths open
// an embedded SQLite database for local use and tests.
func Connect(dsn string, l *log.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(dsn), &gorm.Config{Logger: gormLogger(l)})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if db.Dialector.Name() == "sqlite" {
		// SQLite allows a single writer.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	l.Info("Database connection established")
	return db, nil
}

func dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "file:") || strings.HasSuffix(dsn, ".db") {
		return sqlite.Open(sqliteDSN(dsn))
	}
	return postgres.Open(dsn)
}

// sqliteDSN turns on foreign keys for every connection so company deletes cascade.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB, l *log.Logger) error {
	l.Info("Running migrations")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func gormLogger(l *log.Logger) logger.Interface {
	level := logger.Warn
	switch l.GetLevel() {
	case log.DebugLevel, log.TraceLevel:
		level = logger.Info
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		level = logger.Error
	}
	return logger.New(l, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

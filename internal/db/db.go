package db

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/presence-gateway/internal/config"
)

// NowFunc is the gorm clock: UTC with millisecond precision, matching the
// resolution of pagination cursors.
func NowFunc() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewDB initializes the database connection for cfg.DB.Driver and migrates the schema.
//
// Drivers:
//   - mysql (default): cfg.DB.DSN, built from DB_* when MYSQL_DSN is unset.
//   - sqlite: cfg.DB.DSN is a file path; one open connection, since sqlite
//     serializes writers anyway.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.App.ENV == "development" {
		level = logger.Info // log SQL queries
	}

	var dialector gorm.Dialector
	switch cfg.DB.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB.DSN)
	case "mysql", "":
		dialector = mysql.Open(cfg.DB.DSN)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DB.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newLogger(os.Stdout, level),
		NowFunc: NowFunc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.DB.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// newLogger mirrors gorm's default logger but stays quiet about ErrRecordNotFound,
// which callers treat as an answer, not a failure.
func newLogger(w io.Writer, level logger.LogLevel) logger.Interface {
	return logger.New(log.New(w, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aviaryworks/aviary/internal/ledger"
	"github.com/aviaryworks/aviary/internal/notify"
)

// OpenSQLite establishes a SQLite connection and performs schema migrations.
// The pool is capped at one connection: the ledger is a single-writer
// design and SQLite serializes writers anyway.
func OpenSQLite(path string, logger *zap.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&ledger.Tweet{},
		&ledger.MessageRow{},
		&ledger.Comment{},
		&ledger.Like{},
		&ledger.FollowEdge{},
		&ledger.Delegation{},
		&ledger.Counter{},
		&notify.EventRecord{},
	); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("path", path))
	}

	return db, nil
}

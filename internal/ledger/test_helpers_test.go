package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/aviaryworks/aviary/internal/notify"
)

const testClockSeconds = 1700000000

func mustPrincipal(t *testing.T, value string) PrincipalID {
	t.Helper()
	id, err := NewPrincipalID(value)
	if err != nil {
		t.Fatalf("unexpected principal error: %v", err)
	}
	return id
}

func fixedClock(seconds int64) func() time.Time {
	return func() time.Time {
		return time.Unix(seconds, 0).UTC()
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{Clock: fixedClock(testClockSeconds)})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func newDatabaseService(t *testing.T, db *gorm.DB) *Service {
	t.Helper()
	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    fixedClock(testClockSeconds),
	})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return service
}

func openTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&Tweet{}, &MessageRow{}, &Comment{}, &Like{},
		&FollowEdge{}, &Delegation{}, &Counter{}, &notify.EventRecord{},
	); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func mustPost(t *testing.T, service *Service, author PrincipalID, content string) uint64 {
	t.Helper()
	id, err := service.PostAsSelf(context.Background(), author, content)
	if err != nil {
		t.Fatalf("unexpected post error: %v", err)
	}
	return id
}

func mustSend(t *testing.T, service *Service, sender, receiver PrincipalID, content string) uint64 {
	t.Helper()
	id, err := service.SendAsSelf(context.Background(), sender, receiver, content)
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	return id
}

func mustGrant(t *testing.T, service *Service, owner, operator PrincipalID) {
	t.Helper()
	if err := service.GrantDelegation(context.Background(), owner, operator); err != nil {
		t.Fatalf("unexpected grant error: %v", err)
	}
}

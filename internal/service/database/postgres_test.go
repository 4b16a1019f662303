package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("CREATE TABLE notes (id TEXT PRIMARY KEY, body TEXT)").Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	return db
}

func TestRunAs_EmptySubject(t *testing.T) {
	svc, err := NewWithGorm(newTestDB(t), newTestLogger(), false)
	if err != nil {
		t.Fatalf("NewWithGorm failed: %v", err)
	}

	err = svc.RunAs(context.Background(), "", func(tx *gorm.DB) error { return nil })
	if err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestRunAs_CommitsOnSuccess(t *testing.T) {
	svc, err := NewWithGorm(newTestDB(t), newTestLogger(), false)
	if err != nil {
		t.Fatalf("NewWithGorm failed: %v", err)
	}

	err = svc.RunAs(context.Background(), "auth0|tester", func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO notes (id, body) VALUES (?, ?)", "n1", "hello").Error
	})
	if err != nil {
		t.Fatalf("RunAs failed: %v", err)
	}

	var count int64
	if err := svc.gormDB.Raw("SELECT COUNT(*) FROM notes").Scan(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 row after commit, got %d", count)
	}
}

func TestRunAs_RollsBackOnError(t *testing.T) {
	svc, err := NewWithGorm(newTestDB(t), newTestLogger(), false)
	if err != nil {
		t.Fatalf("NewWithGorm failed: %v", err)
	}

	wantErr := fmt.Errorf("boom")
	err = svc.RunAs(context.Background(), "auth0|tester", func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO notes (id, body) VALUES (?, ?)", "n1", "hello").Error; err != nil {
			return err
		}
		return wantErr
	})
	if err == nil {
		t.Fatal("expected error to propagate")
	}

	var count int64
	if err := svc.gormDB.Raw("SELECT COUNT(*) FROM notes").Scan(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 rows after rollback, got %d", count)
	}
}

func TestIsDuplicateKeyError(t *testing.T) {
	db := newTestDB(t)

	if err := db.Exec("INSERT INTO notes (id, body) VALUES (?, ?)", "n1", "a").Error; err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	err := db.Exec("INSERT INTO notes (id, body) VALUES (?, ?)", "n1", "b").Error
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if !IsDuplicateKeyError(err) {
		t.Errorf("IsDuplicateKeyError(%v) = false, want true", err)
	}

	if IsDuplicateKeyError(nil) {
		t.Error("IsDuplicateKeyError(nil) = true, want false")
	}
	if IsDuplicateKeyError(fmt.Errorf("connection refused")) {
		t.Error("unrelated error reported as duplicate key")
	}
}

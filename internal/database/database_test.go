package database

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestOpenAndMigrate проверяет создание файла и применение миграций.
func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "portal.db")

	db, err := Open(ctx, path, testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("файл базы не создан: %v", err)
	}

	if err := Migrate(db, testLogger()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Повторный запуск — ErrNoChange не считается ошибкой
	if err := Migrate(db, testLogger()); err != nil {
		t.Fatalf("повторный Migrate: %v", err)
	}

	var count int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'kv_store'`,
	).Scan(&count)
	if err != nil {
		t.Fatalf("запрос sqlite_master: %v", err)
	}
	if count != 1 {
		t.Errorf("таблица kv_store не создана")
	}
}

// TestReadinessChecker проверяет статусы readiness.
func TestReadinessChecker(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "ready.db"), testLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	checker := NewReadinessChecker(db)
	if status, msg := checker.CheckReady(); status != "ok" {
		t.Errorf("статус = %s (%s), ожидался ok", status, msg)
	}

	_ = db.Close()
	if status, _ := checker.CheckReady(); status != "fail" {
		t.Errorf("статус после Close = %s, ожидался fail", status)
	}
}

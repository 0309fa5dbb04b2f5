package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// KVRepository — строковое хранилище ключ-значение (таблица kv_store).
// Используется для сохранения сессии между запусками.
type KVRepository interface {
	// Get возвращает значение по ключу. Если не найдено — ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set создаёт или обновляет значение (upsert).
	Set(ctx context.Context, key, value string) error
	// Delete удаляет ключи. Отсутствующие ключи не считаются ошибкой.
	Delete(ctx context.Context, keys ...string) error
}

// kvRepo — реализация KVRepository.
type kvRepo struct {
	db DBTX
}

// NewKVRepository создаёт репозиторий ключ-значение.
func NewKVRepository(db DBTX) KVRepository {
	return &kvRepo{db: db}
}

// Get возвращает значение по ключу.
func (r *kvRepo) Get(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM kv_store WHERE key = ?`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка получения kv_store[%s]: %w", key, err)
	}
	return value, nil
}

// Set создаёт или обновляет значение (INSERT ... ON CONFLICT DO UPDATE).
func (r *kvRepo) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения kv_store[%s]: %w", key, err)
	}
	return nil
}

// Delete удаляет ключи одним запросом.
func (r *kvRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	query := `DELETE FROM kv_store WHERE key IN (` + placeholders + `)` //nolint:gosec // G202: только плейсхолдеры

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка удаления kv_store %v: %w", keys, err)
	}
	return nil
}

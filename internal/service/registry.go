// registry.go — реестр смонтированных дашбордов.
// Обёртка над hashicorp/golang-lru/v2/expirable: скользящий TTL
// (обновляется при каждом обращении) и ограничение количества.
// Вытеснение, истечение TTL и размонтирование освобождают дашборд.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bigkaa/zntax/portal-module/internal/session"
)

// ViewRegistry — реестр дашбордов текущей сессии.
type ViewRegistry struct {
	views    *expirable.LRU[string, *View]
	backend  Backend
	sessions SessionSource
	logger   *slog.Logger

	// ctx — родительский контекст фоновых загрузок, отменяется в Close
	ctx    context.Context
	cancel context.CancelFunc
}

// NewViewRegistry создаёт реестр.
// maxViews — максимальное количество дашбордов (ZP_VIEW_MAX).
// ttl — время жизни дашборда без обращений (ZP_VIEW_TTL).
func NewViewRegistry(
	backend Backend,
	sessions SessionSource,
	maxViews int,
	ttl time.Duration,
	logger *slog.Logger,
) *ViewRegistry {
	ctx, cancel := context.WithCancel(context.Background())

	r := &ViewRegistry{
		backend:  backend,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "view_registry")),
		ctx:      ctx,
		cancel:   cancel,
	}

	// onEvict вызывается под блокировкой LRU: только освобождение ресурсов
	r.views = expirable.NewLRU[string, *View](maxViews, func(id string, v *View) {
		v.Dispose()
		activeViews.Dec()
		r.logger.Debug("Дашборд освобождён", slog.String("view_id", id))
	}, ttl)

	return r
}

// Mount монтирует дашборд и запускает начальную загрузку в фоне.
// Дашборд администратора требует роли admin.
func (r *ViewRegistry) Mount(kind Kind) (*View, error) {
	s := r.sessions.Current()
	if s == nil {
		return nil, ErrNoSession
	}
	if kind == KindAdmin && !s.IsAdmin() {
		return nil, fmt.Errorf("дашборд администратора: %w", ErrForbidden)
	}

	v := newView(r.ctx, uuid.NewString(), kind, r.backend, r.sessions, r.logger)
	r.views.Add(v.id, v)
	activeViews.Inc()

	r.logger.Info("Дашборд смонтирован",
		slog.String("view_id", v.id),
		slog.String("kind", string(kind)),
		slog.String("email", s.Email),
	)

	v.refreshAsync("mount")
	return v, nil
}

// Get возвращает дашборд и продлевает его TTL.
func (r *ViewRegistry) Get(id string) (*View, error) {
	v, ok := r.views.Get(id)
	if !ok {
		return nil, fmt.Errorf("дашборд %s: %w", id, ErrViewNotFound)
	}
	// Повторный Add существующего ключа обновляет срок жизни без вытеснения
	r.views.Add(id, v)
	return v, nil
}

// Unmount размонтирует дашборд. Возвращает false, если его не было.
func (r *ViewRegistry) Unmount(id string) bool {
	ok := r.views.Remove(id)
	if ok {
		r.logger.Info("Дашборд размонтирован", slog.String("view_id", id))
	}
	return ok
}

// Len — количество смонтированных дашбордов.
func (r *ViewRegistry) Len() int {
	return r.views.Len()
}

// OnSessionChange реагирует на смену сессии (подписка на session.Manager).
// Выход или вход другим пользователем — все дашборды освобождаются:
// данные прежнего пользователя не показываются новому даже как устаревшие.
// Новый токен того же пользователя — каждый дашборд перезагружается,
// вытесняя запросы в полёте.
func (r *ViewRegistry) OnSessionChange(prev, next *session.Session) {
	if next == nil {
		r.purge("Сессия завершена, дашборды освобождены")
		return
	}
	if prev == nil {
		return
	}
	if !sameIdentity(prev, next) {
		r.purge("Вход другим пользователем, дашборды освобождены")
		return
	}
	if prev.Token == next.Token {
		return
	}

	for _, v := range r.views.Values() {
		v.refreshAsync("token_change")
	}
}

// purge освобождает все дашборды.
func (r *ViewRegistry) purge(msg string) {
	n := r.views.Len()
	r.views.Purge()
	r.logger.Info(msg, slog.Int("count", n))
}

// sameIdentity сообщает, что сессии принадлежат одному пользователю с той же ролью.
func sameIdentity(a, b *session.Session) bool {
	return strings.EqualFold(strings.TrimSpace(a.Email), strings.TrimSpace(b.Email)) && a.Role == b.Role
}

// Close освобождает все дашборды и отменяет фоновые загрузки.
func (r *ViewRegistry) Close() {
	r.cancel()
	r.views.Purge()
}

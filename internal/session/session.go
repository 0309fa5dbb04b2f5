// Пакет session — явный контекст сессии портала (токен, email, роль)
// и его жизненный цикл: восстановление при старте, вход, выход.
// Токен хранится на устройстве в зашифрованном виде.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bigkaa/zntax/portal-module/internal/domain/rbac"
	"github.com/bigkaa/zntax/portal-module/internal/repository"
)

// Ключи локального хранилища.
const (
	keyToken = "session.token"
	keyEmail = "session.email"
)

// ErrInvalidCredentials — пустой email или пароль (до обращения к backend).
var ErrInvalidCredentials = errors.New("email и пароль обязательны")

// Session — снимок текущей сессии. Неизменяем после создания.
type Session struct {
	// Token — JWT backend (передаётся как Bearer)
	Token string
	// Email — email пользователя
	Email string
	// Role — роль (rbac.RoleAdmin или rbac.RoleClient)
	Role string
	// ExpiresAt — срок действия токена (нулевое значение — не указан)
	ExpiresAt time.Time
}

// IsAdmin сообщает, что сессия принадлежит администратору.
func (s *Session) IsAdmin() bool {
	return s.Role == rbac.RoleAdmin
}

// Expired проверяет истечение токена на момент now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Authenticator — обмен учётных данных на токен (реализуется apiclient.Client).
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

// ChangeFunc — обработчик смены сессии. next == nil означает выход.
type ChangeFunc func(prev, next *Session)

// Manager — владелец текущей сессии.
// Безопасен для конкурентного использования.
type Manager struct {
	auth       Authenticator
	store      repository.KVRepository
	cipher     *Cipher
	adminEmail string
	logger     *slog.Logger

	// opMu сериализует Load/Login/Clear, чтобы хранилище и current не расходились
	opMu sync.Mutex

	mu          sync.RWMutex
	current     *Session
	subscribers map[int]ChangeFunc
	nextSubID   int
}

// NewManager создаёт менеджер сессии без активной сессии.
// adminEmail — email администратора (ZP_ADMIN_EMAIL).
func NewManager(
	auth Authenticator,
	store repository.KVRepository,
	cipher *Cipher,
	adminEmail string,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		auth:        auth,
		store:       store,
		cipher:      cipher,
		adminEmail:  adminEmail,
		logger:      logger.With(slog.String("component", "session")),
		subscribers: make(map[int]ChangeFunc),
	}
}

// Current возвращает текущую сессию или nil.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Subscribe регистрирует обработчик смены сессии.
// Возвращает функцию отписки.
func (m *Manager) Subscribe(fn ChangeFunc) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

// Load восстанавливает сессию из хранилища при старте.
// Отсутствие сохранённой сессии — не ошибка. Повреждённые данные или
// истёкший токен удаляются из хранилища.
func (m *Manager) Load(ctx context.Context) (*Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	sealed, err := m.store.Get(ctx, keyToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение токена: %w", err)
	}

	email, err := m.store.Get(ctx, keyEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, m.discardStored(ctx, "отсутствует email")
	}
	if err != nil {
		return nil, fmt.Errorf("чтение email: %w", err)
	}

	token, err := m.cipher.Open(sealed)
	if err != nil {
		return nil, m.discardStored(ctx, "токен не расшифрован")
	}

	s := m.newSession(token, email)
	if s.Expired(time.Now()) {
		return nil, m.discardStored(ctx, "токен истёк")
	}

	m.publish(s)
	m.logger.Info("Сессия восстановлена",
		slog.String("email", s.Email),
		slog.String("role", s.Role),
	)
	return s, nil
}

// Login выполняет вход через backend, сохраняет токен и email
// и публикует новую сессию.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, err := m.auth.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("вход %s: %w", email, err)
	}

	sealed, err := m.cipher.Seal(token)
	if err != nil {
		return nil, fmt.Errorf("шифрование токена: %w", err)
	}
	if err := m.store.Set(ctx, keyToken, sealed); err != nil {
		return nil, fmt.Errorf("сохранение токена: %w", err)
	}
	if err := m.store.Set(ctx, keyEmail, email); err != nil {
		return nil, fmt.Errorf("сохранение email: %w", err)
	}

	s := m.newSession(token, email)
	m.publish(s)

	m.logger.Info("Вход выполнен",
		slog.String("email", s.Email),
		slog.String("role", s.Role),
	)
	return s, nil
}

// Logout завершает сессию пользователя.
func (m *Manager) Logout(ctx context.Context) error {
	prev := m.Current()
	if err := m.Clear(ctx); err != nil {
		return err
	}
	if prev != nil {
		m.logger.Info("Выход выполнен", slog.String("email", prev.Email))
	}
	return nil
}

// Clear удаляет токен и email из хранилища и публикует «нет сессии».
func (m *Manager) Clear(ctx context.Context) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := m.store.Delete(ctx, keyToken, keyEmail); err != nil {
		return fmt.Errorf("удаление сессии: %w", err)
	}
	m.publish(nil)
	return nil
}

// discardStored удаляет некорректную сохранённую сессию.
// Вызывается под opMu.
func (m *Manager) discardStored(ctx context.Context, reason string) error {
	m.logger.Warn("Сохранённая сессия отброшена", slog.String("reason", reason))
	if err := m.store.Delete(ctx, keyToken, keyEmail); err != nil {
		return fmt.Errorf("удаление сессии: %w", err)
	}
	return nil
}

// newSession собирает снимок сессии из токена и email.
// Подпись токена не проверяется: это делает backend.
func (m *Manager) newSession(token, email string) *Session {
	s := &Session{Token: token, Email: email}

	var tokenRole string
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		m.logger.Debug("Токен не разобран как JWT", slog.String("error", err.Error()))
	} else {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time
		}
		if role, ok := claims["role"].(string); ok {
			tokenRole = role
		}
		if s.Email == "" {
			if claimEmail, ok := claims["email"].(string); ok {
				s.Email = claimEmail
			}
		}
	}

	s.Role = rbac.ResolveRole(s.Email, m.adminEmail, tokenRole)
	return s
}

// publish заменяет текущую сессию и уведомляет подписчиков вне блокировки.
func (m *Manager) publish(next *Session) {
	m.mu.Lock()
	prev := m.current
	m.current = next
	subs := make([]ChangeFunc, 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if prev == nil && next == nil {
		return
	}
	for _, fn := range subs {
		fn(prev, next)
	}
}

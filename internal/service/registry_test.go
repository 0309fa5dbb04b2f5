package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bigkaa/zntax/portal-module/internal/apiclient"
	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
	"github.com/bigkaa/zntax/portal-module/internal/domain/rbac"
	"github.com/bigkaa/zntax/portal-module/internal/session"
)

// waitFor ожидает выполнения условия (фоновые загрузки асинхронны).
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("условие не выполнено за 2s")
}

func newTestRegistry(backend Backend, sessions *mockSessions, ttl time.Duration) *ViewRegistry {
	r := NewViewRegistry(backend, sessions, 8, ttl, testLogger())
	return r
}

// TestMount_RequiresSession проверяет права на монтирование.
func TestMount_RequiresSession(t *testing.T) {
	sessions := &mockSessions{}
	r := newTestRegistry(&mockBackend{}, sessions, time.Minute)
	defer r.Close()

	if _, err := r.Mount(KindClient); !errors.Is(err, ErrNoSession) {
		t.Errorf("без сессии: err = %v", err)
	}

	sessions.set(clientSession())
	if _, err := r.Mount(KindAdmin); !errors.Is(err, ErrForbidden) {
		t.Errorf("клиент монтирует дашборд администратора: err = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d после отказов", r.Len())
	}
}

// TestMount_LoadsInBackground проверяет начальную загрузку при монтировании.
func TestMount_LoadsInBackground(t *testing.T) {
	backend := &mockBackend{
		listMyFilesFn: func(context.Context, string) ([]model.DocumentRecord, error) {
			return []model.DocumentRecord{doc("d1", "2024-25", model.ProjectReport, "c1")}, nil
		},
	}
	r := newTestRegistry(backend, &mockSessions{current: clientSession()}, time.Minute)
	defer r.Close()

	v, err := r.Mount(KindClient)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if v.ID() == "" || v.Kind() != KindClient {
		t.Errorf("view = %s/%s", v.ID(), v.Kind())
	}

	waitFor(t, func() bool { return v.Status().Documents.Status == StatusLoaded })

	got, err := r.Get(v.ID())
	if err != nil || got != v {
		t.Errorf("Get = %v, %v", got, err)
	}
}

// TestGetUnmount проверяет поиск и размонтирование.
func TestGetUnmount(t *testing.T) {
	r := newTestRegistry(&mockBackend{}, &mockSessions{current: clientSession()}, time.Minute)
	defer r.Close()

	v, err := r.Mount(KindClient)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if !r.Unmount(v.ID()) {
		t.Fatal("Unmount = false для смонтированного дашборда")
	}
	if !v.Disposed() {
		t.Error("дашборд не освобождён после Unmount")
	}
	if r.Unmount(v.ID()) {
		t.Error("повторный Unmount = true")
	}
	if _, err := r.Get(v.ID()); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("Get после Unmount: err = %v", err)
	}
}

// TestGet_SlidingTTL проверяет, что обращения продлевают жизнь дашборда,
// а без обращений он истекает и освобождается.
func TestGet_SlidingTTL(t *testing.T) {
	r := newTestRegistry(&mockBackend{}, &mockSessions{current: clientSession()}, 200*time.Millisecond)
	defer r.Close()

	v, err := r.Mount(KindClient)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	for i := 0; i < 6; i++ {
		time.Sleep(50 * time.Millisecond)
		if _, err := r.Get(v.ID()); err != nil {
			t.Fatalf("обращение %d: %v", i, err)
		}
	}

	time.Sleep(300 * time.Millisecond)
	if _, err := r.Get(v.ID()); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("Get после истечения TTL: err = %v", err)
	}
	waitFor(t, v.Disposed)
}

// TestOnSessionChange_Logout проверяет освобождение всех дашбордов при выходе.
func TestOnSessionChange_Logout(t *testing.T) {
	sessions := &mockSessions{current: adminSession()}
	r := newTestRegistry(&mockBackend{}, sessions, time.Minute)
	defer r.Close()

	a, _ := r.Mount(KindAdmin)
	c, _ := r.Mount(KindClient)

	prev := sessions.Current()
	sessions.set(nil)
	r.OnSessionChange(prev, nil)

	if r.Len() != 0 {
		t.Errorf("Len = %d после выхода", r.Len())
	}
	if !a.Disposed() || !c.Disposed() {
		t.Error("дашборды не освобождены после выхода")
	}
}

// TestOnSessionChange_TokenRotation проверяет перезагрузку при новом токене
// того же пользователя: дашборды сохраняются.
func TestOnSessionChange_TokenRotation(t *testing.T) {
	var (
		myFiles   atomic.Int32
		lastToken atomic.Value
	)
	backend := &mockBackend{
		listMyFilesFn: func(_ context.Context, token string) ([]model.DocumentRecord, error) {
			myFiles.Add(1)
			lastToken.Store(token)
			return []model.DocumentRecord{}, nil
		},
	}
	sessions := &mockSessions{current: clientSession()}
	r := newTestRegistry(backend, sessions, time.Minute)
	defer r.Close()

	client, err := r.Mount(KindClient)
	if err != nil {
		t.Fatalf("Mount(client): %v", err)
	}
	waitFor(t, func() bool { return myFiles.Load() == 1 })

	// Тот же токен — без изменений
	same := clientSession()
	r.OnSessionChange(same, same)
	if r.Len() != 1 {
		t.Fatalf("Len = %d после повторной публикации того же токена", r.Len())
	}

	prev := sessions.Current()
	next := clientSession()
	next.Token = "client-token-2"
	sessions.set(next)
	r.OnSessionChange(prev, next)

	if client.Disposed() || r.Len() != 1 {
		t.Fatalf("дашборд освобождён при смене токена: Disposed = %v, Len = %d", client.Disposed(), r.Len())
	}
	waitFor(t, func() bool { return myFiles.Load() == 2 })
	if tok, _ := lastToken.Load().(string); tok != "client-token-2" {
		t.Errorf("перезагрузка с токеном %q", tok)
	}
}

// TestOnSessionChange_UserSwitch проверяет, что вход другим пользователем
// без выхода освобождает дашборды прежнего пользователя, даже если
// загрузка для нового пользователя не удалась.
func TestOnSessionChange_UserSwitch(t *testing.T) {
	alice := &session.Session{Token: "alice-token", Email: "alice@example.com", Role: rbac.RoleClient}
	bob := &session.Session{Token: "bob-token", Email: "bob@example.com", Role: rbac.RoleClient}

	backend := &mockBackend{
		listMyFilesFn: func(_ context.Context, token string) ([]model.DocumentRecord, error) {
			if token == bob.Token {
				return nil, apiclient.ErrNetwork
			}
			return []model.DocumentRecord{doc("d1", "2024-25", model.ProjectReport, "alice")}, nil
		},
	}
	sessions := &mockSessions{current: alice}
	r := newTestRegistry(backend, sessions, time.Minute)
	defer r.Close()

	v, err := r.Mount(KindClient)
	if err != nil {
		t.Fatalf("Mount(client): %v", err)
	}
	waitFor(t, func() bool { return v.Store().Len() == 1 })

	sessions.set(bob)
	r.OnSessionChange(alice, bob)

	if !v.Disposed() {
		t.Error("дашборд прежнего пользователя не освобождён")
	}
	if _, err := r.Get(v.ID()); !errors.Is(err, ErrViewNotFound) {
		t.Errorf("Get после смены пользователя: err = %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, ожидался 0", r.Len())
	}
}

// TestOnSessionChange_RoleChange проверяет освобождение дашбордов
// при смене роли (администратор → клиент).
func TestOnSessionChange_RoleChange(t *testing.T) {
	sessions := &mockSessions{current: adminSession()}
	r := newTestRegistry(&mockBackend{}, sessions, time.Minute)
	defer r.Close()

	admin, _ := r.Mount(KindAdmin)
	client, _ := r.Mount(KindClient)

	prev := sessions.Current()
	next := &session.Session{Token: "other-token", Email: prev.Email, Role: rbac.RoleClient}
	sessions.set(next)
	r.OnSessionChange(prev, next)

	if !admin.Disposed() || !client.Disposed() || r.Len() != 0 {
		t.Errorf("смена роли: admin = %v, client = %v, Len = %d", admin.Disposed(), client.Disposed(), r.Len())
	}
}

// TestSameIdentity проверяет сравнение пользователей сессий.
func TestSameIdentity(t *testing.T) {
	base := &session.Session{Email: "Acme@Example.com", Role: rbac.RoleClient}
	tests := []struct {
		name string
		next *session.Session
		want bool
	}{
		{"тот же email без учёта регистра", &session.Session{Email: " acme@example.com", Role: rbac.RoleClient}, true},
		{"другой email", &session.Session{Email: "globex@example.com", Role: rbac.RoleClient}, false},
		{"другая роль", &session.Session{Email: "acme@example.com", Role: rbac.RoleAdmin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameIdentity(base, tt.next); got != tt.want {
				t.Errorf("sameIdentity = %v, ожидалось %v", got, tt.want)
			}
		})
	}
}

// TestClose проверяет освобождение всех дашбордов при остановке.
func TestClose(t *testing.T) {
	r := newTestRegistry(&mockBackend{}, &mockSessions{current: clientSession()}, time.Minute)
	v, _ := r.Mount(KindClient)

	r.Close()
	if !v.Disposed() || r.Len() != 0 {
		t.Errorf("Close: Disposed = %v, Len = %d", v.Disposed(), r.Len())
	}
}

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bigkaa/zntax/portal-module/internal/upload"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockBackend создаёт mock HTTP-сервер backend и клиент к нему.
func setupMockBackend(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/", "", 5*time.Second, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return server, client
}

// writeJSON отправляет JSON-ответ из mock-сервера.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// TestNew_InvalidURL проверяет отказ на некорректном URL.
func TestNew_InvalidURL(t *testing.T) {
	if _, err := New("not a url", "", time.Second, testLogger()); err == nil {
		t.Fatal("ожидалась ошибка для некорректного URL")
	}
}

// TestNew_MissingCACert проверяет ошибку при отсутствующем CA-файле.
func TestNew_MissingCACert(t *testing.T) {
	_, err := New("https://backend.local", "/nonexistent/ca.pem", time.Second, testLogger())
	if err == nil {
		t.Fatal("ожидалась ошибка загрузки CA-сертификата")
	}
}

// TestLogin_Success проверяет получение токена.
func TestLogin_Success(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("неожиданный запрос %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("вход не должен передавать Authorization")
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("декодирование тела: %v", err)
		}
		if body.Email != "a@b.c" || body.Password != "secret" {
			t.Errorf("тело запроса = %+v", body)
		}
		writeJSON(w, http.StatusOK, map[string]string{"token": "jwt-token"})
	})

	token, err := client.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "jwt-token" {
		t.Errorf("token = %q", token)
	}
}

// TestLogin_Errors проверяет классификацию ошибок входа.
func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		wantMsg  string
	}{
		{"неверный пароль", http.StatusUnauthorized, `{"message":"Invalid credentials"}`, ErrAuth, "Invalid credentials"},
		{"пустые поля", http.StatusBadRequest, `{"message":"Email required"}`, ErrAuth, "Email required"},
		{"запрещено", http.StatusForbidden, `{}`, ErrAuth, ""},
		{"ошибка сервера", http.StatusInternalServerError, `{"message":"boom"}`, ErrNetwork, "boom"},
		{"пустой токен", http.StatusOK, `{"token":""}`, ErrNetwork, ""},
		{"битый JSON", http.StatusOK, `{"token":`, ErrNetwork, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.Login(context.Background(), "a@b.c", "x")
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("ошибка = %v, ожидалась %v", err, tt.wantKind)
			}
			if tt.wantKind == ErrAuth && errors.Is(err, ErrNetwork) {
				t.Error("ErrAuth не должна совпадать с ErrNetwork")
			}
			if got := UserMessage(err, ""); got != tt.wantMsg {
				t.Errorf("UserMessage = %q, ожидалось %q", got, tt.wantMsg)
			}
		})
	}
}

// TestLogin_Unreachable проверяет транспортную ошибку.
func TestLogin_Unreachable(t *testing.T) {
	server, client := setupMockBackend(t, func(http.ResponseWriter, *http.Request) {})
	server.Close()

	_, err := client.Login(context.Background(), "a@b.c", "x")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("ожидалась ErrNetwork, получено %v", err)
	}
}

// TestListAllFiles_Success проверяет разбор списка документов администратора.
func TestListAllFiles_Success(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/all-files" {
			t.Errorf("путь = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("отсутствует X-Request-ID")
		}
		_, _ = io.WriteString(w, `{"success":true,"data":[
			{"_id":"d1","fileName":"a.pdf","fileType":"Project Report","financialYear":"2024-25",
			 "user":{"_id":"c1","name":"Acme","email":"acme@x.io"},"fileUrl":"https://f/a.pdf",
			 "createdAt":"2024-06-01T10:00:00Z"},
			{"_id":"d2","fileName":"b.pdf","fileType":"Invoice","financialYear":"2023-24","user":"c2"},
			{"_id":"","fileName":"broken.pdf"}
		]}`)
	})

	docs, err := client.ListAllFiles(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListAllFiles: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("ожидалось 2 документа, получено %d", len(docs))
	}
	if docs[0].Owner.Name != "Acme" || !docs[0].Owner.Populated() {
		t.Errorf("владелец d1 = %+v", docs[0].Owner)
	}
	if docs[0].CreatedAt.IsZero() {
		t.Error("createdAt не разобран")
	}
	if docs[1].Owner.ID != "c2" || docs[1].Owner.Populated() {
		t.Errorf("владелец d2 = %+v", docs[1].Owner)
	}
	if docs[1].FileType.Valid() {
		t.Error("тип Invoice не должен быть в перечислении")
	}
}

// TestListMyFiles_Empty проверяет пустой, но успешный список.
func TestListMyFiles_Empty(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/my-files" {
			t.Errorf("путь = %s", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	})

	docs, err := client.ListMyFiles(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListMyFiles: %v", err)
	}
	if docs == nil || len(docs) != 0 {
		t.Errorf("ожидался пустой не-nil срез, получено %#v", docs)
	}
}

// TestListMyFiles_Errors проверяет классификацию ошибок списка.
func TestListMyFiles_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"no files"}`, ErrUnsuccessful},
		{"data не массив", http.StatusOK, `{"success":true,"data":{"_id":"x"}}`, ErrUnsuccessful},
		{"data отсутствует", http.StatusOK, `{"success":true}`, ErrUnsuccessful},
		{"битый JSON", http.StatusOK, `{"success":tr`, ErrNetwork},
		{"401", http.StatusUnauthorized, `{"message":"jwt expired"}`, ErrNetwork},
		{"502", http.StatusBadGateway, `gateway`, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListMyFiles(context.Background(), "tok")
			if !errors.Is(err, tt.want) {
				t.Errorf("ошибка = %v, ожидалась %v", err, tt.want)
			}
		})
	}
}

// TestListClients_Success проверяет разбор справочника клиентов.
func TestListClients_Success(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":[
			{"_id":"c1","name":"Acme","email":"acme@x.io","pan":"ABCDE1234F"},
			{"_id":"c2","name":"","email":"nobody@x.io"}
		]}`)
	})

	clients, err := client.ListClients(context.Background(), "tok")
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 1 || clients[0].PAN != "ABCDE1234F" {
		t.Errorf("clients = %+v", clients)
	}
}

// TestMutations проверяет методы и пути мутаций.
func TestMutations(t *testing.T) {
	type call struct{ method, path, body string }
	var got []call

	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, call{r.Method, r.URL.Path, string(body)})
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	ctx := context.Background()
	if err := client.CreateClient(ctx, "tok", ClientCreate{Name: "N", Email: "n@x.io", Password: "p"}); err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if err := client.UpdateClient(ctx, "tok", "c1", ClientUpdate{Name: "N2", Email: "n@x.io"}); err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	if err := client.DeleteClient(ctx, "tok", "c1"); err != nil {
		t.Fatalf("DeleteClient: %v", err)
	}
	if err := client.DeleteFile(ctx, "tok", "d1"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}

	want := []call{
		{http.MethodPost, "/api/admin/create-user", ""},
		{http.MethodPut, "/api/admin/client/c1", ""},
		{http.MethodDelete, "/api/admin/client/c1", ""},
		{http.MethodDelete, "/api/admin/file/d1", ""},
	}
	if len(got) != len(want) {
		t.Fatalf("получено %d запросов, ожидалось %d", len(got), len(want))
	}
	for i := range want {
		if got[i].method != want[i].method || got[i].path != want[i].path {
			t.Errorf("запрос %d = %s %s, ожидался %s %s", i, got[i].method, got[i].path, want[i].method, want[i].path)
		}
	}
	if !strings.Contains(got[0].body, `"password":"p"`) {
		t.Errorf("тело CreateClient = %s", got[0].body)
	}
}

// TestMutation_BackendMessage проверяет передачу сообщения backend.
func TestMutation_BackendMessage(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already exists"})
	})

	err := client.CreateClient(context.Background(), "tok", ClientCreate{Name: "N", Email: "n@x.io", Password: "p"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("ожидалась ErrNetwork, получено %v", err)
	}

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusConflict {
		t.Fatalf("ожидалась *StatusError 409, получено %v", err)
	}
	if UserMessage(err, "fallback") != "Email already exists" {
		t.Errorf("UserMessage = %q", UserMessage(err, "fallback"))
	}
}

// TestUploadFile проверяет multipart-форму загрузки.
func TestUploadFile(t *testing.T) {
	_, client := setupMockBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/files/upload" {
			t.Errorf("путь = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if v := r.FormValue("userId"); v != "c1" {
			t.Errorf("userId = %q", v)
		}
		if v := r.FormValue("financialYear"); v != "2024-25" {
			t.Errorf("financialYear = %q", v)
		}
		if v := r.FormValue("fileType"); v != "Balance Sheet P & L" {
			t.Errorf("fileType = %q", v)
		}

		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if string(data) != "pdf-bytes" {
			t.Errorf("содержимое = %q", data)
		}
		if hdr.Filename != `bs "final".pdf` {
			t.Errorf("filename = %q", hdr.Filename)
		}
		if ct := hdr.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("Content-Type части = %q", ct)
		}
		writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
	})

	req, err := upload.NewRequest(upload.Fields{
		ClientID: "c1",
		File: &upload.File{
			Name:        `bs "final".pdf`,
			ContentType: "application/pdf",
			Reader:      strings.NewReader("pdf-bytes"),
		},
		FinancialYear: "2024-25",
		FileType:      "BalanceSheetProfitLoss",
	})
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}

	if err := client.UploadFile(context.Background(), "tok", req); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
}

// TestCheckReady проверяет readiness backend.
func TestCheckReady(t *testing.T) {
	status := http.StatusOK
	server, client := setupMockBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})

	if s, _ := client.CheckReady(); s != "ok" {
		t.Errorf("статус = %s, ожидался ok", s)
	}

	status = http.StatusServiceUnavailable
	if s, _ := client.CheckReady(); s != "fail" {
		t.Errorf("статус = %s, ожидался fail", s)
	}

	server.Close()
	if s, _ := client.CheckReady(); s != "fail" {
		t.Errorf("статус = %s, ожидался fail", s)
	}
}

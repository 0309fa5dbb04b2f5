// client.go — HTTP-клиент к REST backend портала.
// Токен передаётся в каждый вызов из текущей сессии, клиент его не хранит.
// Операции: Login, ListClients, CreateClient, UpdateClient, DeleteClient,
// ListAllFiles, DeleteFile, UploadFile, ListMyFiles.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/zntax/portal-module/internal/domain/model"
	"github.com/bigkaa/zntax/portal-module/internal/upload"
)

// maxErrorBody — сколько байт тела ошибки читать для поиска message.
const maxErrorBody = 64 << 10

// Client — HTTP-клиент к backend.
type Client struct {
	baseURL    string // Базовый URL backend (без trailing slash)
	httpClient *http.Client
	logger     *slog.Logger
}

// New создаёт клиент backend.
// baseURL — базовый URL (например, https://zback-csw5.onrender.com).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// timeout — таймаут HTTP-запросов (из конфигурации ZP_BACKEND_TIMEOUT).
func New(baseURL, caCertPath string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("некорректный URL backend %q: %w", baseURL, err)
	}

	httpClient := &http.Client{Timeout: timeout}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата backend: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат backend добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "backend_client")),
	}, nil
}

// BaseURL возвращает базовый URL backend.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// --- HTTP helpers ---

// do выполняет запрос к backend. Пустой token — запрос без авторизации.
// Транспортные ошибки оборачиваются в ErrNetwork.
func (c *Client) do(
	ctx context.Context,
	op, method, path, token, contentType string,
	body io.Reader,
) (*http.Response, error) {
	if body == nil {
		body = http.NoBody
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: создание запроса: %w", op, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // G704: URL из конфигурации
	duration := time.Since(start)

	if err != nil {
		backendRequestDuration.WithLabelValues(op, "error").Observe(duration.Seconds())
		c.logger.Warn("Запрос к backend не выполнен",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
	}

	outcome := "ok"
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "error"
	}
	backendRequestDuration.WithLabelValues(op, outcome).Observe(duration.Seconds())

	c.logger.Debug("Запрос к backend",
		slog.String("operation", op),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", duration),
	)

	return resp, nil
}

// doJSON сериализует body в JSON и выполняет запрос.
func (c *Client) doJSON(ctx context.Context, op, method, path, token string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: сериализация тела запроса: %w", op, err)
	}
	return c.do(ctx, op, method, path, token, "application/json", bytes.NewReader(data))
}

// statusError читает тело неуспешного ответа и собирает *StatusError.
// kind == nil означает ErrNetwork.
func statusError(resp *http.Response, kind error) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(payload.Message),
		kind:       kind,
	}
}

// decodeList разбирает ответ-список {success, data: [...]} в target.
func decodeList(op string, resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %w", op, statusError(resp, nil))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s: декодирование ответа: %w: %w", op, ErrNetwork, err)
	}

	if !env.Success {
		if env.Message != "" {
			return fmt.Errorf("%s: %w: %s", op, ErrUnsuccessful, env.Message)
		}
		return fmt.Errorf("%s: %w", op, ErrUnsuccessful)
	}

	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || data[0] != '[' {
		return fmt.Errorf("%s: %w: поле data не является массивом", op, ErrUnsuccessful)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%s: декодирование data: %w: %w", op, ErrNetwork, err)
	}

	return nil
}

// checkResponse проверяет статус ответа мутации (тело игнорируется).
func checkResponse(op string, resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %w", op, statusError(resp, nil))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// getList выполняет GET и разбирает ответ-список.
func getList[T any](ctx context.Context, c *Client, op, path, token string) ([]T, error) {
	resp, err := c.do(ctx, op, http.MethodGet, path, token, "", nil)
	if err != nil {
		return nil, err
	}

	var items []T
	if err := decodeList(op, resp, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// --- Auth API ---

// Login обменивает email и пароль на JWT.
// 400/401/403 — ErrAuth (с сообщением backend), прочие ошибки — ErrNetwork.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	const op = "Login"

	resp, err := c.doJSON(ctx, op, http.MethodPost, "/api/auth/login", "",
		loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%s: %w", op, statusError(resp, ErrAuth))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("%s: %w", op, statusError(resp, nil))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("%s: декодирование ответа: %w: %w", op, ErrNetwork, err)
	}
	if lr.Token == "" {
		return "", fmt.Errorf("%s: %w: пустой token в ответе", op, ErrNetwork)
	}

	return lr.Token, nil
}

// --- Admin: Clients API ---

// ListClients возвращает справочник клиентов (только администратор).
func (c *Client) ListClients(ctx context.Context, token string) ([]model.ClientRecord, error) {
	const op = "ListClients"

	clients, err := getList[model.ClientRecord](ctx, c, op, "/api/admin/clients", token)
	if err != nil {
		return nil, err
	}

	valid := clients[:0]
	for _, cl := range clients {
		if err := cl.Validate(); err != nil {
			c.logger.Warn("Пропущен некорректный клиент",
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			continue
		}
		valid = append(valid, cl)
	}
	return valid, nil
}

// CreateClient создаёт клиента.
func (c *Client) CreateClient(ctx context.Context, token string, in ClientCreate) error {
	const op = "CreateClient"

	resp, err := c.doJSON(ctx, op, http.MethodPost, "/api/admin/create-user", token, in)
	if err != nil {
		return err
	}
	return checkResponse(op, resp)
}

// UpdateClient изменяет данные клиента.
func (c *Client) UpdateClient(ctx context.Context, token, id string, in ClientUpdate) error {
	const op = "UpdateClient"

	resp, err := c.doJSON(ctx, op, http.MethodPut, "/api/admin/client/"+url.PathEscape(id), token, in)
	if err != nil {
		return err
	}
	return checkResponse(op, resp)
}

// DeleteClient удаляет клиента. Документы клиента backend не трогает.
func (c *Client) DeleteClient(ctx context.Context, token, id string) error {
	const op = "DeleteClient"

	resp, err := c.do(ctx, op, http.MethodDelete, "/api/admin/client/"+url.PathEscape(id), token, "", nil)
	if err != nil {
		return err
	}
	return checkResponse(op, resp)
}

// --- Files API ---

// ListAllFiles возвращает документы всех клиентов (только администратор).
func (c *Client) ListAllFiles(ctx context.Context, token string) ([]model.DocumentRecord, error) {
	const op = "ListAllFiles"

	docs, err := getList[model.DocumentRecord](ctx, c, op, "/api/admin/all-files", token)
	if err != nil {
		return nil, err
	}
	return c.validDocuments(op, docs), nil
}

// ListMyFiles возвращает документы текущего клиента.
func (c *Client) ListMyFiles(ctx context.Context, token string) ([]model.DocumentRecord, error) {
	const op = "ListMyFiles"

	docs, err := getList[model.DocumentRecord](ctx, c, op, "/api/files/my-files", token)
	if err != nil {
		return nil, err
	}
	return c.validDocuments(op, docs), nil
}

// DeleteFile удаляет документ.
func (c *Client) DeleteFile(ctx context.Context, token, id string) error {
	const op = "DeleteFile"

	resp, err := c.do(ctx, op, http.MethodDelete, "/api/admin/file/"+url.PathEscape(id), token, "", nil)
	if err != nil {
		return err
	}
	return checkResponse(op, resp)
}

// UploadFile отправляет документ multipart-формой.
// Файл читается потоково, без буферизации в памяти.
func (c *Client) UploadFile(ctx context.Context, token string, req *upload.Request) error {
	const op = "UploadFile"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, req))
	}()

	resp, err := c.do(ctx, op, http.MethodPost, "/api/files/upload", token, mw.FormDataContentType(), pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	return checkResponse(op, resp)
}

// quoteEscaper экранирует кавычки в имени файла для Content-Disposition.
var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// writeUploadForm пишет поля формы загрузки в порядке, ожидаемом backend.
func writeUploadForm(mw *multipart.Writer, req *upload.Request) error {
	if err := mw.WriteField("userId", req.ClientID()); err != nil {
		return fmt.Errorf("поле userId: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(req.File().Name)))
	h.Set("Content-Type", req.ContentType())

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("поле file: %w", err)
	}
	if _, err := io.Copy(part, req.File().Reader); err != nil {
		return fmt.Errorf("чтение файла: %w", err)
	}

	if err := mw.WriteField("financialYear", req.FinancialYear()); err != nil {
		return fmt.Errorf("поле financialYear: %w", err)
	}
	if err := mw.WriteField("fileType", string(req.FileType())); err != nil {
		return fmt.Errorf("поле fileType: %w", err)
	}

	return mw.Close()
}

// validDocuments отбрасывает записи без ID или имени файла.
// Записи с неизвестным типом сохраняются как есть.
func (c *Client) validDocuments(op string, docs []model.DocumentRecord) []model.DocumentRecord {
	valid := docs[:0]
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			c.logger.Warn("Пропущен некорректный документ",
				slog.String("operation", op),
				slog.String("error", err.Error()),
			)
			continue
		}
		valid = append(valid, d)
	}
	return valid
}

// --- Readiness checker ---

// CheckReady проверяет доступность backend.
// Реализует handlers.ReadinessChecker.
func (c *Client) CheckReady() (string, string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.do(ctx, "CheckReady", http.MethodGet, "/", "", "", nil)
	if err != nil {
		return "fail", fmt.Sprintf("backend недоступен: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return "fail", fmt.Sprintf("backend вернул статус %d", resp.StatusCode)
	}

	return "ok", "backend доступен"
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("CA-сертификат %s не содержит PEM-блоков", caCertPath)
	}

	return &tls.Config{
		RootCAs:    caCertPool,
		MinVersion: tls.VersionTLS12,
	}, nil
}

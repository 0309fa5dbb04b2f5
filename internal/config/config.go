// Пакет config — загрузка и валидация конфигурации портала документов
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации портала.
type Config struct {
	// --- Сервер ---

	// Адрес прослушивания (по умолчанию только локальный интерфейс)
	Host string
	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Таймаут graceful shutdown
	ShutdownTimeout time.Duration

	// --- Backend ---

	// Базовый URL REST backend
	BackendURL string
	// Таймаут запросов к backend
	BackendTimeout time.Duration
	// Путь к CA-сертификату backend (пусто — системный пул)
	BackendCACertPath string

	// --- Сессия ---

	// Email администратора (роль admin без claim в токене)
	AdminEmail string
	// Путь к файлу SQLite с локальным состоянием
	StateDBPath string
	// Ключ шифрования токена на диске (пусто — случайный на каждый запуск)
	StateKey string

	// --- Дашборды ---

	// Время жизни дашборда без обращений
	ViewTTL time.Duration
	// Максимальное количество смонтированных дашбордов
	ViewMax int
	// Максимальный размер загружаемого файла в байтах
	UploadMaxSize int64
	// Допустимые схемы URL документов
	OpenSchemes []string

	// --- Мониторинг зависимостей ---

	DephealthEnabled       bool
	DephealthGroup         string
	DephealthCheckInterval time.Duration
}

// Addr — адрес HTTP-сервера в формате host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// ZP_HOST — адрес прослушивания (по умолчанию 127.0.0.1)
	cfg.Host = getEnvDefault("ZP_HOST", "127.0.0.1")

	// ZP_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("ZP_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("ZP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("ZP_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// ZP_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("ZP_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("ZP_LOG_LEVEL: %w", err)
	}

	// ZP_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("ZP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("ZP_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("ZP_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ZP_HTTP_READ_TIMEOUT: %w", err)
	}

	cfg.HTTPWriteTimeout, err = getEnvDuration("ZP_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ZP_HTTP_WRITE_TIMEOUT: %w", err)
	}

	cfg.HTTPIdleTimeout, err = getEnvDuration("ZP_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ZP_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// ZP_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("ZP_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ZP_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Backend ---

	// ZP_BACKEND_URL — базовый URL backend
	cfg.BackendURL = strings.TrimRight(getEnvDefault("ZP_BACKEND_URL", "https://zback-csw5.onrender.com"), "/")
	if err := validateURL(cfg.BackendURL); err != nil {
		return nil, fmt.Errorf("ZP_BACKEND_URL: %w", err)
	}

	// ZP_BACKEND_TIMEOUT — таймаут запросов к backend (по умолчанию 30s)
	cfg.BackendTimeout, err = getEnvPositiveDuration("ZP_BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ZP_BACKEND_TIMEOUT: %w", err)
	}

	// ZP_BACKEND_CA_CERT_PATH — CA-сертификат backend (опционально)
	cfg.BackendCACertPath = os.Getenv("ZP_BACKEND_CA_CERT_PATH")

	// --- Сессия ---

	// ZP_ADMIN_EMAIL — email администратора
	cfg.AdminEmail = strings.TrimSpace(getEnvDefault("ZP_ADMIN_EMAIL", "admin@zntax.com"))

	// ZP_STATE_DB_PATH — файл локального состояния
	cfg.StateDBPath = getEnvDefault("ZP_STATE_DB_PATH", "./data/portal.db")

	// ZP_STATE_KEY — ключ шифрования токена (опционально)
	cfg.StateKey = os.Getenv("ZP_STATE_KEY")

	// --- Дашборды ---

	// ZP_VIEW_TTL — время жизни дашборда без обращений (по умолчанию 30m)
	cfg.ViewTTL, err = getEnvPositiveDuration("ZP_VIEW_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("ZP_VIEW_TTL: %w", err)
	}

	// ZP_VIEW_MAX — максимум дашбордов (по умолчанию 64)
	cfg.ViewMax, err = getEnvInt("ZP_VIEW_MAX", 64)
	if err != nil {
		return nil, fmt.Errorf("ZP_VIEW_MAX: %w", err)
	}
	if cfg.ViewMax < 1 {
		return nil, fmt.Errorf("ZP_VIEW_MAX: значение должно быть >= 1, получено %d", cfg.ViewMax)
	}

	// ZP_UPLOAD_MAX_SIZE — максимальный размер загрузки (по умолчанию 32 МиБ)
	cfg.UploadMaxSize, err = getEnvInt64("ZP_UPLOAD_MAX_SIZE", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("ZP_UPLOAD_MAX_SIZE: %w", err)
	}
	if cfg.UploadMaxSize <= 0 {
		return nil, fmt.Errorf("ZP_UPLOAD_MAX_SIZE: значение должно быть > 0")
	}

	// ZP_OPEN_SCHEMES — допустимые схемы URL документов (по умолчанию http,https)
	cfg.OpenSchemes = getEnvList("ZP_OPEN_SCHEMES", []string{"http", "https"})
	if len(cfg.OpenSchemes) == 0 {
		return nil, fmt.Errorf("ZP_OPEN_SCHEMES: список схем пуст")
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthEnabled, err = getEnvBool("ZP_DEPHEALTH_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("ZP_DEPHEALTH_ENABLED: %w", err)
	}

	cfg.DephealthGroup = getEnvDefault("ZP_DEPHEALTH_GROUP", "zntax")

	cfg.DephealthCheckInterval, err = getEnvPositiveDuration("ZP_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("ZP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 — как getEnvInt, для размеров в байтах.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvPositiveDuration — getEnvDuration с проверкой > 0.
func getEnvPositiveDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// getEnvList разбирает список через запятую (пустые элементы отбрасываются,
// значения приводятся к нижнему регистру).
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// validateURL проверяет абсолютный http(s) URL.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("некорректный URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q должен начинаться с http:// или https://", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q не содержит хоста", raw)
	}
	return nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

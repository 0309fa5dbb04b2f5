// Точка входа Portal Module — локальный сервис портала документов ZN Tax.
// Загружает конфигурацию, открывает локальное хранилище SQLite, применяет
// миграции, восстанавливает сессию, создаёт клиента REST backend, реестр
// дашбордов и API handlers, запускает topologymetrics и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/bigkaa/zntax/portal-module/internal/api/handlers"
	"github.com/bigkaa/zntax/portal-module/internal/apiclient"
	"github.com/bigkaa/zntax/portal-module/internal/config"
	"github.com/bigkaa/zntax/portal-module/internal/database"
	"github.com/bigkaa/zntax/portal-module/internal/opener"
	"github.com/bigkaa/zntax/portal-module/internal/repository"
	"github.com/bigkaa/zntax/portal-module/internal/server"
	"github.com/bigkaa/zntax/portal-module/internal/service"
	"github.com/bigkaa/zntax/portal-module/internal/session"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Portal Module запускается",
		slog.String("version", config.Version),
		slog.String("addr", cfg.Addr()),
		slog.String("backend_url", cfg.BackendURL),
	)

	// 3. Локальное хранилище SQLite и миграции
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.StateDBPath, logger)
	if err != nil {
		logger.Error("Ошибка открытия локального хранилища",
			slog.String("path", cfg.StateDBPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer db.Close()

	logger.Info("Применение миграций БД...")
	if err := database.Migrate(db, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	kvRepo := repository.NewKVRepository(db)

	// 4. Шифрование токена на устройстве (AES-256-GCM)
	if cfg.StateKey == "" {
		logger.Warn("ZP_STATE_KEY не задан, сессия не сохраняется между рестартами")
	}
	cipher, err := session.NewCipher(cfg.StateKey)
	if err != nil {
		logger.Error("Ошибка создания шифратора сессии", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Клиент REST backend
	client, err := apiclient.New(cfg.BackendURL, cfg.BackendCACertPath, cfg.BackendTimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания клиента backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.BackendCACertPath != "" {
		logger.Info("CA-сертификат загружен", slog.String("path", cfg.BackendCACertPath))
	}

	// 6. Сессия: восстановление сохранённого входа
	sessions := session.NewManager(client, kvRepo, cipher, cfg.AdminEmail, logger)
	if s, loadErr := sessions.Load(ctx); loadErr != nil {
		logger.Warn("Не удалось восстановить сессию", slog.String("error", loadErr.Error()))
	} else if s == nil {
		logger.Info("Сохранённой сессии нет, требуется вход")
	}

	// 7. Реестр дашбордов, подписанный на смену сессии
	registry := service.NewViewRegistry(client, sessions, cfg.ViewMax, cfg.ViewTTL, logger)
	unsubscribe := sessions.Subscribe(registry.OnSessionChange)

	// 8. Открытие файлов и выгрузка XLSX
	fileOpener := opener.New(cfg.OpenSchemes)
	exportSvc := service.NewExportService(logger)

	// 9. topologymetrics — мониторинг backend
	var dephealthSvc *service.DephealthService
	if cfg.DephealthEnabled {
		var dephealthErr error
		dephealthSvc, dephealthErr = service.NewDephealthService(
			"portal-module",
			cfg.DephealthGroup,
			cfg.BackendURL,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dephealthErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dephealthErr.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
			dephealthSvc = nil
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	} else {
		logger.Info("topologymetrics отключён (ZP_DEPHEALTH_ENABLED=false)")
	}

	// 10. Readiness checkers (SQLite + backend) и API handler
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(db), client)
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		sessions,
		registry,
		exportSvc,
		fileOpener,
		cfg.UploadMaxSize,
		logger,
	)

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Graceful shutdown
	logger.Info("Останавливаем фоновые задачи...")

	unsubscribe()
	registry.Close()
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Portal Module остановлен")
}

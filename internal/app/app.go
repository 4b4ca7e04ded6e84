package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clientvault/internal/config"
	"clientvault/internal/handler"
	"clientvault/internal/middleware"
	"clientvault/internal/router"
	"clientvault/internal/service"
	"clientvault/internal/taxyear"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	years, err := taxyear.NewStore(cfg.TaxYearsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tax year store: %w", err)
	}
	if err := years.Watch(); err != nil {
		slog.Warn("tax year file watch unavailable", "error", err)
	}

	structureService := service.NewStructureService()
	registryService, err := service.NewRegistryService(cfg.ClientsRoot, structureService, years)
	if err != nil {
		_ = years.Close()
		return nil, fmt.Errorf("failed to initialize client registry: %w", err)
	}

	auditService, err := service.NewAuditService(cfg.AuditLogFile)
	if err != nil {
		_ = years.Close()
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	authService, err := service.NewAuthService(cfg.UsersFile, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		_ = years.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	itemService := service.NewItemService(cfg.MaxUploadSize)
	trashService := service.NewTrashService()

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, auditService),
		Client: handler.NewClientHandler(registryService, auditService),
		Files:  handler.NewFilesHandler(registryService, itemService, authService, auditService, cfg.MaxUploadSize),
		Trash:  handler.NewTrashHandler(registryService, trashService, authService, auditService),
		Audit:  handler.NewAuditHandler(auditService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			func() {
				if closeErr := years.Close(); closeErr != nil {
					slog.Warn("tax year store close failed", "error", closeErr)
				}
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

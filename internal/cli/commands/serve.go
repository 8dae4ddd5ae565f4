package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lawgic/internal/handler"
	"lawgic/internal/model"
	"lawgic/internal/pdf"
	"lawgic/internal/service"
	"lawgic/internal/storage"
	"lawgic/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "run the web server",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		return err
	}

	chatService := service.NewChatService(cfg, store, gateway, pdf.NewExtractor())
	chatService.OnChange(func(event string, s *model.Session) {
		logger.WithSession(s.ID).WithField("event", event).Debugf("session changed, %d messages", len(s.Messages))
	})
	go chatService.Run(ctx)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := handler.SetupRouter(cfg, chatService)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Lawgic listening on port %d (provider %s, storage %s)", cfg.Server.Port, cfg.Model.Provider, cfg.Storage.Type)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

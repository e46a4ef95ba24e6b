package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laser-offers/internal/config"
	"laser-offers/internal/service"
	"laser-offers/internal/service/catalog"
	generate_excel "laser-offers/internal/service/generate-excel"
	"laser-offers/internal/storage/mysql"
)

func main() {
	cfg := config.MustConfig()

	log, closeLog := setupLogger(cfg.Env, cfg.ErrorLogPath)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := mysql.New(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to open db", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer storage.Close()

	operations := catalog.New(log, storage, cfg.FetchTimeout)
	offerService := service.NewOfferService(storage, operations)
	excelService := generate_excel.NewGenerateService(offerService)

	handler, err := routes(*cfg, log, storage, operations, offerService, excelService)
	if err != nil {
		log.Error("failed to build routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.Address), slog.String("env", cfg.Env))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop server", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped")
}

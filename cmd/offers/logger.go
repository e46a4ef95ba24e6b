package main

import (
	"context"
	"io"
	"log/slog"
	"os"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// dualHandler writes every record to the core handler and errors to a file
// as well.
type dualHandler struct {
	coreHandler  slog.Handler
	errorHandler slog.Handler
}

func (h *dualHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.coreHandler.Enabled(ctx, lvl) || h.errorHandler.Enabled(ctx, lvl)
}

func (h *dualHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error

	if h.coreHandler.Enabled(ctx, r.Level) {
		err = h.coreHandler.Handle(ctx, r)
		if err != nil {
			return err
		}
	}

	if r.Level >= slog.LevelError && h.errorHandler.Enabled(ctx, r.Level) {
		// a broken error file must not stop the main output
		_ = h.errorHandler.Handle(ctx, r.Clone())
	}

	return err
}

func (h *dualHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithAttrs(attrs),
		errorHandler: h.errorHandler.WithAttrs(attrs),
	}
}

func (h *dualHandler) WithGroup(name string) slog.Handler {
	return &dualHandler{
		coreHandler:  h.coreHandler.WithGroup(name),
		errorHandler: h.errorHandler.WithGroup(name),
	}
}

func newCoreHandler(env string, w io.Writer) slog.Handler {
	level := slog.LevelDebug
	if env == envProd {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	switch env {
	case envDev:
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// setupLogger returns the application logger and a func closing the error
// log file. Without a usable errorLogPath only stdout is written.
func setupLogger(env, errorLogPath string) (*slog.Logger, func()) {
	coreHandler := newCoreHandler(env, os.Stdout)

	if errorLogPath == "" {
		return slog.New(coreHandler), func() {}
	}

	errorFile, err := os.OpenFile(errorLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log := slog.New(coreHandler)
		log.Warn("cannot open error log file", slog.String("path", errorLogPath), slog.String("error", err.Error()))
		return log, func() {}
	}

	errorHandler := slog.NewTextHandler(errorFile, &slog.HandlerOptions{
		Level: slog.LevelError,
	})

	handler := &dualHandler{
		coreHandler:  coreHandler,
		errorHandler: errorHandler,
	}

	return slog.New(handler), func() { _ = errorFile.Close() }
}

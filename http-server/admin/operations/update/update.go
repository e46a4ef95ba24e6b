package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"laser-offers/http-server/admin/operations/save"
	"laser-offers/internal/storage"
)

type OperationUpdater interface {
	UpdateOperation(ctx context.Context, id string, o storage.Operation) error
}

type CatalogResetter interface {
	Reset()
}

// UpdateOperationAdmin rewrites an operation definition. The operation may
// have moved to another category, so the whole catalog cache is dropped.
func UpdateOperationAdmin(log *slog.Logger, updater OperationUpdater, catalog CatalogResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.UpdateOperationAdmin"

		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "Invalid operation id", http.StatusBadRequest)
			return
		}

		var req storage.Operation
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		if msg := save.Validate(req); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := updater.UpdateOperation(ctx, id, req)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				http.Error(w, "Operation not found", http.StatusNotFound)
			case errors.Is(err, storage.ErrDuplicate):
				http.Error(w, "Operation code already exists", http.StatusConflict)
			case errors.Is(err, storage.ErrReference):
				http.Error(w, "Unknown category", http.StatusUnprocessableEntity)
			default:
				log.Error("failed to update operation", slog.String("op", op), slog.String("error", err.Error()))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		catalog.Reset()

		w.WriteHeader(http.StatusOK)
	}
}

package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"laser-offers/internal/storage"
)

type CategoryProvider interface {
	GetCategories(ctx context.Context) ([]storage.OperationCategory, error)
}

type OperationCatalog interface {
	Load(ctx context.Context, categoryID string) ([]storage.Operation, error)
}

func GetCategories(log *slog.Logger, provider CategoryProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.operations.GetCategories"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		categories, err := provider.GetCategories(ctx)
		if err != nil {
			log.Error("failed to fetch categories", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if categories == nil {
			categories = []storage.OperationCategory{}
		}

		render.JSON(w, r, categories)
	}
}

// GetOperations lists the active operations of the category given in the
// category_id query parameter.
func GetOperations(log *slog.Logger, catalog OperationCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.operations.GetOperations"

		categoryID := r.URL.Query().Get("category_id")
		if categoryID == "" {
			http.Error(w, "Missing required query parameter 'category_id'", http.StatusBadRequest)
			return
		}
		if _, err := uuid.Parse(categoryID); err != nil {
			http.Error(w, "Invalid 'category_id'", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		operations, err := catalog.Load(ctx, categoryID)
		if err != nil {
			log.With(
				slog.String("op", op),
				slog.String("category_id", categoryID),
				slog.String("error", err.Error()),
			).Error("failed to fetch operations")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, operations)
	}
}

package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"

	"laser-offers/internal/storage"
)

type OperationCreator interface {
	CreateOperation(ctx context.Context, o storage.Operation) (string, error)
}

type CatalogInvalidator interface {
	Invalidate(categoryID string)
}

type Response struct {
	ID string `json:"id"`
}

// SaveOperationAdmin adds an operation definition to the catalog.
func SaveOperationAdmin(log *slog.Logger, creator OperationCreator, catalog CatalogInvalidator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SaveOperationAdmin"

		var req storage.Operation
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		if msg := Validate(req); msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, err := creator.CreateOperation(ctx, req)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrDuplicate):
				http.Error(w, "Operation code already exists", http.StatusConflict)
			case errors.Is(err, storage.ErrReference):
				http.Error(w, "Unknown category", http.StatusUnprocessableEntity)
			default:
				log.Error("failed to create operation", slog.String("op", op), slog.String("error", err.Error()))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		catalog.Invalidate(req.CategoryID)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{ID: id})
	}
}

// Validate returns a client message for the first invalid field, or "".
func Validate(o storage.Operation) string {
	switch {
	case o.Name == "":
		return "Missing 'name'"
	case o.Code == "":
		return "Missing 'code'"
	case o.SecondsPerUnit < 0:
		return "'seconds_per_unit' must not be negative"
	}

	if _, err := uuid.Parse(o.CategoryID); err != nil {
		return "Invalid 'category_id'"
	}

	return ""
}

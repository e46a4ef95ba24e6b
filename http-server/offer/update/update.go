package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"laser-offers/internal/service"
	"laser-offers/internal/storage"
)

type OfferUpdater interface {
	Update(ctx context.Context, id string, draft service.Draft) (service.Calculation, error)
}

// UpdateOffer replaces the inputs and lines of the offer in the {id} route
// parameter.
func UpdateOffer(log *slog.Logger, offers OfferUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offer.UpdateOffer"

		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "Invalid offer id", http.StatusBadRequest)
			return
		}

		var draft service.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		calc, err := offers.Update(ctx, id, draft)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrNotFound):
				http.Error(w, "Offer not found", http.StatusNotFound)
			case errors.Is(err, storage.ErrDuplicate):
				http.Error(w, "Offer number already exists", http.StatusConflict)
			case errors.Is(err, storage.ErrReference):
				http.Error(w, "Unknown operation", http.StatusUnprocessableEntity)
			default:
				log.With(
					slog.String("op", op),
					slog.String("id", id),
					slog.String("error", err.Error()),
				).Error("failed to update offer")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, r, calc)
	}
}

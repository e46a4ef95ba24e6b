package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"laser-offers/internal/service"
	"laser-offers/internal/storage"
)

type OfferCreator interface {
	Create(ctx context.Context, draft service.Draft) (string, service.Calculation, error)
}

type Response struct {
	ID          string              `json:"id"`
	Calculation service.Calculation `json:"calculation"`
}

func SaveOffer(log *slog.Logger, offers OfferCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offer.SaveOffer"

		var draft service.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		if draft.OfferNumber == "" {
			http.Error(w, "Missing 'offer_number'", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id, calc, err := offers.Create(ctx, draft)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrDuplicate):
				http.Error(w, "Offer number already exists", http.StatusConflict)
			case errors.Is(err, storage.ErrReference):
				http.Error(w, "Unknown operation", http.StatusUnprocessableEntity)
			default:
				log.Error("failed to save offer", slog.String("op", op), slog.String("error", err.Error()))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		log.Info("offer saved", slog.String("id", id), slog.String("offer_number", draft.OfferNumber))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{ID: id, Calculation: calc})
	}
}

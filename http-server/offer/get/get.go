package get

import (
	"context"
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

type OfferReader interface {
	Get(ctx context.Context, id string) (*service.OfferDetails, error)
	List(ctx context.Context, search string) ([]storage.OfferListItem, error)
}

func GetOffer(log *slog.Logger, offers OfferReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offer.GetOffer"

		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "Invalid offer id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		details, err := offers.Get(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.With(slog.String("op", op), slog.String("id", id)).Warn("offer not found")
				http.Error(w, "Offer not found", http.StatusNotFound)
				return
			}

			log.With(
				slog.String("op", op),
				slog.String("id", id),
				slog.String("error", err.Error()),
			).Error("failed to fetch offer")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, details)
	}
}

// ListOffers filters by the optional search query parameter.
func ListOffers(log *slog.Logger, offers OfferReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.offer.ListOffers"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := offers.List(ctx, r.URL.Query().Get("search"))
		if err != nil {
			log.Error("failed to list offers", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		if items == nil {
			items = []storage.OfferListItem{}
		}

		render.JSON(w, r, items)
	}
}

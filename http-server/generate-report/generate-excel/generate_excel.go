package generate_excel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"laser-offers/internal/storage"
)

type OfferExcelGenerator interface {
	GenerateOfferExcel(ctx context.Context, id string) ([]byte, error)
}

func GenerateOfferExcel(log *slog.Logger, gen OfferExcelGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateOfferExcel"

		id := chi.URLParam(r, "id")
		if _, err := uuid.Parse(id); err != nil {
			http.Error(w, "Invalid offer id", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateOfferExcel(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Offer not found", http.StatusNotFound)
				return
			}
			log.Error("failed to generate excel", "op", op, "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("Offerta_%s_%s.xlsx", id[:8], time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Error("failed to write excel", "op", op, "err", err)
		}
	}
}

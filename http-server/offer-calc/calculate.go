package offer_calc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"laser-offers/internal/lib/numfmt"
	"laser-offers/internal/service"
	"laser-offers/internal/service/offercalc"
)

type OfferCalculator interface {
	Calculate(ctx context.Context, draft service.Draft) (service.Calculation, error)
}

type Resp struct {
	Inputs    offercalc.Inputs  `json:"inputs"`
	Derived   offercalc.Derived `json:"derived"`
	Formatted map[string]string `json:"formatted"`
}

func CalculateOffer(log *slog.Logger, calc OfferCalculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.offer_calc.CalculateOffer"

		var draft service.Draft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			log.Error("invalid JSON", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := calc.Calculate(ctx, draft)
		if err != nil {
			log.Error("failed to calculate offer", slog.String("op", op), slog.String("error", err.Error()))
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, Resp{
			Inputs:    res.Inputs,
			Derived:   res.Derived,
			Formatted: Format(res.Derived),
		})
	}
}

// Format renders every derived figure for display, keyed like the JSON fields.
func Format(d offercalc.Derived) map[string]string {
	dec := func(v float64) string {
		return numfmt.FormatDecimal(v, numfmt.DefaultDecimals)
	}

	return map[string]string{
		"declared_weight_per_piece":              dec(d.DeclaredWeightPerPiece),
		"theoretical_time_per_batch":             dec(d.TheoreticalTimePerBatch),
		"contingency_allowance":                  dec(d.ContingencyAllowance),
		"total_theoretical_time_per_batch":       dec(d.TotalTheoreticalTimePerBatch),
		"theoretical_time_per_piece":             dec(d.TheoreticalTimePerPiece),
		"production_time_per_batch":              dec(d.ProductionTimePerBatch),
		"production_time_per_piece":              dec(d.ProductionTimePerPiece),
		"expected_throughput_per_batch_per_hour": dec(d.ExpectedThroughputPerBatchPerHour),
		"expected_throughput_per_piece_per_hour": dec(d.ExpectedThroughputPerPiecePerHour),
		"labor_rate_per_batch":                   dec(d.LaborRatePerBatch),
		"labor_rate_per_piece":                   dec(d.LaborRatePerPiece),
		"rate_adjustment_percent":                dec(d.RateAdjustmentPercent),
		"final_rate_per_batch":                   dec(d.FinalRatePerBatch),
		"final_rate_per_piece":                   dec(d.FinalRatePerPiece),
		"total_rate_per_batch":                   dec(d.TotalRatePerBatch),
		"total_rate_per_piece":                   dec(d.TotalRatePerPiece),
	}
}

// Package offercalc derives the time and cost figures of an offer from the
// values entered by the operator.
package offercalc

import (
	"math"

	"laser-offers/internal/constants"
)

// OperationLine is one manual-labour operation assigned to the offer.
type OperationLine struct {
	CategoryID       string  `json:"category_id"`
	OperationID      string  `json:"operation_id"`
	SecondsPerUnit   float64 `json:"seconds_per_unit"`
	UnitCount        int     `json:"unit_count"`
	LineTotalSeconds float64 `json:"line_total_seconds"`
}

// Settle recomputes LineTotalSeconds from its factors.
func (l *OperationLine) Settle() {
	l.SecondsPerUnit = finite(l.SecondsPerUnit)
	if l.UnitCount < 0 {
		l.UnitCount = 0
	}
	l.LineTotalSeconds = l.SecondsPerUnit * float64(l.UnitCount)
}

// contributes reports whether the line takes part in aggregate sums.
func (l OperationLine) contributes() bool {
	return l.OperationID != "" && l.UnitCount > 0
}

// Inputs holds every value the operator can type into the offer form.
// Unset fields are zero.
type Inputs struct {
	PieceCount             float64         `json:"piece_count"`
	DeclaredWeightPerBatch float64         `json:"declared_weight_per_batch"`
	ExpectedRevenue        float64         `json:"expected_revenue"`
	RateRoundingBase       float64         `json:"rate_rounding_base"`
	RateAdjustment         float64         `json:"rate_adjustment"`
	MaterialsCost          float64         `json:"materials_cost"`
	LogisticsCost          float64         `json:"logistics_cost"`
	OtherCost              float64         `json:"other_cost"`
	OperationLines         []OperationLine `json:"operation_lines"`
}

// Derived holds the read-only figures computed from Inputs.
type Derived struct {
	DeclaredWeightPerPiece            float64 `json:"declared_weight_per_piece"`
	TheoreticalTimePerBatch           float64 `json:"theoretical_time_per_batch"`
	ContingencyAllowance              float64 `json:"contingency_allowance"`
	TotalTheoreticalTimePerBatch      float64 `json:"total_theoretical_time_per_batch"`
	TheoreticalTimePerPiece           float64 `json:"theoretical_time_per_piece"`
	ProductionTimePerBatch            float64 `json:"production_time_per_batch"`
	ProductionTimePerPiece            float64 `json:"production_time_per_piece"`
	ExpectedThroughputPerBatchPerHour float64 `json:"expected_throughput_per_batch_per_hour"`
	ExpectedThroughputPerPiecePerHour float64 `json:"expected_throughput_per_piece_per_hour"`
	LaborRatePerBatch                 float64 `json:"labor_rate_per_batch"`
	LaborRatePerPiece                 float64 `json:"labor_rate_per_piece"`
	RateAdjustmentPercent             float64 `json:"rate_adjustment_percent"`
	FinalRatePerBatch                 float64 `json:"final_rate_per_batch"`
	FinalRatePerPiece                 float64 `json:"final_rate_per_piece"`
	TotalRatePerBatch                 float64 `json:"total_rate_per_batch"`
	TotalRatePerPiece                 float64 `json:"total_rate_per_piece"`
}

// Recompute evaluates the whole formula chain. Every step only uses values
// computed before it; a zero or negative divisor yields 0.
func Recompute(in Inputs) Derived {
	var d Derived

	pieces := finite(in.PieceCount)

	d.DeclaredWeightPerPiece = perPiece(finite(in.DeclaredWeightPerBatch), pieces)
	d.TheoreticalTimePerBatch = TheoreticalTime(in.OperationLines)
	d.ContingencyAllowance = d.TheoreticalTimePerBatch * constants.ContingencyRate
	d.TotalTheoreticalTimePerBatch = d.TheoreticalTimePerBatch + d.ContingencyAllowance
	d.TheoreticalTimePerPiece = perPiece(d.TotalTheoreticalTimePerBatch, pieces)
	d.ProductionTimePerBatch = d.TotalTheoreticalTimePerBatch * constants.ProductionUpliftNum / constants.ProductionUpliftDen
	d.ProductionTimePerPiece = perPiece(d.ProductionTimePerBatch, pieces)
	d.ExpectedThroughputPerBatchPerHour = divide(constants.SecondsPerHour, d.ProductionTimePerBatch)
	d.ExpectedThroughputPerPiecePerHour = d.ExpectedThroughputPerBatchPerHour * pieces
	d.LaborRatePerBatch = divide(finite(in.ExpectedRevenue), d.ExpectedThroughputPerBatchPerHour)
	d.LaborRatePerPiece = perPiece(d.LaborRatePerBatch, pieces)

	base := finite(in.RateRoundingBase)
	adjustment := finite(in.RateAdjustment)
	d.RateAdjustmentPercent = divide(adjustment, base) * 100
	d.FinalRatePerBatch = adjustment + base
	d.FinalRatePerPiece = perPiece(d.FinalRatePerBatch, pieces)
	d.TotalRatePerBatch = d.FinalRatePerBatch + finite(in.MaterialsCost) + finite(in.LogisticsCost) + finite(in.OtherCost)
	d.TotalRatePerPiece = perPiece(d.TotalRatePerBatch, pieces)

	return d
}

// TheoreticalTime sums seconds per unit times unit count over the lines that
// have an operation and a positive count.
func TheoreticalTime(lines []OperationLine) float64 {
	var total float64
	for _, l := range lines {
		if !l.contributes() {
			continue
		}
		total += finite(l.SecondsPerUnit) * float64(l.UnitCount)
	}
	return total
}

func perPiece(v, pieces float64) float64 {
	return divide(v, pieces)
}

func divide(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return finite(num / den)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

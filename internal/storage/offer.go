package storage

import "time"

type Offer struct {
	ID          string `json:"id"`
	OfferNumber string `json:"offer_number"`
	Customer    string `json:"customer"`
	Description string `json:"description"`

	PieceCount             float64 `json:"piece_count"`
	DeclaredWeightPerBatch float64 `json:"declared_weight_per_batch"`
	ExpectedRevenue        float64 `json:"expected_revenue"`
	RateRoundingBase       float64 `json:"rate_rounding_base"`
	RateAdjustment         float64 `json:"rate_adjustment"`
	MaterialsCost          float64 `json:"materials_cost"`
	LogisticsCost          float64 `json:"logistics_cost"`
	OtherCost              float64 `json:"other_cost"`

	Lines []OfferLine `json:"lines"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OfferLine is a stored operation line. CategoryID and SecondsPerUnit are
// filled from the operation definition when the offer is read back.
type OfferLine struct {
	OperationID    string  `json:"operation_id"`
	UnitCount      int     `json:"unit_count"`
	CategoryID     string  `json:"category_id,omitempty"`
	SecondsPerUnit float64 `json:"seconds_per_unit,omitempty"`
}

type OfferListItem struct {
	ID          string    `json:"id"`
	OfferNumber string    `json:"offer_number"`
	Customer    string    `json:"customer"`
	Description string    `json:"description"`
	LineCount   int       `json:"line_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

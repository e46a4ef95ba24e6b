package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"laser-offers/internal/constants"
	"laser-offers/internal/metrics"
	"laser-offers/internal/service/offercalc"
	"laser-offers/internal/storage"
)

type OfferStorage interface {
	SaveOffer(ctx context.Context, offer storage.Offer) (string, error)
	UpdateOffer(ctx context.Context, id string, offer storage.Offer) error
	GetOffer(ctx context.Context, id string) (*storage.Offer, error)
	ListOffers(ctx context.Context, search string) ([]storage.OfferListItem, error)
}

type CatalogLoader interface {
	Load(ctx context.Context, categoryID string) ([]storage.Operation, error)
}

// Draft is an offer as submitted by the form. Lines must carry their
// category so the standard time can be resolved from the catalog.
type Draft struct {
	OfferNumber string           `json:"offer_number"`
	Customer    string           `json:"customer"`
	Description string           `json:"description"`
	Inputs      offercalc.Inputs `json:"inputs"`
}

type Calculation struct {
	Inputs  offercalc.Inputs  `json:"inputs"`
	Derived offercalc.Derived `json:"derived"`
}

type OfferDetails struct {
	Offer       *storage.Offer `json:"offer"`
	Calculation Calculation    `json:"calculation"`
}

// OfferService is shared by the create and edit flows so both derive the
// same figures from the same inputs.
type OfferService struct {
	storage OfferStorage
	catalog CatalogLoader
}

func NewOfferService(storage OfferStorage, catalog CatalogLoader) *OfferService {
	return &OfferService{storage: storage, catalog: catalog}
}

// Calculate resolves the standard time of every line and evaluates the
// offer. Operations that are not part of their category count as zero.
func (s *OfferService) Calculate(ctx context.Context, draft Draft) (Calculation, error) {
	return s.calculate(ctx, draft.Inputs, constants.SourceHTTP, false)
}

// calculate resolves line durations from the active catalog. With keepStored
// a line whose operation is no longer active keeps the seconds it carries,
// which for stored offers come from the operation row itself.
func (s *OfferService) calculate(ctx context.Context, in offercalc.Inputs, source string, keepStored bool) (Calculation, error) {
	const op = "service.offer_service.Calculate"

	var categories []string
	seen := make(map[string]bool)
	for _, l := range in.OperationLines {
		if l.CategoryID == "" || seen[l.CategoryID] {
			continue
		}
		seen[l.CategoryID] = true
		categories = append(categories, l.CategoryID)
	}

	catalogs := make([][]storage.Operation, len(categories))

	g, gCtx := errgroup.WithContext(ctx)
	for i, categoryID := range categories {
		g.Go(func() error {
			ops, err := s.catalog.Load(gCtx, categoryID)
			if err != nil {
				return fmt.Errorf("catalog %s: %w", categoryID, err)
			}
			catalogs[i] = ops
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Calculation{}, fmt.Errorf("%s: %w", op, err)
	}

	seconds := make(map[string]map[string]float64, len(categories))
	for i, categoryID := range categories {
		byOperation := make(map[string]float64, len(catalogs[i]))
		for _, o := range catalogs[i] {
			byOperation[o.ID] = o.SecondsPerUnit
		}
		seconds[categoryID] = byOperation
	}

	lines := make([]offercalc.OperationLine, len(in.OperationLines))
	for i, l := range in.OperationLines {
		secs, ok := seconds[l.CategoryID][l.OperationID]
		if ok || !keepStored {
			l.SecondsPerUnit = secs
		}
		l.Settle()
		lines[i] = l
	}
	in.OperationLines = lines

	metrics.Recalculations.WithLabelValues(source).Inc()

	return Calculation{Inputs: in, Derived: offercalc.Recompute(in)}, nil
}

func (s *OfferService) Create(ctx context.Context, draft Draft) (string, Calculation, error) {
	const op = "service.offer_service.Create"

	calc, err := s.Calculate(ctx, draft)
	if err != nil {
		return "", Calculation{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.storage.SaveOffer(ctx, toOffer(draft, calc.Inputs))
	if err != nil {
		return "", Calculation{}, fmt.Errorf("%s: %w", op, err)
	}

	return id, calc, nil
}

func (s *OfferService) Update(ctx context.Context, id string, draft Draft) (Calculation, error) {
	const op = "service.offer_service.Update"

	calc, err := s.Calculate(ctx, draft)
	if err != nil {
		return Calculation{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateOffer(ctx, id, toOffer(draft, calc.Inputs)); err != nil {
		return Calculation{}, fmt.Errorf("%s: %w", op, err)
	}

	return calc, nil
}

// Get loads a stored offer and derives its figures with the current catalog.
func (s *OfferService) Get(ctx context.Context, id string) (*OfferDetails, error) {
	const op = "service.offer_service.Get"

	offer, err := s.storage.GetOffer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	calc, err := s.calculate(ctx, FromOffer(offer).Inputs, constants.SourceStored, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &OfferDetails{Offer: offer, Calculation: calc}, nil
}

func (s *OfferService) List(ctx context.Context, search string) ([]storage.OfferListItem, error) {
	const op = "service.offer_service.List"

	offers, err := s.storage.ListOffers(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return offers, nil
}

// FromOffer rebuilds the draft of a stored offer.
func FromOffer(offer *storage.Offer) Draft {
	lines := make([]offercalc.OperationLine, 0, len(offer.Lines))
	for _, l := range offer.Lines {
		lines = append(lines, offercalc.OperationLine{
			CategoryID:     l.CategoryID,
			OperationID:    l.OperationID,
			SecondsPerUnit: l.SecondsPerUnit,
			UnitCount:      l.UnitCount,
		})
	}

	return Draft{
		OfferNumber: offer.OfferNumber,
		Customer:    offer.Customer,
		Description: offer.Description,
		Inputs: offercalc.Inputs{
			PieceCount:             offer.PieceCount,
			DeclaredWeightPerBatch: offer.DeclaredWeightPerBatch,
			ExpectedRevenue:        offer.ExpectedRevenue,
			RateRoundingBase:       offer.RateRoundingBase,
			RateAdjustment:         offer.RateAdjustment,
			MaterialsCost:          offer.MaterialsCost,
			LogisticsCost:          offer.LogisticsCost,
			OtherCost:              offer.OtherCost,
			OperationLines:         lines,
		},
	}
}

func toOffer(draft Draft, in offercalc.Inputs) storage.Offer {
	submitted := offercalc.Submission(in.OperationLines)
	lines := make([]storage.OfferLine, 0, len(submitted))
	for _, l := range submitted {
		lines = append(lines, storage.OfferLine{OperationID: l.OperationID, UnitCount: l.UnitCount})
	}

	return storage.Offer{
		OfferNumber:            draft.OfferNumber,
		Customer:               draft.Customer,
		Description:            draft.Description,
		PieceCount:             in.PieceCount,
		DeclaredWeightPerBatch: in.DeclaredWeightPerBatch,
		ExpectedRevenue:        in.ExpectedRevenue,
		RateRoundingBase:       in.RateRoundingBase,
		RateAdjustment:         in.RateAdjustment,
		MaterialsCost:          in.MaterialsCost,
		LogisticsCost:          in.LogisticsCost,
		OtherCost:              in.OtherCost,
		Lines:                  lines,
	}
}

package offer_calc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"laser-offers/internal/service"
	"laser-offers/internal/service/offercalc"
)

type MockOfferCalculator struct {
	mock.Mock
}

func (m *MockOfferCalculator) Calculate(ctx context.Context, draft service.Draft) (service.Calculation, error) {
	args := m.Called(ctx, draft)

	calc := service.Calculation{}
	if args.Get(0) != nil {
		calc = args.Get(0).(service.Calculation)
	}

	return calc, args.Error(1)
}

func TestCalculateOffer_Success(t *testing.T) {
	in := offercalc.Inputs{
		PieceCount:       100,
		ExpectedRevenue:  50,
		RateRoundingBase: 10,
		RateAdjustment:   -2,
		OperationLines: []offercalc.OperationLine{
			{CategoryID: "cut", OperationID: "laser", SecondsPerUnit: 60, UnitCount: 1, LineTotalSeconds: 60},
		},
	}

	mockCalc := new(MockOfferCalculator)
	mockCalc.On("Calculate", mock.Anything, mock.MatchedBy(func(d service.Draft) bool {
		return d.OfferNumber == "OF-1" &&
			d.Inputs.PieceCount == 100 &&
			len(d.Inputs.OperationLines) == 1 &&
			d.Inputs.OperationLines[0].OperationID == "laser"
	})).Return(service.Calculation{Inputs: in, Derived: offercalc.Recompute(in)}, nil)

	handler := CalculateOffer(slog.Default(), mockCalc)

	reqBody := `{
		"offer_number": "OF-1",
		"inputs": {
			"piece_count": 100,
			"expected_revenue": 50,
			"rate_rounding_base": 10,
			"rate_adjustment": -2,
			"operation_lines": [{"category_id": "cut", "operation_id": "laser", "unit_count": 1}]
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/offers/calculate", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp Resp
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.InDelta(t, 72.0, resp.Derived.ProductionTimePerBatch, 1e-9)
	assert.Equal(t, "72,00000", resp.Formatted["production_time_per_batch"])
	assert.Equal(t, "-20,00000", resp.Formatted["rate_adjustment_percent"])
	assert.Equal(t, "5.000,00000", resp.Formatted["expected_throughput_per_piece_per_hour"])

	mockCalc.AssertExpectations(t)
}

func TestCalculateOffer_InvalidJSON(t *testing.T) {
	mockCalc := new(MockOfferCalculator)
	handler := CalculateOffer(slog.Default(), mockCalc)

	req := httptest.NewRequest(http.MethodPost, "/api/offers/calculate", strings.NewReader(`{"inputs": `))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	mockCalc.AssertNotCalled(t, "Calculate", mock.Anything, mock.Anything)
}

func TestCalculateOffer_ServiceError(t *testing.T) {
	mockCalc := new(MockOfferCalculator)
	mockCalc.On("Calculate", mock.Anything, mock.Anything).Return(nil, errors.New("catalog unavailable"))

	handler := CalculateOffer(slog.Default(), mockCalc)

	req := httptest.NewRequest(http.MethodPost, "/api/offers/calculate", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestFormat_CoversEveryDerivedField(t *testing.T) {
	raw, err := json.Marshal(offercalc.Derived{})
	require.NoError(t, err)

	var fields map[string]float64
	require.NoError(t, json.Unmarshal(raw, &fields))

	formatted := Format(offercalc.Derived{})
	assert.Len(t, formatted, len(fields))
	for name := range fields {
		assert.Equal(t, "0,00000", formatted[name], name)
	}
}

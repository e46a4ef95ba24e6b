package save

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"laser-offers/internal/service"
	"laser-offers/internal/storage"
)

type MockOfferCreator struct {
	mock.Mock
}

func (m *MockOfferCreator) Create(ctx context.Context, draft service.Draft) (string, service.Calculation, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Get(1).(service.Calculation), args.Error(2)
}

const body = `{
	"offer_number": "OF-2024-001",
	"customer": "ACME",
	"inputs": {
		"piece_count": 10,
		"operation_lines": [{"category_id": "cut", "operation_id": "laser", "unit_count": 2}]
	}
}`

func TestSaveOffer_Success(t *testing.T) {
	creator := new(MockOfferCreator)
	creator.On("Create", mock.Anything, mock.MatchedBy(func(d service.Draft) bool {
		return d.OfferNumber == "OF-2024-001" &&
			d.Customer == "ACME" &&
			d.Inputs.PieceCount == 10 &&
			d.Inputs.OperationLines[0].UnitCount == 2
	})).Return("new-id", service.Calculation{}, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/offers", strings.NewReader(body))
	SaveOffer(slog.Default(), creator).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "new-id", resp.ID)
	creator.AssertExpectations(t)
}

func TestSaveOffer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{"invalid json", `{"offer_number": `, nil, http.StatusBadRequest},
		{"missing number", `{"customer": "ACME"}`, nil, http.StatusBadRequest},
		{"duplicate", body, fmt.Errorf("save: %w", storage.ErrDuplicate), http.StatusConflict},
		{"unknown operation", body, fmt.Errorf("save: %w", storage.ErrReference), http.StatusUnprocessableEntity},
		{"storage failure", body, fmt.Errorf("save: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := new(MockOfferCreator)
			if tt.err != nil {
				creator.On("Create", mock.Anything, mock.Anything).Return("", service.Calculation{}, tt.err)
			}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/offers", strings.NewReader(tt.body))
			SaveOffer(slog.Default(), creator).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
		})
	}
}

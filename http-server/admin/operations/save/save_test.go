package save

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"laser-offers/internal/storage"
)

type MockOperationCreator struct {
	mock.Mock
}

func (m *MockOperationCreator) CreateOperation(ctx context.Context, o storage.Operation) (string, error) {
	args := m.Called(ctx, o)
	return args.String(0), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Invalidate(categoryID string) {
	m.Called(categoryID)
}

const categoryID = "3f0c8a52-51c1-4a55-9f0e-8c7d1b1f2a10"

// A created operation drops the cached category.
func TestSaveOperationAdmin_Success(t *testing.T) {
	creator := new(MockOperationCreator)
	creator.On("CreateOperation", mock.Anything, mock.MatchedBy(func(o storage.Operation) bool {
		return o.CategoryID == categoryID &&
			o.Code == "PIE" &&
			o.Name == "Piegatura" &&
			o.SecondsPerUnit == 12.5 &&
			o.IsActive
	})).Return("new-op", nil)

	catalog := new(MockCatalog)
	catalog.On("Invalidate", categoryID).Return()

	reqBody := `{"category_id": "` + categoryID + `", "code": "PIE", "name": "Piegatura", "seconds_per_unit": 12.5, "is_active": true}`

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/operations", strings.NewReader(reqBody))
	SaveOperationAdmin(slog.Default(), creator, catalog).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"id": "new-op"}`, rr.Body.String())
	creator.AssertExpectations(t)
	catalog.AssertExpectations(t)
}

func TestSaveOperationAdmin_Rejected(t *testing.T) {
	valid := `{"category_id": "` + categoryID + `", "code": "PIE", "name": "Piegatura", "seconds_per_unit": 1}`

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "invalid json", body: `{`, wantCode: http.StatusBadRequest},
		{name: "missing name", body: `{"category_id": "` + categoryID + `", "code": "PIE"}`, wantCode: http.StatusBadRequest},
		{name: "bad category", body: `{"category_id": "cut", "code": "PIE", "name": "x"}`, wantCode: http.StatusBadRequest},
		{name: "negative time", body: `{"category_id": "` + categoryID + `", "code": "PIE", "name": "x", "seconds_per_unit": -1}`, wantCode: http.StatusBadRequest},
		{name: "duplicate", body: valid, err: fmt.Errorf("create: %w", storage.ErrDuplicate), wantCode: http.StatusConflict},
		{name: "unknown category", body: valid, err: fmt.Errorf("create: %w", storage.ErrReference), wantCode: http.StatusUnprocessableEntity},
		{name: "failure", body: valid, err: fmt.Errorf("create: broken pipe"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := new(MockOperationCreator)
			if tt.err != nil {
				creator.On("CreateOperation", mock.Anything, mock.Anything).Return("", tt.err)
			}
			catalog := new(MockCatalog)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/operations", strings.NewReader(tt.body))
			SaveOperationAdmin(slog.Default(), creator, catalog).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			catalog.AssertNotCalled(t, "Invalidate", mock.Anything)
		})
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_ExposesCounters(t *testing.T) {
	Recalculations.WithLabelValues("http").Inc()
	CatalogFetches.WithLabelValues("ok").Inc()

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `offers_recalculations_total{source="http"}`)
	assert.Contains(t, rr.Body.String(), `offers_catalog_fetches_total{result="ok"}`)
}

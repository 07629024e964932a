// internal/metrics/metrics_test.go
package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/wallets/:id/checkin", canonicalPath("/wallets/42/checkin"))
	assert.Equal(t, "/admin/withdrawals/:id/approve", canonicalPath("/admin/withdrawals/7/approve"))
	assert.Equal(t, "/health", canonicalPath("/health"))
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(ledgerOperations.WithLabelValues("purchase_plan", OutcomeSuccess))
	RecordOperation("purchase_plan", OutcomeSuccess)
	assert.Equal(t, before+1, testutil.ToFloat64(ledgerOperations.WithLabelValues("purchase_plan", OutcomeSuccess)))
}

func TestInstrumentHandlerRecordsStatus(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/wallets/:id", "418"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wallets/9", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/wallets/:id", "418")))
}

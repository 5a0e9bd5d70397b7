package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mtm-engine/internal/contracts"
)

func TestRecorder_ObserveRun(t *testing.T) {
	okBefore := testutil.ToFloat64(RunsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(RunsTotal.WithLabelValues("error"))
	valuedBefore := testutil.ToFloat64(ContractsTotal.WithLabelValues("valued"))
	notesBefore := testutil.ToFloat64(NotesTotal.WithLabelValues(string(contracts.NoteUnitInvalid)))

	rep := &contracts.Report{
		TotalMTM:     1234.5,
		ValuedCount:  2,
		SkippedCount: 1,
		Results: []contracts.ValuationResult{
			{Notes: contracts.Notes{{Code: contracts.NoteUnitInvalid}}},
		},
	}

	Recorder{}.ObserveRun(rep, 10*time.Millisecond, nil)
	Recorder{}.ObserveRun(nil, time.Millisecond, errors.New("policy"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(RunsTotal.WithLabelValues("error")))
	assert.Equal(t, valuedBefore+2, testutil.ToFloat64(ContractsTotal.WithLabelValues("valued")))
	assert.Equal(t, notesBefore+1, testutil.ToFloat64(NotesTotal.WithLabelValues(string(contracts.NoteUnitInvalid))))
	assert.Equal(t, 1234.5, testutil.ToFloat64(PortfolioMTM))
}

func TestMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Middleware)
	r.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/items/{id}", "418"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/items/{id}", "418"))
	assert.Equal(t, before+1, after)
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "mtm_run_duration_seconds"))
}

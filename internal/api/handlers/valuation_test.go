package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/valuation"
	"github.com/wonny/mtm-engine/pkg/logger"
)

const sampleBody = `{
  "valuation_date": "2025-06-20",
  "contracts": [
    {"ContractID": "C-001", "BaseIndex": "IODEX", "Tenor": "2025-06", "Quantity": 1000, "Unit": "WMT",
     "Moisture": 0.08, "TypicalFe": 58, "Cost": 2, "Discount": 0.95},
    {"ContractID": "C-002", "BaseIndex": "IODEX", "Tenor": "2025-06", "Quantity": "1000", "Unit": "XYZ",
     "Moisture": null, "TypicalFe": "NoAdj", "Cost": "2", "Discount": "0.95"}
  ],
  "prices": [
    {"Index": "IODEX", "Date": "2025-06-05", "Tenor": "2025-06", "Price": 100},
    {"Index": "IODEX", "Date": "2025-06-25", "Tenor": "2025-06", "Price": 110}
  ]
}`

func newTestHandler() *ValuationHandler {
	return NewValuationHandler(valuation.NewEngine(nil), mtmconfig.Defaults(), 1<<20, logger.Nop())
}

func post(h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, target, strings.NewReader(body)))
	return rec
}

func TestRun_OK(t *testing.T) {
	rec := post(newTestHandler().Run, "/api/valuations", sampleBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Summary struct {
			Contracts int     `json:"contracts"`
			Valued    int     `json:"valued"`
			NotValued int     `json:"not_valued"`
			TotalMTM  float64 `json:"total_mtm"`
		} `json:"summary"`
		Report struct {
			RunID        string `json:"run_id"`
			SettingsHash string `json:"settings_hash"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 2, resp.Summary.Contracts)
	assert.Equal(t, 1, resp.Summary.Valued)
	assert.Equal(t, 1, resp.Summary.NotValued)
	// (100 * 58/62 + 2) * 0.95 * 920
	assert.InDelta(t, 83509.29, resp.Summary.TotalMTM, 0.01)
	assert.NotEmpty(t, resp.Report.RunID)
	assert.NotEmpty(t, resp.Report.SettingsHash)
}

func TestRun_CSV(t *testing.T) {
	rec := post(newTestHandler().Run, "/api/valuations?format=csv", sampleBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ContractID,"))
	assert.Contains(t, lines[2], string(contracts.NoteUnitInvalid))
}

func TestRun_PolicyError(t *testing.T) {
	body := strings.Replace(sampleBody, `"valuation_date": "2025-06-20",`,
		`"valuation_date": "2025-06-20", "settings": {"invalid_unit_policy": "fail"},`, 1)

	rec := post(newTestHandler().Run, "/api/valuations", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	var resp PolicyErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Policy)
	assert.Equal(t, "C-002", resp.Policy.ContractID)
	assert.Equal(t, "Unit", resp.Policy.Field)
	assert.Contains(t, resp.Error, "C-002")
}

func TestRun_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"valuation_date":`, "Invalid request body"},
		{"missing date", `{"contracts": [], "prices": []}`, "valuation_date"},
		{"bad date", `{"valuation_date": "not-a-date", "contracts": []}`, "valuation_date"},
		{"unknown setting", `{"valuation_date": "2025-06-20", "settings": {"nope": 1}}`, "Invalid settings"},
		{"invalid setting", `{"valuation_date": "2025-06-20", "settings": {"default_moisture": 1.5}}`, "default_moisture"},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(h.Run, "/api/valuations", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestRun_BodyTooLarge(t *testing.T) {
	h := NewValuationHandler(valuation.NewEngine(nil), mtmconfig.Defaults(), 16, logger.Nop())
	rec := post(h.Run, "/api/valuations", sampleBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRun_SettingsOverlay(t *testing.T) {
	h := newTestHandler()

	s, err := h.settings(json.RawMessage(`{"duplicate_price_method": "last"}`))
	require.NoError(t, err)
	assert.Equal(t, mtmconfig.DuplicateLast, s.DuplicatePriceMethod)
	// 나머지는 서버 기본값 유지
	assert.Equal(t, mtmconfig.UnitSkip, s.InvalidUnitPolicy)
	assert.Equal(t, mtmconfig.ReferenceFe, s.ReferenceFe)

	s, err = h.settings(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, mtmconfig.Defaults(), s)
}

func TestCell_UnmarshalJSON(t *testing.T) {
	var row contractJSON
	require.NoError(t, json.NewDecoder(bytes.NewBufferString(
		`{"ContractID": "C-1", "Quantity": 1e3, "Moisture": null, "Cost": " 2 "}`)).Decode(&row))

	got := row.row()
	assert.Equal(t, "C-1", got.ContractID)
	assert.Equal(t, "1e3", got.Quantity)
	assert.Equal(t, "", got.Moisture)
	assert.Equal(t, " 2 ", got.Cost)
}

func TestDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().Defaults(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"duplicate_price_method":"mean"`)
}

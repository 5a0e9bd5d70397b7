package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wonny/mtm-engine/internal/contracts"
	"github.com/wonny/mtm-engine/internal/mtmconfig"
	"github.com/wonny/mtm-engine/internal/report"
	"github.com/wonny/mtm-engine/internal/tenor"
	"github.com/wonny/mtm-engine/internal/validation"
	"github.com/wonny/mtm-engine/internal/valuation"
	"github.com/wonny/mtm-engine/pkg/logger"
)

// ValuationHandler handles valuation API endpoints
// ⭐ SSOT: 평가 API 핸들러는 이 구조체에서만
type ValuationHandler struct {
	engine   *valuation.Engine
	defaults mtmconfig.Settings
	maxBody  int64
	logger   *logger.Logger
}

// NewValuationHandler creates a new valuation handler.
// defaults are the settings used when a request omits them.
func NewValuationHandler(engine *valuation.Engine, defaults mtmconfig.Settings, maxBody int64, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		engine:   engine,
		defaults: defaults,
		maxBody:  maxBody,
		logger:   log,
	}
}

// cell accepts a JSON string, number, bool or null and keeps it as text
type cell string

func (c *cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = cell(s)
	default:
		*c = cell(data)
	}
	return nil
}

type contractJSON struct {
	ContractID cell `json:"ContractID"`
	BaseIndex  cell `json:"BaseIndex"`
	Tenor      cell `json:"Tenor"`
	Quantity   cell `json:"Quantity"`
	Unit       cell `json:"Unit"`
	Moisture   cell `json:"Moisture"`
	TypicalFe  cell `json:"TypicalFe"`
	Cost       cell `json:"Cost"`
	Discount   cell `json:"Discount"`
}

func (c contractJSON) row() contracts.ContractRow {
	return contracts.ContractRow{
		ContractID: string(c.ContractID),
		BaseIndex:  string(c.BaseIndex),
		Tenor:      string(c.Tenor),
		Quantity:   string(c.Quantity),
		Unit:       string(c.Unit),
		Moisture:   string(c.Moisture),
		TypicalFe:  string(c.TypicalFe),
		Cost:       string(c.Cost),
		Discount:   string(c.Discount),
	}
}

type priceJSON struct {
	Index cell `json:"Index"`
	Date  cell `json:"Date"`
	Tenor cell `json:"Tenor"`
	Price cell `json:"Price"`
}

func (p priceJSON) row() contracts.PriceRow {
	return contracts.PriceRow{
		Index: string(p.Index),
		Date:  string(p.Date),
		Tenor: string(p.Tenor),
		Price: string(p.Price),
	}
}

// ValuationRequest is the body of POST /api/valuations.
// Settings fields that are omitted keep the server defaults.
type ValuationRequest struct {
	ValuationDate string          `json:"valuation_date"`
	Settings      json.RawMessage `json:"settings,omitempty"`
	Contracts     []contractJSON  `json:"contracts"`
	Prices        []priceJSON     `json:"prices"`
}

// ValuationResponse is the body of a successful run
type ValuationResponse struct {
	Summary report.Summary    `json:"summary"`
	Report  *contracts.Report `json:"report"`
}

// PolicyErrorResponse is the body of a run aborted by a strict policy
type PolicyErrorResponse struct {
	Error  string                  `json:"error"`
	Policy *validation.PolicyError `json:"policy_error"`
}

// Run values the posted tables
// POST /api/valuations[?format=csv]
func (h *ValuationHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	valDate, err := tenor.ParseDate(req.ValuationDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'valuation_date' (expected YYYY-MM-DD)")
		return
	}

	settings, err := h.settings(req.Settings)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid settings: "+err.Error())
		return
	}

	rows := make([]contracts.ContractRow, len(req.Contracts))
	for i, c := range req.Contracts {
		rows[i] = c.row()
	}
	prices := make([]contracts.PriceRow, len(req.Prices))
	for i, p := range req.Prices {
		prices[i] = p.row()
	}

	rep, err := h.engine.Run(rows, prices, valDate, settings)
	if err != nil {
		var perr *validation.PolicyError
		if errors.As(err, &perr) {
			respondJSON(w, http.StatusUnprocessableEntity, PolicyErrorResponse{Error: perr.Error(), Policy: perr})
			return
		}
		h.logger.WithError(err).Error("Valuation failed")
		respondError(w, http.StatusInternalServerError, "Valuation failed")
		return
	}

	snap, err := mtmconfig.NewRunSnapshot(&settings, valDate)
	if err == nil {
		rep.RunID = snap.RunID
		rep.SettingsHash = snap.SettingsHash
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.CSVFile+`"`)
		if err := report.WriteCSV(w, rep); err != nil {
			h.logger.WithError(err).Error("Failed to write CSV report")
		}
		return
	}

	respondJSON(w, http.StatusOK, ValuationResponse{
		Summary: report.Summarize(rep),
		Report:  rep,
	})
}

// Defaults returns the server's default settings
// GET /api/settings
func (h *ValuationHandler) Defaults(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"settings": h.defaults,
		"warnings": mtmconfig.Warn(&h.defaults),
	})
}

// settings overlays the request's settings on the defaults
func (h *ValuationHandler) settings(raw json.RawMessage) (mtmconfig.Settings, error) {
	s := h.defaults
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return s, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return s, err
	}
	return s, mtmconfig.Validate(&s)
}

// Package handlers holds the HTTP handlers for the fundlens API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fundlens/internal/analysis"
	"github.com/wonny/fundlens/internal/describe"
	"github.com/wonny/fundlens/internal/pipeline"
	"github.com/wonny/fundlens/internal/registry"
	"github.com/wonny/fundlens/pkg/date"
	"github.com/wonny/fundlens/pkg/logger"
)

// InstrumentHandler serves the instrument registry and the latest analysis
// results held by the pipeline service.
type InstrumentHandler struct {
	service   *pipeline.Service
	describer *describe.Describer
	logger    *logger.Logger
}

// NewInstrumentHandler creates the handler. The describer is optional; it
// only powers metadata autofill on instrument registration.
func NewInstrumentHandler(svc *pipeline.Service, d *describe.Describer, log *logger.Logger) *InstrumentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InstrumentHandler{
		service:   svc,
		describer: d,
		logger:    log.WithComponent("handlers"),
	}
}

// instrumentSummary is one row of the instrument listing.
type instrumentSummary struct {
	Fund        registry.Fund     `json:"fund"`
	Metrics     *analysis.Metrics `json:"metrics,omitempty"`
	Source      string            `json:"source,omitempty"`
	Description string            `json:"description,omitempty"`
	Validation  string            `json:"validation,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// List returns every registered instrument with its latest metrics.
// GET /api/instruments
func (h *InstrumentHandler) List(w http.ResponseWriter, r *http.Request) {
	results, lastRefresh := h.service.Results()

	byID := make(map[string]pipeline.Result, len(results))
	for _, res := range results {
		byID[res.Fund.ID()] = res
	}

	funds := h.service.Funds()
	rows := make([]instrumentSummary, 0, len(funds))
	for _, f := range funds {
		row := instrumentSummary{Fund: f}
		if res, ok := byID[f.ID()]; ok {
			if res.OK() {
				m := res.Metrics
				row.Metrics = &m
				row.Description = res.Description
				if res.Series != nil {
					row.Source = res.Series.Source
				}
				if res.Report != nil {
					row.Validation = res.Report.Summary()
				}
			} else {
				row.Error = res.Err.Error()
			}
		}
		rows = append(rows, row)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"data":         rows,
		"last_refresh": lastRefresh,
	})
}

type addInstrumentRequest struct {
	ISIN   string `json:"isin"`
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// Add registers a new instrument. Missing ticker and name are filled from
// OpenFIGI when the mapping resolves.
// POST /api/instruments
func (h *InstrumentHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addInstrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.ISIN = strings.ToUpper(strings.TrimSpace(req.ISIN))
	req.Ticker = strings.TrimSpace(req.Ticker)
	if req.ISIN == "" && req.Ticker == "" {
		respondError(w, http.StatusBadRequest, "isin or ticker is required")
		return
	}
	if req.ISIN != "" && !registry.LooksLikeISIN(req.ISIN) {
		respondError(w, http.StatusBadRequest, "malformed isin")
		return
	}

	fund := registry.Fund{ISIN: req.ISIN, Ticker: req.Ticker, Name: req.Name}

	if h.describer != nil && req.ISIN != "" && (fund.Ticker == "" || fund.Name == "") {
		if m := h.describer.Mapping(r.Context(), req.ISIN); m != nil {
			if fund.Ticker == "" {
				fund.Ticker = m.Ticker
			}
			if fund.Name == "" {
				fund.Name = m.Name
			}
		}
	}

	if err := h.service.AddFund(fund); err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	h.logger.WithField("instrument", fund.ID()).Info("instrument registered")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"fund":    fund,
	})
}

// Remove deletes an instrument from the registry.
// DELETE /api/instruments/{id}
func (h *InstrumentHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.service.RemoveFund(id) {
		respondError(w, http.StatusNotFound, "unknown instrument")
		return
	}

	h.logger.WithField("instrument", id).Info("instrument removed")
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// historyPoint pairs a raw price with its total-return value for one day.
type historyPoint struct {
	Date        string   `json:"date"`
	Price       float64  `json:"price"`
	TotalReturn *float64 `json:"total_return,omitempty"`
}

// History returns the price and total-return history of one instrument.
// GET /api/instruments/{id}/history
func (h *InstrumentHandler) History(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	res, ok := h.service.Result(id)
	if !ok {
		respondError(w, http.StatusNotFound, "no results for instrument, refresh first")
		return
	}
	if !res.OK() {
		respondError(w, http.StatusBadGateway, res.Err.Error())
		return
	}

	trAt := make(map[date.Date]float64, res.TotalReturn.Len())
	for i, d := range res.TotalReturn.Dates {
		trAt[d] = res.TotalReturn.Values[i]
	}

	points := make([]historyPoint, 0, res.Series.Len())
	for _, rec := range res.Series.Records {
		p := historyPoint{Date: rec.Date.String(), Price: rec.Price}
		if v, ok := trAt[rec.Date]; ok {
			tr := v
			p.TotalReturn = &tr
		}
		points = append(points, p)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"source":   res.Series.Source,
		"adjusted": res.Series.Adjusted,
		"data":     points,
	})
}

// Comparison returns the base-100 cross-instrument table.
// GET /api/comparison?start=YYYY-MM-DD&base=100
func (h *InstrumentHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	var opts analysis.CompareOptions

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err := date.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid 'start' date format (expected YYYY-MM-DD)")
			return
		}
		opts.Start = start
	}

	cmp, err := h.service.Comparison(opts)
	if err != nil {
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cmp)
}

// Refresh triggers a pipeline run in the background.
// POST /api/refresh
func (h *InstrumentHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if err := h.service.Refresh(ctx); err != nil {
			h.logger.WithError(err).Warn("background refresh not started")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"status":  "refresh started",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

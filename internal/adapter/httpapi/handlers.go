package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/dashboard"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
)

type dashboardHandler struct {
	builder dashboard.ViewBuilder
	store   AllocationStore
	cache   CacheInvalidator
	logger  *slog.Logger
	metrics *observability.Metrics
}

// getDashboard serves GET /api/dashboard. Query parameters: year (int),
// indicator (incidence|mortality|effective_treatment), state (repeatable).
func (h *dashboardHandler) getDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		h.metrics.DashboardRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.builder.Build(r.Context(), filters)
	if err != nil {
		h.metrics.DashboardRequests.WithLabelValues("error").Inc()
		h.logger.Error("dashboard view build failed", "error", err,
			"indicator", filters.Indicator.String(), "year", filters.Year)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard view")
		return
	}

	h.metrics.DashboardRequests.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, view)
}

type indicatorInfo struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// listIndicators serves GET /api/indicators with the queryable indicator set.
func (h *dashboardHandler) listIndicators(w http.ResponseWriter, _ *http.Request) {
	variants := dashboard.Indicators()
	out := make([]indicatorInfo, 0, len(variants))
	for _, ind := range variants {
		out = append(out, indicatorInfo{Name: ind.String(), Label: ind.Label()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"indicators": out})
}

// getLatestAllocation serves GET /api/allocations/latest with the per-state
// rows of the most recent disaggregation run.
func (h *dashboardHandler) getLatestAllocation(w http.ResponseWriter, r *http.Request) {
	states, err := h.store.LatestAllocation(r.Context())
	if err != nil {
		h.metrics.DashboardRequests.WithLabelValues("error").Inc()
		h.logger.Error("latest allocation query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load latest allocation")
		return
	}
	if states == nil {
		states = []domain.StateRecord{}
	}

	h.metrics.DashboardRequests.WithLabelValues("success").Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{"states": states})
}

// invalidateCache serves POST /api/cache/invalidate, dropping every cached
// view after a pipeline run loads new data.
func (h *dashboardHandler) invalidateCache(w http.ResponseWriter, _ *http.Request) {
	h.cache.Invalidate()
	h.logger.Info("dashboard view cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}

func parseFilters(r *http.Request) (dashboard.Filters, error) {
	q := r.URL.Query()

	var f dashboard.Filters

	indicator, err := dashboard.ParseIndicator(q.Get("indicator"))
	if err != nil {
		return dashboard.Filters{}, err
	}
	f.Indicator = indicator

	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return dashboard.Filters{}, &badParamError{param: "year", value: raw}
		}
		f.Year = year
	}

	for _, raw := range q["state"] {
		for _, state := range strings.Split(raw, ",") {
			if state = strings.TrimSpace(state); state != "" {
				f.States = append(f.States, state)
			}
		}
	}

	return f, nil
}

type badParamError struct {
	param string
	value string
}

func (e *badParamError) Error() string {
	return "invalid " + e.param + " parameter " + strconv.Quote(e.value)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	apperrors "superstore-analytics/internal/errors"
	"superstore-analytics/internal/models"
	"superstore-analytics/internal/services"
)

const (
	maxTopProducts  = 20
	maxTopCustomers = 20
)

type APIHandlers struct {
	analytics      *services.Analytics
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, maxUploadBytes int64) *APIHandlers {
	return &APIHandlers{
		analytics:      analytics,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

var noStore = map[string]string{"Cache-Control": cacheControl}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary()
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}
	apperrors.WriteSuccessWithHeaders(w, summary, noStore)
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.requireData(w, r, maxTopProducts)
	if !ok {
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.TopProducts(limit), noStore)
}

func (h *APIHandlers) HandleTopCustomers(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.requireData(w, r, maxTopCustomers)
	if !ok {
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.TopCustomers(limit), noStore)
}

func (h *APIHandlers) HandleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireData(w, r, 0); !ok {
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.MonthlyTrends(), noStore)
}

func (h *APIHandlers) HandleSalesByRegion(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireData(w, r, 0); !ok {
		return
	}
	apperrors.WriteSuccessWithHeaders(w, h.analytics.SalesByRegion(), noStore)
}

// requireData writes 409 when nothing is loaded and parses ?limit= when
// ceiling is positive.
func (h *APIHandlers) requireData(w http.ResponseWriter, r *http.Request, ceiling int) (int, bool) {
	if !h.analytics.HasData() {
		writeError(w, r, h.logger, apperrors.NoDataset())
		return 0, false
	}
	if ceiling <= 0 {
		return 0, true
	}
	limit, err := parseLimit(r, ceiling)
	if err != nil {
		writeError(w, r, h.logger, err)
		return 0, false
	}
	return limit, true
}

func (h *APIHandlers) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.analytics.Customers()
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}
	apperrors.WriteSuccessWithHeaders(w, customers, noStore)
}

func (h *APIHandlers) HandleCustomerProfile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	profile, ok, err := h.analytics.CustomerProfile(id)
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}
	if !ok {
		writeError(w, r, h.logger, apperrors.NotFound("Customer not found").WithDetails(id))
		return
	}
	apperrors.WriteSuccessWithHeaders(w, profile, noStore)
}

// HandleRecommendations answers unknown customers with an empty list.
func (h *APIHandlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	recs, err := h.analytics.Recommendations(id)
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}

	apperrors.WriteSuccessWithHeaders(w, map[string]any{
		"customer_id":     id,
		"recommendations": recs,
	}, noStore)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().Format(time.RFC3339),
		"version":    "1.0.0",
		"has_data":   h.analytics.HasData(),
		"max_upload": h.maxUploadBytes,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteSuccess(w, h.analytics.Stats())
}

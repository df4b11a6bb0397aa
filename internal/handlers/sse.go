package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	apperrors "superstore-analytics/internal/errors"
	"superstore-analytics/internal/services"
	"superstore-analytics/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// recommendationSignals is the datastar signal store sent by the customer
// picker.
type recommendationSignals struct {
	CustomerID string `json:"customerId"`
}

// HandleSummary patches the summary fragment.
func (h *SSEHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	summary, err := h.analytics.Summary()
	if errors.Is(err, services.ErrNoDataset) {
		patchComponent(r, sse, h.logger, templates.Summary(nil))
		return
	}

	patchComponent(r, sse, h.logger, templates.Summary(&summary))
}

// HandleRecommendations reads the customer id from the datastar signals,
// falling back to ?customer_id=.
func (h *SSEHandlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	var signals recommendationSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Debug("read signals", "error", err)
	}
	if signals.CustomerID == "" {
		signals.CustomerID = r.URL.Query().Get("customer_id")
	}

	sse := datastar.NewSSE(w, r)

	if signals.CustomerID == "" {
		patchComponent(r, sse, h.logger, templates.Recommendations(nil, nil))
		return
	}

	profile, ok, err := h.analytics.CustomerProfile(signals.CustomerID)
	if err != nil || !ok {
		patchComponent(r, sse, h.logger, templates.Recommendations(nil, nil))
		return
	}

	recs, err := h.analytics.Recommendations(signals.CustomerID)
	if err != nil {
		h.logger.Error("recommendations", "customer_id", signals.CustomerID, "error", err)
		return
	}
	patchComponent(r, sse, h.logger, templates.Recommendations(&profile, recs))
}

// patchUploadError answers a rejected datastar upload. Only the status
// fragment changes.
func patchUploadError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, uploadErr *apperrors.AppError) {
	sse := datastar.NewSSE(w, r)
	patchComponent(r, sse, logger, templates.UploadStatus(nil, uploadErr.Message, uploadErr.Missing))
}

// patchUpload answers a successful datastar upload by replacing every
// dataset-dependent fragment with the freshly ingested data.
func patchUpload(w http.ResponseWriter, r *http.Request, logger *slog.Logger, ingested services.IngestResult) {
	sse := datastar.NewSSE(w, r)

	patchComponent(r, sse, logger, templates.UploadStatus(&ingested.Dataset, "", nil))
	patchComponent(r, sse, logger, templates.Summary(&ingested.Summary))
	patchComponent(r, sse, logger, templates.CustomerPicker(ingested.Customers))
	patchComponent(r, sse, logger, templates.Recommendations(nil, nil))

	if err := sse.PatchSignals([]byte(`{"customerId": ""}`)); err != nil {
		logger.Error("patch signals", "error", err)
	}
}

func patchComponent(r *http.Request, sse *datastar.ServerSentEventGenerator, logger *slog.Logger, c templ.Component) {
	html, err := templates.RenderString(r.Context(), c)
	if err != nil {
		logger.Error("render fragment", "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		logger.Error("patch elements", "error", err)
	}
}

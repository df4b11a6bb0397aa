package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	apperrors "superstore-analytics/internal/errors"
	"superstore-analytics/internal/export"
	"superstore-analytics/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandleExportReport downloads the current summary as an XLSX workbook.
func (h *APIHandlers) HandleExportReport(w http.ResponseWriter, r *http.Request) {
	info, err := h.analytics.Dataset()
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}
	summary, err := h.analytics.Summary()
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteReport(&buf, info, summary); err != nil {
		writeError(w, r, h.logger, apperrors.InternalWrap(err, "Failed to build report"))
		return
	}

	filename := fmt.Sprintf("superstore-report-%s.xlsx", info.LoadedAt.Format("2006-01-02"))
	writeDownload(w, xlsxContentType, filename, buf.Bytes())
}

// HandleExportRecommendations downloads one customer's recommendations as CSV.
func (h *APIHandlers) HandleExportRecommendations(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("customer_id")
	if id == "" {
		writeError(w, r, h.logger, apperrors.BadRequest("customer_id is required"))
		return
	}

	profile, ok, err := h.analytics.CustomerProfile(id)
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}
	if !ok {
		writeError(w, r, h.logger, apperrors.NotFound("Customer not found").WithDetails(id))
		return
	}

	recs, err := h.analytics.Recommendations(id)
	if err != nil {
		writeError(w, r, h.logger, serviceError(err, models.ColumnReport{}))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRecommendations(&buf, profile, recs); err != nil {
		writeError(w, r, h.logger, apperrors.InternalWrap(err, "Failed to build export"))
		return
	}

	writeDownload(w, "text/csv; charset=utf-8", "recommendations-"+safeFilename(id)+".csv", buf.Bytes())
}

func writeDownload(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// safeFilename keeps letters, digits and dashes.
func safeFilename(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

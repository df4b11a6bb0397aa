package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	apperrors "superstore-analytics/internal/errors"
	"superstore-analytics/internal/models"
	"superstore-analytics/internal/normalize"
	"superstore-analytics/internal/observability"
	"superstore-analytics/internal/services"
)

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
)

// UploadResult is the body of a successful upload.
type UploadResult struct {
	Dataset models.DatasetInfo      `json:"dataset"`
	Columns models.ColumnReport     `json:"columns"`
	Summary models.AnalyticsSummary `json:"summary"`
}

// HandleUpload replaces the session with the uploaded CSV. Datastar requests
// get fragment patches instead of JSON.
func (h *APIHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	var ingested services.IngestResult

	file, header, err := h.readUpload(w, r)
	if err == nil {
		defer file.Close()
		ingested, err = h.analytics.Ingest(r.Context(), file, header.Filename)
	}

	if isDatastar(r) {
		if err != nil {
			appErr := serviceError(err, ingested.Columns)
			observability.FromContext(r.Context(), h.logger).Warn("upload rejected", "code", appErr.Code, "error", err)
			patchUploadError(w, r, h.logger, appErr)
			return
		}
		patchUpload(w, r, h.logger, ingested)
		return
	}

	if err != nil {
		writeError(w, r, h.logger, serviceError(err, ingested.Columns))
		return
	}
	apperrors.WriteSuccess(w, UploadResult{
		Dataset: ingested.Dataset,
		Columns: ingested.Columns,
		Summary: ingested.Summary,
	})
}

// HandleValidate runs the column check without touching the session. An empty
// file is reported as an invalid dataset, not as a request error.
func (h *APIHandlers) HandleValidate(w http.ResponseWriter, r *http.Request) {
	file, _, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer file.Close()

	report, err := h.analytics.ValidateCSV(r.Context(), file)
	if err != nil && !errors.Is(err, normalize.ErrNoRows) {
		writeError(w, r, h.logger, serviceError(err, report))
		return
	}
	apperrors.WriteSuccess(w, report)
}

// readUpload enforces the size cap and the .csv extension and returns the
// uploaded file.
func (h *APIHandlers) readUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if r.ContentLength > h.maxUploadBytes {
		return nil, nil, apperrors.PayloadTooLarge(h.maxUploadBytes)
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var sizeErr *http.MaxBytesError
		if errors.As(err, &sizeErr) {
			return nil, nil, apperrors.PayloadTooLarge(h.maxUploadBytes)
		}
		return nil, nil, apperrors.BadRequestWrap(err, "Expected a multipart form upload")
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		return nil, nil, apperrors.BadRequestWrap(err, "Missing file field \""+uploadField+"\"")
	}
	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		file.Close()
		return nil, nil, apperrors.Validation("Only .csv files are accepted")
	}
	return file, header, nil
}

func isDatastar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true"
}

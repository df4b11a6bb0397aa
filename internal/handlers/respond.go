package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "superstore-analytics/internal/errors"
	"superstore-analytics/internal/models"
	"superstore-analytics/internal/normalize"
	"superstore-analytics/internal/observability"
	"superstore-analytics/internal/services"
)

const cacheControl = "no-cache"

// serviceError maps core errors onto the HTTP error taxonomy. report is the
// column check of the failed upload, if any.
func serviceError(err error, report models.ColumnReport) *apperrors.AppError {
	var appErr *apperrors.AppError
	var parseErr *csv.ParseError
	var sizeErr *http.MaxBytesError

	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, services.ErrNoDataset):
		return apperrors.NoDataset()
	case errors.Is(err, normalize.ErrNoRows):
		return apperrors.EmptyFile(err)
	case errors.Is(err, services.ErrMissingColumns):
		return apperrors.MissingColumns(err, report.Missing)
	case errors.Is(err, services.ErrNoValidRecords):
		return apperrors.NoValidRecords(err)
	case errors.As(err, &sizeErr):
		return apperrors.PayloadTooLarge(sizeErr.Limit)
	case errors.As(err, &parseErr):
		return apperrors.BadRequestWrap(err, "Malformed CSV").WithDetails(parseErr.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Cancelled(err)
	default:
		return apperrors.InternalWrap(err, "An unexpected error occurred")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	apperrors.WriteError(w, r, logger, err, observability.GetRequestID(r.Context()))
}

// parseLimit reads ?limit=, defaulting to and capped at ceiling.
func parseLimit(r *http.Request, ceiling int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return ceiling, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.BadRequest("limit must be a positive integer")
	}
	return min(n, ceiling), nil
}

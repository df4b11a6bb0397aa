package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type ErrorCode string

const (
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeValidation      ErrorCode = "VALIDATION_ERROR"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeBadRequest      ErrorCode = "BAD_REQUEST"
	CodeNoDataset       ErrorCode = "NO_DATASET"
	CodeUnprocessable   ErrorCode = "UNPROCESSABLE"
	CodePayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeRateLimit       ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail  ErrorCode = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[ErrorCode]int{
	CodeValidation:      http.StatusBadRequest,
	CodeBadRequest:      http.StatusBadRequest,
	CodeNotFound:        http.StatusNotFound,
	CodeNoDataset:       http.StatusConflict,
	CodeUnprocessable:   http.StatusUnprocessableEntity,
	CodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	CodeRateLimit:       http.StatusTooManyRequests,
	CodeServiceUnavail:  http.StatusServiceUnavailable,
}

// AppError is the JSON error envelope returned by every API endpoint.
// Missing lists absent CSV columns when an upload is rejected for them.
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Missing    []string  `json:"missing,omitempty"`
	StatusCode int       `json:"-"`
	Cause      error     `json:"-"`
	Timestamp  time.Time `json:"timestamp"`
	RequestID  string    `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func New(code ErrorCode, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Timestamp:  time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	e := New(code, message)
	e.Cause = err
	return e
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func InternalWrap(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func BadRequestWrap(err error, message string) *AppError {
	return Wrap(err, CodeBadRequest, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

// Upload and session errors.

func NoDataset() *AppError {
	return New(CodeNoDataset, "No dataset loaded. Upload a CSV file first.")
}

// EmptyFile is a file with no data rows after the header.
func EmptyFile(err error) *AppError {
	return Wrap(err, CodeValidation, "File is empty or invalid format")
}

// MissingColumns rejects a header that lacks required columns and lists them.
func MissingColumns(err error, missing []string) *AppError {
	e := Wrap(err, CodeUnprocessable, "Missing required columns")
	if len(missing) > 0 {
		e.Message += ": " + strings.Join(missing, ", ")
	}
	e.Missing = missing
	return e
}

// NoValidRecords is an upload where every row failed admission.
func NoValidRecords(err error) *AppError {
	return Wrap(err, CodeUnprocessable, "No valid records found. Each row needs an order id and positive sales.")
}

func PayloadTooLarge(limit int64) *AppError {
	return New(CodePayloadTooLarge, fmt.Sprintf("File exceeds the %d MB upload limit", limit>>20))
}

// Cancelled is work abandoned because the client went away or timed out.
func Cancelled(err error) *AppError {
	return Wrap(err, CodeServiceUnavail, "Request cancelled before processing finished")
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

// WriteError renders err as a JSON envelope. Errors that are not an
// *AppError anywhere in their chain become a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = InternalWrap(err, "An unexpected error occurred")
	}
	appErr.RequestID = requestID

	if encodeErr := writeJSON(w, appErr.StatusCode, ErrorResponse{Error: appErr}); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	level := slog.LevelError
	if appErr.StatusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}

	attrs := []any{
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"path", r.URL.Path,
		"request_id", requestID,
	}
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause)
	}
	if len(appErr.Missing) > 0 {
		attrs = append(attrs, "missing_columns", appErr.Missing)
	}
	logger.Log(r.Context(), level, "request failed", attrs...)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessWithHeaders(w, data, nil)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Data: data, Success: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

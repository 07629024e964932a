// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"yieldwallet/internal/api/types"
	"yieldwallet/internal/util"
)

// DefaultTimeout bounds how long a single request may run.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps request bodies; every payload here is a handful of fields.
const maxBodyBytes = 1 << 16

func respondWithJSON(w http.ResponseWriter, logger *zap.Logger, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal JSON response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps a failure kind to a status code. Storage failures and
// anything unclassified are logged and reported without detail.
func respondWithError(w http.ResponseWriter, logger *zap.Logger, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		message = err.Error()
	case util.IsError(err, util.ErrInsufficientBalance):
		statusCode = http.StatusPaymentRequired
		message = "Insufficient balance"
	case util.IsError(err, util.ErrAlreadyClaimed):
		statusCode = http.StatusConflict
		message = "Check-in bonus already claimed today"
	case util.IsError(err, util.ErrPlanInactive):
		statusCode = http.StatusConflict
		message = "Investment plan is not active"
	case util.IsError(err, util.ErrInvalidState):
		statusCode = http.StatusConflict
		message = err.Error()
	case util.IsError(err, util.ErrConflict):
		statusCode = http.StatusConflict
		message = "Concurrent update, please retry"
	default:
		logger.Error("Unhandled service error", zap.Error(err))
	}

	respondWithJSON(w, logger, statusCode, types.Fail(message))
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return util.ErrInvalidInput
	}
	return nil
}

// idParam parses a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrInvalidInput
	}
	return id, nil
}

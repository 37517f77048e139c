package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/store"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeStoreError maps store errors onto the API error envelope. Storage
// failures are logged with the request context and reported without their
// cause.
func (h *Handler) writeStoreError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		types.NewNotFoundError("User not found", "user_id", types.CodeUserNotFound).Write(w)
	case errors.Is(err, store.ErrInvalidInput):
		types.NewInvalidRequestError(err.Error(), "", types.CodeInvalidValue).Write(w)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.WarnContext(r.Context(), "request deadline exceeded", "operation", op)
		types.NewGatewayTimeoutError("Request timeout: the request took too long to complete").Write(w)
	default:
		h.logger.ErrorContext(r.Context(), "storage operation failed", "operation", op, "error", err)
		types.NewServerError("An internal error occurred. Please try again later.").Write(w)
	}
}

package api

import (
	"net/http"

	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/store"
	"creotrail/validator/pkg/telemetry/logging"
)

type markRequest struct {
	UserID      int64  `json:"user_id"`
	CommandID   int64  `json:"command_id"`
	CommandText string `json:"command_text"`
}

type updateLastCmdRequest struct {
	UserID    int64 `json:"user_id"`
	LastCmdID int64 `json:"last_cmd_id"`
}

type lastCmdResponse struct {
	LastCmdID int64 `json:"last_cmd_id"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) mark(c store.Classification) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req markRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.UserID <= 0 {
			types.NewInvalidRequestError("user_id is required", "user_id", types.CodeMissingField).Write(w)
			return
		}

		ctx := logging.WithUserID(r.Context(), req.UserID)
		if err := h.store.MarkCommand(ctx, req.UserID, req.CommandID, req.CommandText, c); err != nil {
			h.writeStoreError(w, r.WithContext(ctx), "mark_"+string(c), err)
			return
		}

		h.metrics.RecordClassification(string(c))
		h.logger.DebugContext(ctx, "command classified", "command_id", req.CommandID, "classification", c)
		writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
	}
}

func (h *Handler) lastCmd(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	id, err := h.store.LastProcessed(r.Context(), userID)
	if err != nil {
		h.writeStoreError(w, r, "last_cmd", err)
		return
	}
	writeJSON(w, http.StatusOK, lastCmdResponse{LastCmdID: id})
}

func (h *Handler) updateLastCmd(w http.ResponseWriter, r *http.Request) {
	var req updateLastCmdRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.UpdateLastProcessed(r.Context(), req.UserID, req.LastCmdID); err != nil {
		h.writeStoreError(w, r, "update_last_cmd", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

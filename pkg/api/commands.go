package api

import (
	"net/http"

	"creotrail/validator/pkg/store"
)

func (h *Handler) commands(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.CommandsWithContexts(r.Context())
	if err != nil {
		h.writeStoreError(w, r, "commands", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func (h *Handler) contexts(w http.ResponseWriter, r *http.Request) {
	commandID, ok := pathID(w, r, "command_id")
	if !ok {
		return
	}
	rows, err := h.store.ContextsForCommand(r.Context(), commandID)
	if err != nil {
		h.writeStoreError(w, r, "contexts", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(rows))
}

func nonNil(rows []store.CorpusRow) []store.CorpusRow {
	if rows == nil {
		return []store.CorpusRow{}
	}
	return rows
}

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/export"
	"creotrail/validator/pkg/store"
)

// history serves GET /history/{user_id}?start&end&cmd_id&type&format.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}

	q := r.URL.Query()
	filter, param, err := parseHistoryFilter(q.Get("start"), q.Get("end"), q.Get("cmd_id"), q.Get("type"))
	if err != nil {
		types.NewInvalidRequestError(err.Error(), param, types.CodeInvalidValue).Write(w)
		return
	}

	exp, err := export.ForFormat(q.Get("format"), h.opts.CSVHeader)
	if err != nil {
		types.NewInvalidRequestError(err.Error(), "format", types.CodeInvalidValue).Write(w)
		return
	}

	entries, err := h.store.History(r.Context(), userID, filter)
	if err != nil {
		h.writeStoreError(w, r, "history", err)
		return
	}
	h.metrics.RecordHistoryQuery(h.opts.Layout, exp.Format(), len(entries))

	w.Header().Set("Content-Type", exp.ContentType())
	if exp.Format() == export.FormatCSV {
		w.Header().Set("Content-Disposition", `attachment; filename="history_user_`+strconv.FormatInt(userID, 10)+`.csv"`)
	}
	w.WriteHeader(http.StatusOK)
	if err := exp.Export(r.Context(), entries, w); err != nil {
		h.logger.WarnContext(r.Context(), "history export interrupted", "error", err)
	}
}

// parseHistoryFilter builds a filter from query values. On failure it also
// returns the name of the offending parameter.
func parseHistoryFilter(start, end, cmdID, action string) (store.HistoryFilter, string, error) {
	var f store.HistoryFilter
	var err error

	if f.Start, err = parseBound(start, false); err != nil {
		return f, "start", err
	}
	if f.End, err = parseBound(end, true); err != nil {
		return f, "end", err
	}
	if cmdID = strings.TrimSpace(cmdID); cmdID != "" {
		id, err := strconv.ParseInt(cmdID, 10, 64)
		if err != nil {
			return f, "cmd_id", errors.New("cmd_id must be an integer")
		}
		f.CommandID = &id
	}
	if f.Action, err = store.ParseActionFilter(action); err != nil {
		return f, "type", err
	}
	if err := f.Validate(); err != nil {
		return f, "end", err
	}
	return f, "", nil
}

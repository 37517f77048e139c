package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"creotrail/validator/pkg/api/types"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a JSON body into v. It writes the 400 response itself
// and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Request body must be valid JSON"
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			types.NewInvalidRequestError(fmt.Sprintf("Field %q has the wrong type", typeErr.Field), typeErr.Field, types.CodeInvalidValue).Write(w)
			return false
		}
		types.NewInvalidRequestError(msg, "", types.CodeInvalidJSON).Write(w)
		return false
	}
	return true
}

// pathID parses an integer path variable, writing a 400 when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		types.NewInvalidRequestError(fmt.Sprintf("%s must be an integer", name), name, types.CodeInvalidValue).Write(w)
		return 0, false
	}
	return id, true
}

// Accepted timestamp layouts for history bounds, tried in order. Naive
// layouts are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

const dateOnly = "2006-01-02"

// parseBound parses a history start or end bound. A date without a time
// selects the whole day: midnight for a start, the last nanosecond of the
// day for an end.
func parseBound(raw string, end bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		if end {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("unrecognized timestamp %q", raw)
}

// Package handler implements the dashboard HTTP endpoints.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Gourav2004/Polygon-Arbitrage-Opportunity-Detector-Bot/internal/domain"
)

// defaultListLimit applies when the request does not pin a limit. An explicit
// limit=0 asks for every row.
const defaultListLimit = 100

// writeJSON marshals v and writes it with the given status. A marshal
// failure degrades to a plain 500 envelope.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError sends a JSON error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseListOpts reads ?limit=, ?offset= and ?since= from the query string.
// since accepts RFC 3339; a malformed value is reported to the caller rather
// than silently ignored.
func parseListOpts(r *http.Request) (domain.ListOpts, error) {
	q := r.URL.Query()
	opts := domain.ListOpts{Limit: defaultListLimit}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badParamError{"limit", v}
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, badParamError{"offset", v}
		}
		opts.Offset = n
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, badParamError{"since", v}
		}
		opts.Since = t
	}
	return opts, nil
}

type badParamError struct {
	name  string
	value string
}

func (e badParamError) Error() string {
	return "invalid " + e.name + " parameter: " + strconv.Quote(e.value)
}

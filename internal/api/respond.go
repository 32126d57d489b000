package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/taskflow/internal/labor"
	"github.com/sadopc/taskflow/internal/logx"
	"github.com/sadopc/taskflow/internal/store"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks errors caused by the client's input.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

type errorBody struct {
	Detail string `json:"detail"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, store.ErrInvalidReference),
		errors.Is(err, labor.ErrInvalidWindow),
		errors.Is(err, labor.ErrInvalidPolicy),
		errors.Is(err, labor.ErrMalformedTask):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			logx.String("request_id", RequestID(r.Context())),
			logx.String("path", r.URL.Path),
			logx.Err(err),
		)
		detail = "internal server error"
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", raw)
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, badRequest("invalid %s %q", key, raw)
	}
	return &id, nil
}

func requireQueryID(r *http.Request, key string) (int64, error) {
	id, err := queryID(r, key)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, badRequest("%s is required", key)
	}
	return *id, nil
}

func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	d, err := parseDate(raw)
	if err != nil {
		return nil, badRequest("%s: %v", key, err)
	}
	return &d, nil
}

func queryLimit(r *http.Request, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("invalid limit %q", raw)
	}
	return n, nil
}

// window reads start_date and end_date and fills in whichever is missing.
func (s *Server) window(r *http.Request) (time.Time, time.Time, error) {
	from, err := queryDate(r, "start_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(r, "end_date")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s.analytics.Window(from, to)
}

// policy parses a policy name; empty selects the configured default.
func (s *Server) policy(raw string) (labor.Policy, error) {
	if strings.TrimSpace(raw) == "" {
		return s.analytics.DefaultPolicy(), nil
	}
	return labor.ParsePolicy(raw)
}

// Package query serves delivered event summaries over HTTP.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"trailview/internal/sink"
	"trailview/pkg/platform/httputil"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Reader defines the sink reads the query API needs.
type Reader interface {
	Get(ctx context.Context, eventID uuid.UUID) (sink.Summary, error)
	ListRecent(ctx context.Context, limit int) ([]sink.Summary, error)
}

// Handler wires event endpoints to a sink reader.
type Handler struct {
	reader Reader
	logger *slog.Logger
}

// New constructs a query handler with its dependencies.
func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// Register mounts event endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/events", h.HandleList)
	r.Get("/events/{id}", h.HandleGet)
}

// EventResponse is the wire form of a delivered event.
type EventResponse struct {
	EventID        string          `json:"event_id"`
	EventTime      string          `json:"event_time,omitempty"`
	EventName      string          `json:"event_name,omitempty"`
	EventSource    string          `json:"event_source,omitempty"`
	AWSRegion      string          `json:"aws_region,omitempty"`
	SourceIP       string          `json:"source_ip,omitempty"`
	UserAgent      string          `json:"user_agent,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	ReadOnly       bool            `json:"read_only"`
	AccountID      string          `json:"account_id,omitempty"`
	ActorType      string          `json:"actor_type,omitempty"`
	ActorARN       string          `json:"actor_arn,omitempty"`
	ActorUserName  string          `json:"actor_user_name,omitempty"`
	ActorAccountID string          `json:"actor_account_id,omitempty"`
	ResourceARNs   []string        `json:"resource_arns"`
	UnknownFields  []string        `json:"unknown_fields,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

// ListResponse wraps a page of recent events.
type ListResponse struct {
	Events []EventResponse `json:"events"`
	Count  int             `json:"count"`
}

// FromSummary maps a sink summary onto its wire form. The raw document is
// only attached when withRaw is set.
func FromSummary(s sink.Summary, withRaw bool) EventResponse {
	resp := EventResponse{
		EventID:        s.EventID.String(),
		EventName:      s.EventName,
		EventSource:    s.EventSource,
		AWSRegion:      s.AWSRegion,
		SourceIP:       s.SourceIP,
		UserAgent:      s.UserAgent,
		ErrorCode:      s.ErrorCode,
		ReadOnly:       s.ReadOnly,
		AccountID:      s.AccountID,
		ActorType:      s.ActorType,
		ActorARN:       s.ActorARN,
		ActorUserName:  s.ActorUserName,
		ActorAccountID: s.ActorAccountID,
		ResourceARNs:   s.ResourceARNs,
		UnknownFields:  s.UnknownFields,
	}
	if resp.ResourceARNs == nil {
		resp.ResourceARNs = []string{}
	}
	if !s.EventTime.IsZero() {
		resp.EventTime = s.EventTime.UTC().Format(time.RFC3339)
	}
	if withRaw && len(s.Raw) > 0 {
		resp.Raw = s.Raw
	}
	return resp
}

// HandleGet handles GET /events/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimw.GetReqID(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, fmt.Errorf("%w: event id must be a UUID", httputil.ErrBadRequest))
		return
	}

	summary, err := h.reader.Get(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "event lookup failed",
			"request_id", requestID,
			"event_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromSummary(summary, true))
}

// HandleList handles GET /events?limit=N requests, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chimw.GetReqID(ctx)

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	summaries, err := h.reader.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing events failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Events: make([]EventResponse, 0, len(summaries)), Count: len(summaries)}
	for _, s := range summaries {
		resp.Events = append(resp.Events, FromSummary(s, false))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", httputil.ErrBadRequest)
	}
	return min(n, maxLimit), nil
}

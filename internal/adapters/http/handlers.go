package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/application"
)

// getMyHints is the only user-facing reputation endpoint. The response shape
// is domain.AdvisoryHints: two booleans, nothing numeric.
func (h *Handler) getMyHints(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	hints, err := h.service.GetAdvisoryHints(r.Context(), actor)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, hints)
}

func (h *Handler) checkEligibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user_id")
		return
	}
	resp, err := h.service.CheckEligibility(r.Context(), actor, userID, chi.URLParam(r, "feature"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

type adjustRankingRequest struct {
	UserID    string  `json:"user_id"`
	Context   string  `json:"context"`
	BaseScore float64 `json:"base_score"`
}

func (h *Handler) adjustRanking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	var req adjustRankingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	userID, err := uuid.Parse(strings.TrimSpace(req.UserID))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user_id")
		return
	}
	resp, err := h.service.AdjustRanking(r.Context(), actor, application.AdjustRankingInput{
		UserID:    userID,
		Context:   strings.TrimSpace(req.Context),
		BaseScore: req.BaseScore,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) adminGetReputation(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
		return
	}
	userID, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid user_id")
		return
	}
	resp, err := h.service.GetAdminReputation(r.Context(), actor, userID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

type moderationEventRequest struct {
	EventID          string `json:"event_id"`
	EventType        string `json:"event_type"`
	OccurredAt       string `json:"occurred_at"`
	SourceService    string `json:"source_service"`
	TraceID          string `json:"trace_id"`
	SchemaVersion    string `json:"schema_version"`
	PartitionKeyPath string `json:"partition_key_path"`
	PartitionKey     string `json:"partition_key"`
	Data             struct {
		UserID  string `json:"user_id"`
		Counter string `json:"counter"`
		Delta   int64  `json:"delta"`
	} `json:"data"`
}

func (h *Handler) handleModerationEvent(w http.ResponseWriter, r *http.Request) {
	var req moderationEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}
	bearer := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(bearer), "bearer ") {
		bearer = strings.TrimSpace(bearer[7:])
	}
	result, err := h.service.RecordModerationEvent(r.Context(), bearer, application.ModerationEventInput{
		EventID:          strings.TrimSpace(req.EventID),
		EventType:        strings.TrimSpace(req.EventType),
		OccurredAt:       strings.TrimSpace(req.OccurredAt),
		SourceService:    strings.TrimSpace(req.SourceService),
		TraceID:          strings.TrimSpace(req.TraceID),
		SchemaVersion:    strings.TrimSpace(req.SchemaVersion),
		PartitionKeyPath: strings.TrimSpace(req.PartitionKeyPath),
		PartitionKey:     strings.TrimSpace(req.PartitionKey),
		UserID:           strings.TrimSpace(req.Data.UserID),
		Counter:          strings.TrimSpace(req.Data.Counter),
		Delta:            req.Data.Delta,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusAccepted, result)
}

func actorFromRequest(r *http.Request) (application.Actor, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok || claims.UserID == uuid.Nil {
		return application.Actor{}, false
	}
	return application.Actor{
		UserID: claims.UserID,
		Role:   claims.Role,
	}, true
}

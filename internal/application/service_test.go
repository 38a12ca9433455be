package application

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/ports"
)

type memCounters struct {
	mu   sync.Mutex
	rows map[uuid.UUID]map[string]int64
}

func newMemCounters() *memCounters {
	return &memCounters{rows: map[uuid.UUID]map[string]int64{}}
}

func (m *memCounters) Increment(_ context.Context, userID uuid.UUID, counter string, delta int64, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows[userID] == nil {
		m.rows[userID] = map[string]int64{}
	}
	m.rows[userID][counter] += delta
	return nil
}

func (m *memCounters) GetByUserID(_ context.Context, userID uuid.UUID) (domain.CounterSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[userID]
	if !ok {
		return domain.CounterSnapshot{}, domain.ErrNotFound
	}
	counters := make(map[string]int64, len(row))
	for k, v := range row {
		counters[k] = v
	}
	return domain.CounterSnapshot{UserID: userID, Counters: counters}, nil
}

type memAudits struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]domain.ScoreAudit
}

func newMemAudits() *memAudits {
	return &memAudits{rows: map[uuid.UUID][]domain.ScoreAudit{}}
}

func (m *memAudits) Append(_ context.Context, row domain.ScoreAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.UserID] = append(m.rows[row.UserID], row)
	return nil
}

func (m *memAudits) Latest(_ context.Context, userID uuid.UUID) (domain.ScoreAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[userID]
	if len(rows) == 0 {
		return domain.ScoreAudit{}, domain.ErrNotFound
	}
	return rows[len(rows)-1], nil
}

func (m *memAudits) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.ScoreAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[userID]
	out := make([]domain.ScoreAudit, 0, limit)
	for i := len(rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, rows[i])
	}
	return out, nil
}

type memOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (m *memOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memOutbox) FetchUnpublished(_ context.Context, _ int) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (m *memOutbox) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (m *memOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (m *memOutbox) byType(eventType string) []ports.OutboxEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ports.OutboxEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

type memDedup struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

func newMemDedup() *memDedup {
	return &memDedup{seen: map[string]time.Time{}}
}

func (m *memDedup) IsDuplicate(_ context.Context, eventID string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expires, ok := m.seen[eventID]
	return ok && now.Before(expires), nil
}

func (m *memDedup) MarkProcessed(_ context.Context, eventID, _ string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[eventID] = expiresAt
	return nil
}

type memIdempotency struct {
	mu   sync.Mutex
	rows map[string]*ports.IdempotencyRecord
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{rows: map[string]*ports.IdempotencyRecord{}}
}

func (m *memIdempotency) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[key]
	if !ok || now.After(rec.ExpiresAt) {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (m *memIdempotency) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[key]; ok {
		return domain.ErrIdempotencyConflict
	}
	m.rows[key] = &ports.IdempotencyRecord{Key: key, RequestHash: requestHash, Status: "pending", ExpiresAt: expiresAt}
	return nil
}

func (m *memIdempotency) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[key]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = "completed"
	rec.ResponseCode = responseCode
	rec.ResponseBody = responseBody
	return nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

type testHarness struct {
	svc      *Service
	counters *memCounters
	audits   *memAudits
	outbox   *memOutbox
	cache    *memCache
}

func newTestService() testHarness {
	counters := newMemCounters()
	audits := newMemAudits()
	outbox := &memOutbox{}
	cache := newMemCache()
	svc := NewService(Dependencies{
		Config:      Config{WebhookBearerToken: "test-secret"},
		Counters:    counters,
		Audits:      audits,
		Outbox:      outbox,
		EventDedup:  newMemDedup(),
		Idempotency: newMemIdempotency(),
		Cache:       cache,
	})
	return testHarness{svc: svc, counters: counters, audits: audits, outbox: outbox, cache: cache}
}

func moderationEvent(userID uuid.UUID, counter string, delta int64, eventID string) ModerationEventInput {
	return ModerationEventInput{
		EventID:          eventID,
		EventType:        "moderation.report_filed",
		OccurredAt:       "2026-03-01T12:00:00Z",
		SourceService:    "moderation-service",
		TraceID:          "trace-1",
		SchemaVersion:    "v1",
		PartitionKeyPath: "data.user_id",
		PartitionKey:     userID.String(),
		UserID:           userID.String(),
		Counter:          counter,
		Delta:            delta,
	}
}

func TestRecordModerationEventAppliesIncrement(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	result, err := h.svc.RecordModerationEvent(context.Background(), "test-secret",
		moderationEvent(userID, domain.CounterReportsReceived, 5, "evt-1"))
	if err != nil {
		t.Fatalf("RecordModerationEvent error: %v", err)
	}
	if accepted, _ := result["accepted"].(bool); !accepted {
		t.Fatalf("expected accepted result, got %v", result)
	}

	view, err := h.svc.GetAdminReputation(context.Background(), Actor{UserID: uuid.New(), Role: "admin"}, userID)
	if err != nil {
		t.Fatalf("GetAdminReputation error: %v", err)
	}
	if view.Counters[domain.CounterReportsReceived] != 5 {
		t.Fatalf("expected 5 reports in projection, got %d", view.Counters[domain.CounterReportsReceived])
	}
	if view.Score != 65 {
		t.Fatalf("expected score 65 after 5 reports, got %d", view.Score)
	}
	if len(view.Flags) != 1 || view.Flags[0] != string(domain.FlagScamSuspect) {
		t.Fatalf("expected SCAM_SUSPECT flag, got %v", view.Flags)
	}
}

func TestRecordModerationEventIdempotentReplay(t *testing.T) {
	h := newTestService()
	userID := uuid.New()
	input := moderationEvent(userID, domain.CounterReportsReceived, 2, "evt-replay")

	first, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", input)
	if err != nil {
		t.Fatalf("first call error: %v", err)
	}
	if dup, _ := first["duplicate"].(bool); dup {
		t.Fatalf("first call must not be a duplicate")
	}

	second, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", input)
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if dup, _ := second["duplicate"].(bool); !dup {
		t.Fatalf("replay must be flagged duplicate")
	}

	snapshot, err := h.counters.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetByUserID error: %v", err)
	}
	if snapshot.Get(domain.CounterReportsReceived) != 2 {
		t.Fatalf("replay must not re-apply the increment, counter is %d", snapshot.Get(domain.CounterReportsReceived))
	}
}

func TestRecordModerationEventIdempotencyConflict(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret",
		moderationEvent(userID, domain.CounterReportsReceived, 1, "evt-conflict")); err != nil {
		t.Fatalf("first call error: %v", err)
	}

	changed := moderationEvent(userID, domain.CounterBlocksReceived, 3, "evt-conflict")
	_, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", changed)
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected ErrIdempotencyConflict for reused event_id with new payload, got %v", err)
	}
}

func TestRecordModerationEventValidation(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	if _, err := h.svc.RecordModerationEvent(context.Background(), "wrong-secret",
		moderationEvent(userID, domain.CounterReportsReceived, 1, "evt-a")); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for bad bearer, got %v", err)
	}

	missing := moderationEvent(userID, domain.CounterReportsReceived, 1, "")
	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", missing); !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected ErrIdempotencyRequired without event_id, got %v", err)
	}

	badEnvelope := moderationEvent(userID, domain.CounterReportsReceived, 1, "evt-b")
	badEnvelope.SourceService = ""
	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", badEnvelope); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope without source_service, got %v", err)
	}

	badPartition := moderationEvent(userID, domain.CounterReportsReceived, 1, "evt-c")
	badPartition.PartitionKey = uuid.NewString()
	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", badPartition); !errors.Is(err, domain.ErrInvalidEnvelope) {
		t.Fatalf("expected ErrInvalidEnvelope for partition key mismatch, got %v", err)
	}

	unknown := moderationEvent(userID, "likes_received", 1, "evt-d")
	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret", unknown); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown counter, got %v", err)
	}
}

func TestHandleCounterEventDedup(t *testing.T) {
	h := newTestService()
	userID := uuid.New()
	payload, _ := json.Marshal(map[string]any{
		"event_id":    "bus-evt-1",
		"user_id":     userID.String(),
		"delta":       1,
		"occurred_at": "2026-03-01T12:00:00Z",
	})

	for i := 0; i < 3; i++ {
		if err := h.svc.HandleCounterEvent(context.Background(), TopicUserBlocked, payload); err != nil {
			t.Fatalf("delivery %d error: %v", i, err)
		}
	}

	snapshot, err := h.counters.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetByUserID error: %v", err)
	}
	if snapshot.Get(domain.CounterBlocksReceived) != 1 {
		t.Fatalf("redelivered event must count once, got %d", snapshot.Get(domain.CounterBlocksReceived))
	}
}

func TestHandleCounterEventUnknownTopic(t *testing.T) {
	h := newTestService()
	err := h.svc.HandleCounterEvent(context.Background(), "billing.invoice_paid", []byte(`{"user_id":"x"}`))
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unmapped topic, got %v", err)
	}
}

func TestCheckEligibility(t *testing.T) {
	h := newTestService()
	userID := uuid.New()
	service := Actor{UserID: uuid.New(), Role: "service"}

	resp, err := h.svc.CheckEligibility(context.Background(), service, userID, domain.GateEarnMode)
	if err != nil {
		t.Fatalf("CheckEligibility error: %v", err)
	}
	if !resp.Eligible {
		t.Fatalf("user with no history must be eligible for earn mode")
	}

	for i := 0; i < 10; i++ {
		payload, _ := json.Marshal(map[string]any{"event_id": uuid.NewString(), "user_id": userID.String()})
		if err := h.svc.HandleCounterEvent(context.Background(), TopicSessionGhosted, payload); err != nil {
			t.Fatalf("HandleCounterEvent error: %v", err)
		}
	}
	resp, err = h.svc.CheckEligibility(context.Background(), service, userID, domain.GateEarnMode)
	if err != nil {
		t.Fatalf("CheckEligibility error: %v", err)
	}
	if resp.Eligible {
		t.Fatalf("ghosting earner must be denied earn mode")
	}

	if _, err := h.svc.CheckEligibility(context.Background(), Actor{UserID: uuid.New(), Role: "user"}, userID, domain.GateEarnMode); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for end-user role, got %v", err)
	}
	if _, err := h.svc.CheckEligibility(context.Background(), service, userID, "super_boost"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown feature, got %v", err)
	}
}

func TestAdjustRanking(t *testing.T) {
	h := newTestService()
	userID := uuid.New()
	service := Actor{UserID: uuid.New(), Role: "service"}

	resp, err := h.svc.AdjustRanking(context.Background(), service, AdjustRankingInput{
		UserID: userID, Context: domain.ContextDiscovery, BaseScore: 100,
	})
	if err != nil {
		t.Fatalf("AdjustRanking error: %v", err)
	}
	if resp.EffectiveScore != 150 {
		t.Fatalf("expected 100 x 1.5 for a fresh user in discovery, got %v", resp.EffectiveScore)
	}

	if _, err := h.svc.AdjustRanking(context.Background(), service, AdjustRankingInput{
		UserID: userID, Context: "leaderboard", BaseScore: 10,
	}); !errors.Is(err, domain.ErrUnknownContext) {
		t.Fatalf("expected ErrUnknownContext, got %v", err)
	}

	if _, err := h.svc.AdjustRanking(context.Background(), service, AdjustRankingInput{
		UserID: userID, Context: domain.ContextDiscovery, BaseScore: -1,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative base score, got %v", err)
	}

	if _, err := h.svc.AdjustRanking(context.Background(), Actor{UserID: uuid.New(), Role: "user"}, AdjustRankingInput{
		UserID: userID, Context: domain.ContextDiscovery, BaseScore: 10,
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for end-user role, got %v", err)
	}
}

func TestGetAdvisoryHints(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	hints, err := h.svc.GetAdvisoryHints(context.Background(), Actor{UserID: userID, Role: "user"})
	if err != nil {
		t.Fatalf("GetAdvisoryHints error: %v", err)
	}
	if !hints.ShowPositiveHint || hints.ShowRiskWarning {
		t.Fatalf("fresh user: expected positive hint only, got %+v", hints)
	}

	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret",
		moderationEvent(userID, domain.CounterReportsReceived, 14, "evt-hints")); err != nil {
		t.Fatalf("RecordModerationEvent error: %v", err)
	}
	hints, err = h.svc.GetAdvisoryHints(context.Background(), Actor{UserID: userID, Role: "user"})
	if err != nil {
		t.Fatalf("GetAdvisoryHints error: %v", err)
	}
	if hints.ShowPositiveHint || !hints.ShowRiskWarning {
		t.Fatalf("heavily reported user: expected risk warning only, got %+v", hints)
	}

	if _, err := h.svc.GetAdvisoryHints(context.Background(), Actor{}); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without a subject, got %v", err)
	}
}

func TestOutboxEventsOnFlagAndTierChange(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret",
		moderationEvent(userID, domain.CounterReportsReceived, 14, "evt-outbox")); err != nil {
		t.Fatalf("RecordModerationEvent error: %v", err)
	}

	raised := h.outbox.byType(EventTypeFlagRaised)
	if len(raised) != 1 {
		t.Fatalf("expected one flag_raised event, got %d", len(raised))
	}
	var flagPayload struct {
		UserID string `json:"user_id"`
		Flag   string `json:"flag"`
	}
	if err := json.Unmarshal(raised[0].Payload, &flagPayload); err != nil {
		t.Fatalf("decode flag_raised payload: %v", err)
	}
	if flagPayload.Flag != string(domain.FlagScamSuspect) || flagPayload.UserID != userID.String() {
		t.Fatalf("unexpected flag_raised payload: %+v", flagPayload)
	}

	changed := h.outbox.byType(EventTypeTierChanged)
	if len(changed) == 0 {
		t.Fatalf("expected a score_tier_changed event for the first recorded evaluation")
	}
	if changed[0].PartitionKey != userID.String() {
		t.Fatalf("tier event must partition by user, got %q", changed[0].PartitionKey)
	}
}

func TestGhostingFlagRaisesNoRiskEvent(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	if _, err := h.svc.RecordModerationEvent(context.Background(), "test-secret",
		moderationEvent(userID, domain.CounterGhostingSessions, 10, "evt-ghost")); err != nil {
		t.Fatalf("RecordModerationEvent error: %v", err)
	}
	if raised := h.outbox.byType(EventTypeFlagRaised); len(raised) != 0 {
		t.Fatalf("GHOSTING_EARNER is not a risk flag and must not emit flag_raised, got %d events", len(raised))
	}
	if changed := h.outbox.byType(EventTypeTierChanged); len(changed) == 0 {
		t.Fatalf("expected a score_tier_changed event to be recorded")
	}
}

func TestSnapshotServedFromCache(t *testing.T) {
	h := newTestService()
	userID := uuid.New()

	counters, _ := json.Marshal(map[string]int64{domain.CounterReportsReceived: 14})
	if err := h.cache.Set(context.Background(), "reputation:counters:"+userID.String(), string(counters), 0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	hints, err := h.svc.GetAdvisoryHints(context.Background(), Actor{UserID: userID, Role: "user"})
	if err != nil {
		t.Fatalf("GetAdvisoryHints error: %v", err)
	}
	if !hints.ShowRiskWarning {
		t.Fatalf("expected evaluation over cached counters to warn, got %+v", hints)
	}
}

func TestAdminReputationRequiresModeratorRole(t *testing.T) {
	h := newTestService()
	if _, err := h.svc.GetAdminReputation(context.Background(), Actor{UserID: uuid.New(), Role: "user"}, uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := h.svc.GetAdminReputation(context.Background(), Actor{UserID: uuid.New(), Role: "moderator"}, uuid.New()); err != nil {
		t.Fatalf("moderator must read the admin view: %v", err)
	}
}

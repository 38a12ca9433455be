package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

// Kafka topics carrying counter increments from the producing subsystems.
const (
	TopicReportFiled         = "moderation.report_filed"
	TopicUserBlocked         = "moderation.user_blocked"
	TopicSpamFlagged         = "moderation.spam_flagged"
	TopicSessionGhosted      = "chat.session_ghosted"
	TopicPositiveInteraction = "engagement.positive_interaction"
	TopicMeetingCheckin      = "meeting.checkin_confirmed"
)

// CounterForTopic maps an inbound topic to the counter it increments.
func CounterForTopic(topic string) (string, bool) {
	switch topic {
	case TopicReportFiled:
		return domain.CounterReportsReceived, true
	case TopicUserBlocked:
		return domain.CounterBlocksReceived, true
	case TopicSpamFlagged:
		return domain.CounterSpamFlags, true
	case TopicSessionGhosted:
		return domain.CounterGhostingSessions, true
	case TopicPositiveInteraction:
		return domain.CounterPositiveInteractions, true
	case TopicMeetingCheckin:
		return domain.CounterMeetingsAttended, true
	default:
		return "", false
	}
}

type counterEventPayload struct {
	EventID    string `json:"event_id"`
	UserID     string `json:"user_id"`
	Delta      int64  `json:"delta"`
	OccurredAt string `json:"occurred_at"`
}

// HandleCounterEvent applies one bus message to the projection. Redelivery is
// expected; the dedup store makes the increment effectively once.
func (s *Service) HandleCounterEvent(ctx context.Context, topic string, payload []byte) error {
	counter, ok := CounterForTopic(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", domain.ErrInvalidInput, topic)
	}
	var event counterEventPayload
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	userID, err := uuid.Parse(strings.TrimSpace(event.UserID))
	if err != nil {
		return fmt.Errorf("%w: user_id", domain.ErrInvalidInput)
	}
	delta := event.Delta
	if delta <= 0 {
		delta = 1
	}
	now := s.nowFn()
	if s.eventDedup != nil && strings.TrimSpace(event.EventID) != "" {
		dup, err := s.eventDedup.IsDuplicate(ctx, event.EventID, now)
		if err != nil {
			return err
		}
		if dup {
			return nil
		}
	}
	if err := s.applyIncrement(ctx, userID, counter, delta, now); err != nil {
		return err
	}
	if s.eventDedup != nil && strings.TrimSpace(event.EventID) != "" {
		_ = s.eventDedup.MarkProcessed(ctx, event.EventID, topic, now.Add(s.cfg.EventDedupTTL))
	}
	return nil
}

// RecordModerationEvent is the HTTP intake for producers not on the bus. It
// enforces the platform event envelope, bearer auth, idempotency, and dedup,
// then applies the same increment path as the consumer.
func (s *Service) RecordModerationEvent(ctx context.Context, bearerToken string, input ModerationEventInput) (map[string]any, error) {
	if strings.TrimSpace(bearerToken) != s.cfg.WebhookBearerToken || s.cfg.WebhookBearerToken == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(input.EventID) == "" {
		return nil, domain.ErrIdempotencyRequired
	}
	if strings.TrimSpace(input.UserID) == "" || strings.TrimSpace(input.Counter) == "" {
		return nil, domain.ErrInvalidInput
	}
	if strings.TrimSpace(input.EventType) == "" || strings.TrimSpace(input.SourceService) == "" ||
		strings.TrimSpace(input.TraceID) == "" || strings.TrimSpace(input.SchemaVersion) == "" {
		return nil, domain.ErrInvalidEnvelope
	}
	if strings.TrimSpace(input.PartitionKeyPath) != "data.user_id" || strings.TrimSpace(input.PartitionKey) != strings.TrimSpace(input.UserID) {
		return nil, domain.ErrInvalidEnvelope
	}
	userID, err := uuid.Parse(strings.TrimSpace(input.UserID))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	counter := strings.TrimSpace(input.Counter)
	if !s.knownCounter(counter) {
		return nil, fmt.Errorf("%w: counter %q", domain.ErrInvalidInput, counter)
	}
	delta := input.Delta
	if delta <= 0 {
		delta = 1
	}
	now := s.nowFn()
	if _, err := parseRFC3339OrNow(input.OccurredAt, now); err != nil {
		return nil, domain.ErrInvalidInput
	}

	// Producers retry with the same event_id; replays return the cached
	// response, while a reused event_id with a different payload is rejected.
	requestHash := hashPayload(input)
	if s.idempotency != nil {
		existing, err := s.idempotency.Get(ctx, input.EventID, now)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.RequestHash != requestHash {
				return nil, domain.ErrIdempotencyConflict
			}
			var cached map[string]any
			if err := json.Unmarshal(existing.ResponseBody, &cached); err != nil {
				return nil, err
			}
			cached["duplicate"] = true
			return cached, nil
		}
		if err := s.idempotency.Reserve(ctx, input.EventID, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
			return nil, err
		}
	}

	if err := s.applyIncrement(ctx, userID, counter, delta, now); err != nil {
		return nil, err
	}
	result := map[string]any{
		"accepted":     true,
		"user_id":      userID.String(),
		"counter":      counter,
		"processed_at": now,
	}
	if s.idempotency != nil {
		body, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		if err := s.idempotency.Complete(ctx, input.EventID, 202, body, now); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// applyIncrement bumps the projection, drops the cached snapshot, and
// re-evaluates so flag and tier events fire close to the causing event
// instead of at the next read.
func (s *Service) applyIncrement(ctx context.Context, userID uuid.UUID, counter string, delta int64, now time.Time) error {
	if err := s.counters.Increment(ctx, userID, counter, delta, now); err != nil {
		return err
	}
	s.invalidateSnapshot(ctx, userID)
	_, err := s.evaluateUser(ctx, userID)
	return err
}

func (s *Service) knownCounter(name string) bool {
	if _, ok := s.cfg.Scoring.NegativeWeights[name]; ok {
		return true
	}
	if _, ok := s.cfg.Scoring.PositiveWeights[name]; ok {
		return true
	}
	for _, rule := range s.cfg.Scoring.FlagRules {
		if rule.Counter == name {
			return true
		}
	}
	return false
}

func hashPayload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func parseRFC3339OrNow(raw string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

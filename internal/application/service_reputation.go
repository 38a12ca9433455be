package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/ports"
)

const (
	EventTypeFlagRaised  = "reputation.flag_raised"
	EventTypeTierChanged = "reputation.score_tier_changed"
)

// GetAdvisoryHints returns the two booleans the client app may render. The
// numeric score, tier, and flag names stay on this side of the boundary.
func (s *Service) GetAdvisoryHints(ctx context.Context, actor Actor) (domain.AdvisoryHints, error) {
	if actor.UserID == uuid.Nil {
		return domain.AdvisoryHints{}, domain.ErrUnauthorized
	}
	eval, err := s.evaluateUser(ctx, actor.UserID)
	if err != nil {
		return domain.AdvisoryHints{}, err
	}
	return eval.Hints(), nil
}

// CheckEligibility answers a single named gate for internal callers.
func (s *Service) CheckEligibility(ctx context.Context, actor Actor, userID uuid.UUID, feature string) (EligibilityResponse, error) {
	if err := requireInternalRole(actor); err != nil {
		return EligibilityResponse{}, err
	}
	feature = strings.TrimSpace(feature)
	if _, ok := s.cfg.Scoring.Gates[feature]; !ok {
		return EligibilityResponse{}, fmt.Errorf("%w: feature %q", domain.ErrNotFound, feature)
	}
	eval, err := s.evaluateUser(ctx, userID)
	if err != nil {
		return EligibilityResponse{}, err
	}
	return EligibilityResponse{
		UserID:   userID.String(),
		Feature:  feature,
		Eligible: eval.Eligibility[feature],
	}, nil
}

// AdjustRanking scales a caller-supplied base score with the user's tier
// multiplier for the given context. An unknown context is a configuration
// error and propagates; the ranking service defaults to 1.0x if it prefers
// not to fail the request.
func (s *Service) AdjustRanking(ctx context.Context, actor Actor, input AdjustRankingInput) (AdjustRankingResponse, error) {
	if err := requireInternalRole(actor); err != nil {
		return AdjustRankingResponse{}, err
	}
	if input.UserID == uuid.Nil || input.BaseScore < 0 {
		return AdjustRankingResponse{}, domain.ErrInvalidInput
	}
	eval, err := s.evaluateUser(ctx, input.UserID)
	if err != nil {
		return AdjustRankingResponse{}, err
	}
	adjustment, err := domain.ApplyMultiplier(s.cfg.Scoring, strings.TrimSpace(input.Context), eval.Tier, input.BaseScore)
	if err != nil {
		return AdjustRankingResponse{}, err
	}
	return AdjustRankingResponse{
		UserID:         input.UserID.String(),
		Context:        adjustment.Context,
		EffectiveScore: adjustment.EffectiveScore,
	}, nil
}

// GetAdminReputation serves the full derived record to moderation tooling.
func (s *Service) GetAdminReputation(ctx context.Context, actor Actor, userID uuid.UUID) (AdminReputationView, error) {
	role := strings.ToLower(strings.TrimSpace(actor.Role))
	if role != "admin" && role != "moderator" {
		return AdminReputationView{}, domain.ErrForbidden
	}
	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return AdminReputationView{}, err
	}
	eval := domain.Evaluate(s.cfg.Scoring, snapshot)
	s.recordEvaluation(ctx, eval)

	var history []domain.ScoreAudit
	if s.audits != nil {
		history, _ = s.audits.ListByUser(ctx, userID, 10)
	}
	views := make([]ScoreAuditView, 0, len(history))
	for _, row := range history {
		views = append(views, ScoreAuditView{
			Score:         row.Score,
			PreviousScore: row.PreviousScore,
			Tier:          string(row.Tier),
			Flags:         flagStrings(row.Flags),
			ConfigVersion: row.ConfigVersion,
			ComputedAt:    row.ComputedAt,
		})
	}
	return AdminReputationView{
		UserID:      userID.String(),
		Score:       eval.Score,
		Tier:        string(eval.Tier),
		Flags:       flagStrings(eval.Flags),
		HighRisk:    eval.HighRisk,
		Eligibility: eval.Eligibility,
		Counters:    snapshot.Counters,
		History:     views,
		ComputedAt:  eval.ComputedAt,
	}, nil
}

// evaluateUser reads a snapshot and runs the pure pipeline, persisting an
// audit row and outbox events whenever the outcome moved.
func (s *Service) evaluateUser(ctx context.Context, userID uuid.UUID) (domain.Evaluation, error) {
	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return domain.Evaluation{}, err
	}
	eval := domain.Evaluate(s.cfg.Scoring, snapshot)
	s.recordEvaluation(ctx, eval)
	return eval, nil
}

// Snapshot prefers the cache and falls back to the projection table. A user
// with no projection row scores from all-zero counters.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (domain.CounterSnapshot, error) {
	key := s.snapshotCacheKey(userID)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil && raw != "" {
			var counters map[string]int64
			if err := json.Unmarshal([]byte(raw), &counters); err == nil {
				return domain.CounterSnapshot{UserID: userID, Counters: counters, ObservedAt: s.nowFn()}, nil
			}
		}
	}
	snapshot, err := s.counters.GetByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.CounterSnapshot{}, err
		}
		snapshot = domain.CounterSnapshot{UserID: userID, Counters: map[string]int64{}}
	}
	snapshot.ObservedAt = s.nowFn()
	if s.cache != nil {
		if raw, err := json.Marshal(snapshot.Counters); err == nil {
			_ = s.cache.Set(ctx, key, string(raw), s.cfg.SnapshotCacheTTL)
		}
	}
	return snapshot, nil
}

// recordEvaluation appends an audit row and queues outbox events when score
// or flags changed since the last audit. Persistence failures are tolerated:
// scoring stays read-only from the caller's point of view.
func (s *Service) recordEvaluation(ctx context.Context, eval domain.Evaluation) {
	if s.audits == nil {
		return
	}
	previous, err := s.audits.Latest(ctx, eval.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return
	}
	hadPrevious := err == nil
	if hadPrevious && previous.Score == eval.Score && sameFlags(previous.Flags, eval.Flags) {
		return
	}
	now := s.nowFn()
	audit := domain.ScoreAudit{
		AuditID:       uuid.New(),
		UserID:        eval.UserID,
		Score:         eval.Score,
		PreviousScore: eval.Score,
		Tier:          eval.Tier,
		Flags:         eval.Flags,
		ConfigVersion: s.cfg.Scoring.Version,
		ComputedAt:    now,
	}
	if hadPrevious {
		audit.PreviousScore = previous.Score
	}
	if appendErr := s.audits.Append(ctx, audit); appendErr != nil {
		return
	}
	if s.outbox == nil {
		return
	}
	for _, flag := range eval.Flags {
		if hadPrevious && containsFlag(previous.Flags, flag) {
			continue
		}
		if !isRiskFlag(s.cfg.Scoring, flag) {
			continue
		}
		payload, marshalErr := json.Marshal(flagRaisedEvent{
			UserID:     eval.UserID.String(),
			Flag:       string(flag),
			Score:      eval.Score,
			ObservedAt: now,
		})
		if marshalErr != nil {
			continue
		}
		_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    EventTypeFlagRaised,
			PartitionKey: eval.UserID.String(),
			Payload:      payload,
			OccurredAt:   now,
		})
	}
	previousTier := domain.TierForScore(audit.PreviousScore)
	if !hadPrevious || previousTier != eval.Tier {
		payload, marshalErr := json.Marshal(tierChangedEvent{
			UserID:       eval.UserID.String(),
			PreviousTier: string(previousTier),
			Tier:         string(eval.Tier),
			ObservedAt:   now,
		})
		if marshalErr == nil {
			_ = s.outbox.Enqueue(ctx, ports.OutboxEvent{
				EventID:      uuid.New(),
				EventType:    EventTypeTierChanged,
				PartitionKey: eval.UserID.String(),
				Payload:      payload,
				OccurredAt:   now,
			})
		}
	}
}

func (s *Service) snapshotCacheKey(userID uuid.UUID) string {
	return "reputation:counters:" + userID.String()
}

func (s *Service) invalidateSnapshot(ctx context.Context, userID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, s.snapshotCacheKey(userID))
	}
}

func requireInternalRole(actor Actor) error {
	switch strings.ToLower(strings.TrimSpace(actor.Role)) {
	case "service", "admin", "moderator":
		return nil
	default:
		return domain.ErrForbidden
	}
}

func isRiskFlag(cfg domain.ScoringConfig, flag domain.Flag) bool {
	for _, risk := range cfg.RiskFlags {
		if risk == flag {
			return true
		}
	}
	return false
}

func containsFlag(flags []domain.Flag, want domain.Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func sameFlags(a, b []domain.Flag) bool {
	if len(a) != len(b) {
		return false
	}
	for _, f := range a {
		if !containsFlag(b, f) {
			return false
		}
	}
	return true
}

func flagStrings(flags []domain.Flag) []string {
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		out = append(out, string(f))
	}
	return out
}

package application

import (
	"context"
	"time"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/ports"
)

type Service struct {
	cfg         Config
	counters    ports.CounterRepository
	audits      ports.ScoreAuditRepository
	outbox      ports.OutboxRepository
	eventDedup  ports.EventDedupRepository
	idempotency ports.IdempotencyRepository
	cache       ports.Cache
	verifier    ports.TokenVerifier
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Counters    ports.CounterRepository
	Audits      ports.ScoreAuditRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
	Cache       ports.Cache
	Verifier    ports.TokenVerifier
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "reputation-service"
	}
	if cfg.Scoring.Version == "" {
		cfg.Scoring = domain.DefaultScoringConfig()
	}
	if cfg.SnapshotCacheTTL <= 0 {
		cfg.SnapshotCacheTTL = 2 * time.Minute
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 7 * 24 * time.Hour
	}
	if cfg.EventDedupTTL <= 0 {
		cfg.EventDedupTTL = 7 * 24 * time.Hour
	}

	return &Service{
		cfg:         cfg,
		counters:    deps.Counters,
		audits:      deps.Audits,
		outbox:      deps.Outbox,
		eventDedup:  deps.EventDedup,
		idempotency: deps.Idempotency,
		cache:       deps.Cache,
		verifier:    deps.Verifier,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.LedgerReader = (*Service)(nil)

// ScoringConfig exposes the active constant set, mostly for tests and the
// admin surface.
func (s *Service) ScoringConfig() domain.ScoringConfig { return s.cfg.Scoring }

func (s *Service) ValidateToken(_ context.Context, raw string) (ports.AuthClaims, error) {
	if s.verifier == nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	claims, err := s.verifier.Verify(raw)
	if err != nil {
		return ports.AuthClaims{}, domain.ErrUnauthorized
	}
	return claims, nil
}

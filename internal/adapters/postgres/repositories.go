package postgres

import (
	"gorm.io/gorm"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/ports"
)

type Repositories struct {
	Counters    ports.CounterRepository
	Audits      ports.ScoreAuditRepository
	Outbox      ports.OutboxRepository
	EventDedup  ports.EventDedupRepository
	Idempotency ports.IdempotencyRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Counters:    &counterRepository{db: db},
		Audits:      &auditRepository{db: db},
		Outbox:      &outboxRepository{db: db},
		EventDedup:  &eventDedupRepository{db: db},
		Idempotency: &idempotencyRepository{db: db},
	}
}

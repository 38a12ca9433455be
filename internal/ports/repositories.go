package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

// CounterRepository owns the local projection of externally produced event
// counters. Increments are atomic per column; reads return whole snapshots.
type CounterRepository interface {
	Increment(ctx context.Context, userID uuid.UUID, counter string, delta int64, at time.Time) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.CounterSnapshot, error)
}

// ScoreAuditRepository stores the append-only history of score changes.
type ScoreAuditRepository interface {
	Append(ctx context.Context, row domain.ScoreAudit) error
	Latest(ctx context.Context, userID uuid.UUID) (domain.ScoreAudit, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ScoreAudit, error)
}

type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    string
	LastErrorAt  *time.Time
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}

type EventDedupRepository interface {
	IsDuplicate(ctx context.Context, eventID string, now time.Time) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error
}

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
}

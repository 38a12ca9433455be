package postgres

import (
	"time"

	"github.com/google/uuid"
)

type counterProjectionModel struct {
	UserID               uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	ReportsReceived      int64     `gorm:"column:reports_received"`
	BlocksReceived       int64     `gorm:"column:blocks_received"`
	GhostingSessions     int64     `gorm:"column:ghosting_sessions"`
	SpamFlags            int64     `gorm:"column:spam_flags"`
	PositiveInteractions int64     `gorm:"column:positive_interactions"`
	MeetingsAttended     int64     `gorm:"column:meetings_attended"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (counterProjectionModel) TableName() string { return "reputation_counters" }

type scoreAuditModel struct {
	AuditID       uuid.UUID `gorm:"column:audit_id;type:uuid;primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id"`
	Score         int       `gorm:"column:score"`
	PreviousScore int       `gorm:"column:previous_score"`
	Tier          string    `gorm:"column:tier"`
	Flags         string    `gorm:"column:flags"`
	ConfigVersion string    `gorm:"column:config_version"`
	ComputedAt    time.Time `gorm:"column:computed_at"`
}

func (scoreAuditModel) TableName() string { return "reputation_score_audits" }

type outboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload"`
	RetryCount   int        `gorm:"column:retry_count"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	LastError    string     `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	FirstSeenAt  time.Time  `gorm:"column:first_seen_at"`
}

func (outboxModel) TableName() string { return "reputation_outbox" }

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (eventDedupModel) TableName() string { return "reputation_event_dedup" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "reputation_idempotency" }

package application

import (
	"time"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

type Config struct {
	ServiceName        string
	Scoring            domain.ScoringConfig
	SnapshotCacheTTL   time.Duration
	IdempotencyTTL     time.Duration
	EventDedupTTL      time.Duration
	WebhookBearerToken string
}

// Actor is the authenticated caller as seen by the application layer.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

type AdjustRankingInput struct {
	UserID    uuid.UUID
	Context   string
	BaseScore float64
}

type AdjustRankingResponse struct {
	UserID         string  `json:"user_id"`
	Context        string  `json:"context"`
	EffectiveScore float64 `json:"effective_score"`
}

type EligibilityResponse struct {
	UserID   string `json:"user_id"`
	Feature  string `json:"feature"`
	Eligible bool   `json:"eligible"`
}

// ModerationEventInput is the webhook intake shape: standard platform event
// envelope plus the counter increment itself.
type ModerationEventInput struct {
	EventID          string
	EventType        string
	OccurredAt       string
	SourceService    string
	TraceID          string
	SchemaVersion    string
	PartitionKeyPath string
	PartitionKey     string
	UserID           string
	Counter          string
	Delta            int64
}

// AdminReputationView is the full record for moderation tooling. It is served
// only on the admin surface and never reaches the client app.
type AdminReputationView struct {
	UserID      string           `json:"user_id"`
	Score       int              `json:"score"`
	Tier        string           `json:"tier"`
	Flags       []string         `json:"flags"`
	HighRisk    bool             `json:"high_risk"`
	Eligibility map[string]bool  `json:"eligibility"`
	Counters    map[string]int64 `json:"counters"`
	History     []ScoreAuditView `json:"history,omitempty"`
	ComputedAt  time.Time        `json:"computed_at"`
}

type ScoreAuditView struct {
	Score         int       `json:"score"`
	PreviousScore int       `json:"previous_score"`
	Tier          string    `json:"tier"`
	Flags         []string  `json:"flags"`
	ConfigVersion string    `json:"config_version"`
	ComputedAt    time.Time `json:"computed_at"`
}

type flagRaisedEvent struct {
	UserID     string    `json:"user_id"`
	Flag       string    `json:"flag"`
	Score      int       `json:"score"`
	ObservedAt time.Time `json:"observed_at"`
}

type tierChangedEvent struct {
	UserID       string    `json:"user_id"`
	PreviousTier string    `json:"previous_tier"`
	Tier         string    `json:"tier"`
	ObservedAt   time.Time `json:"observed_at"`
}

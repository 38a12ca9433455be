package domain

import (
	"time"

	"github.com/google/uuid"
)

// Counter names as they appear in increment events and the projection table.
const (
	CounterReportsReceived      = "reports_received"
	CounterBlocksReceived       = "blocks_received"
	CounterGhostingSessions     = "ghosting_sessions"
	CounterSpamFlags            = "spam_flags"
	CounterPositiveInteractions = "positive_interactions"
	CounterMeetingsAttended     = "meetings_attended"
)

// Flag is a discrete signal derived from a single counter crossing its
// threshold. Flags are recomputed fresh on every evaluation; there is no
// stored flag state to expire or clear.
type Flag string

const (
	FlagScamSuspect    Flag = "SCAM_SUSPECT"
	FlagHarassment     Flag = "HARASSMENT"
	FlagSpammer        Flag = "SPAMMER"
	FlagGhostingEarner Flag = "GHOSTING_EARNER"
	FlagTrusted        Flag = "TRUSTED"
)

// Tier buckets the bounded score for multiplier selection.
type Tier string

const (
	TierCritical  Tier = "CRITICAL"
	TierPoor      Tier = "POOR"
	TierNeutral   Tier = "NEUTRAL"
	TierGood      Tier = "GOOD"
	TierExcellent Tier = "EXCELLENT"
)

// Tiers lists all tiers from worst to best. Table validation and the
// monotonicity checks iterate in this order.
var Tiers = []Tier{TierCritical, TierPoor, TierNeutral, TierGood, TierExcellent}

// CounterSnapshot is an immutable read of a user's event counters. The
// projection it comes from may be stale; the scoring core treats whatever it
// is handed as the truth for that evaluation.
type CounterSnapshot struct {
	UserID     uuid.UUID
	Counters   map[string]int64
	ObservedAt time.Time
}

// Get returns a counter value, treating absent counters as zero.
func (s CounterSnapshot) Get(name string) int64 {
	if s.Counters == nil {
		return 0
	}
	return s.Counters[name]
}

// Evaluation is the full derived output for one snapshot.
type Evaluation struct {
	UserID      uuid.UUID
	Score       int
	Tier        Tier
	Flags       []Flag
	Eligibility map[string]bool
	HighRisk    bool
	ComputedAt  time.Time
}

// HasFlag reports whether the evaluation carries the given flag.
func (e Evaluation) HasFlag(f Flag) bool {
	for _, have := range e.Flags {
		if have == f {
			return true
		}
	}
	return false
}

// ScoreAudit is an append-only record of a computation whose score or flag
// set differed from the previous audit row for the same user.
type ScoreAudit struct {
	AuditID       uuid.UUID
	UserID        uuid.UUID
	Score         int
	PreviousScore int
	Tier          Tier
	Flags         []Flag
	ConfigVersion string
	ComputedAt    time.Time
}

// RankingAdjustment is the outcome of applying a context multiplier table to
// an externally supplied base score.
type RankingAdjustment struct {
	UserID         uuid.UUID
	Context        string
	BaseScore      float64
	Multiplier     float64
	EffectiveScore float64
	Tier           Tier
}

// AdvisoryHints is the only reputation shape that may reach an end-user
// client. It must never grow a numeric score, tier, or flag field.
type AdvisoryHints struct {
	ShowPositiveHint bool `json:"show_positive_hint"`
	ShowRiskWarning  bool `json:"show_risk_warning"`
}

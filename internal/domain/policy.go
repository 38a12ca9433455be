package domain

// Gate names. Each is a single boolean expression over (score, flags); no
// gate reads anything else.
const (
	GateEarnMode      = "earn_mode"
	GateBoost         = "boost"
	GateLiveDiscovery = "live_discovery"
)

// EvaluateGate applies one gate rule: score at or above the floor AND none of
// the disqualifying flags present.
func EvaluateGate(rule GateRule, score int, flags []Flag) bool {
	if score < rule.Floor {
		return false
	}
	for _, disqualifier := range rule.Disqualifying {
		if containsFlag(flags, disqualifier) {
			return false
		}
	}
	return true
}

// EvaluateGates runs every configured gate against the same tuple.
func EvaluateGates(cfg ScoringConfig, score int, flags []Flag) map[string]bool {
	out := make(map[string]bool, len(cfg.Gates))
	for name, rule := range cfg.Gates {
		out[name] = EvaluateGate(rule, score, flags)
	}
	return out
}

// IsHighRisk holds when the score sits under the floor or any configured risk
// flag is present.
func IsHighRisk(cfg ScoringConfig, score int, flags []Flag) bool {
	if score < cfg.HighRiskFloor {
		return true
	}
	for _, risk := range cfg.RiskFlags {
		if containsFlag(flags, risk) {
			return true
		}
	}
	return false
}

// Evaluate chains score, tier, flags, gates, and the risk test for one
// snapshot. This is the whole scoring pipeline; everything above persistence
// and transport calls through here.
func Evaluate(cfg ScoringConfig, snapshot CounterSnapshot) Evaluation {
	score, flags := ComputeScore(cfg, snapshot)
	return Evaluation{
		UserID:      snapshot.UserID,
		Score:       score,
		Tier:        TierForScore(score),
		Flags:       flags,
		Eligibility: EvaluateGates(cfg, score, flags),
		HighRisk:    IsHighRisk(cfg, score, flags),
		ComputedAt:  snapshot.ObservedAt,
	}
}

// Hints reduces an evaluation to the only two booleans a client may see.
func (e Evaluation) Hints() AdvisoryHints {
	return AdvisoryHints{
		ShowPositiveHint: e.Tier == TierGood || e.Tier == TierExcellent,
		ShowRiskWarning:  e.HighRisk,
	}
}

func containsFlag(flags []Flag, want Flag) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

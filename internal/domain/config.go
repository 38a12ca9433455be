package domain

import "fmt"

// FlagRule raises a flag when a single counter reaches its threshold.
type FlagRule struct {
	Counter   string `yaml:"counter"`
	Threshold int64  `yaml:"threshold"`
	Flag      Flag   `yaml:"flag"`
}

// GateRule is one eligibility gate: a score floor combined with a
// disqualifying-flag blacklist. Both conditions are hard; there is no
// soft-pass path.
type GateRule struct {
	Floor         int    `yaml:"floor"`
	Disqualifying []Flag `yaml:"disqualifying"`
}

// MultiplierTable maps tiers to ranking multipliers for one context.
// Cap, when positive, bounds the effective score after multiplication.
type MultiplierTable struct {
	Multipliers map[Tier]float64 `yaml:"multipliers"`
	Cap         float64          `yaml:"cap"`
}

// ScoringConfig is the single versioned source of every scoring constant:
// weights, thresholds, gates, and multiplier tables. The source product
// duplicated these tables per feature area with drifting values; here one
// struct is injected everywhere and validated once at bootstrap.
type ScoringConfig struct {
	Version string `yaml:"version"`

	BaseScore       int              `yaml:"base_score"`
	NegativeWeights map[string]int64 `yaml:"negative_weights"`
	PositiveWeights map[string]int64 `yaml:"positive_weights"`
	PositiveCap     int64            `yaml:"positive_cap"`

	FlagRules []FlagRule          `yaml:"flag_rules"`
	Gates     map[string]GateRule `yaml:"gates"`

	// RiskFlags are the flags that mark a user high-risk regardless of score.
	RiskFlags []Flag `yaml:"risk_flags"`

	HighRiskFloor int `yaml:"high_risk_floor"`

	MultiplierTables map[string]MultiplierTable `yaml:"multiplier_tables"`
}

// DefaultScoringConfig is the v1 constant set.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Version:   "v1",
		BaseScore: 80,
		NegativeWeights: map[string]int64{
			CounterReportsReceived:  3,
			CounterBlocksReceived:   5,
			CounterGhostingSessions: 4,
			CounterSpamFlags:        2,
		},
		PositiveWeights: map[string]int64{
			CounterPositiveInteractions: 1,
			CounterMeetingsAttended:     2,
		},
		PositiveCap: 20,
		FlagRules: []FlagRule{
			{Counter: CounterReportsReceived, Threshold: 3, Flag: FlagScamSuspect},
			{Counter: CounterBlocksReceived, Threshold: 5, Flag: FlagHarassment},
			{Counter: CounterSpamFlags, Threshold: 10, Flag: FlagSpammer},
			{Counter: CounterGhostingSessions, Threshold: 5, Flag: FlagGhostingEarner},
			{Counter: CounterMeetingsAttended, Threshold: 10, Flag: FlagTrusted},
		},
		Gates: map[string]GateRule{
			GateEarnMode:      {Floor: 40, Disqualifying: []Flag{FlagGhostingEarner}},
			GateBoost:         {Floor: 60, Disqualifying: []Flag{FlagSpammer}},
			GateLiveDiscovery: {Floor: 40, Disqualifying: []Flag{FlagHarassment, FlagScamSuspect}},
		},
		RiskFlags:     []Flag{FlagHarassment, FlagScamSuspect, FlagSpammer},
		HighRiskFloor: 40,
		MultiplierTables: map[string]MultiplierTable{
			ContextDiscovery: {
				Multipliers: map[Tier]float64{
					TierCritical: 0.5, TierPoor: 0.8, TierNeutral: 1.0, TierGood: 1.25, TierExcellent: 1.5,
				},
			},
			ContextSuggestions: {
				Multipliers: map[Tier]float64{
					TierCritical: 0.4, TierPoor: 0.7, TierNeutral: 1.0, TierGood: 1.8, TierExcellent: 3.0,
				},
			},
			ContextPassport: {
				Multipliers: map[Tier]float64{
					TierCritical: 0.5, TierPoor: 0.8, TierNeutral: 1.0, TierGood: 1.2, TierExcellent: 1.5,
				},
				Cap: 100,
			},
		},
	}
}

// Validate fails fast on any constant that could make scoring misbehave at
// runtime. Called once at bootstrap; a failure aborts startup.
func (c ScoringConfig) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalidConfig)
	}
	if c.BaseScore < 0 || c.BaseScore > 100 {
		return fmt.Errorf("%w: base score %d outside [0,100]", ErrInvalidConfig, c.BaseScore)
	}
	for name, weight := range c.NegativeWeights {
		if weight < 0 {
			return fmt.Errorf("%w: negative weight for counter %q", ErrInvalidConfig, name)
		}
	}
	for name, weight := range c.PositiveWeights {
		if weight < 0 {
			return fmt.Errorf("%w: negative weight for counter %q", ErrInvalidConfig, name)
		}
	}
	if c.PositiveCap < 0 {
		return fmt.Errorf("%w: positive cap is negative", ErrInvalidConfig)
	}
	knownFlags := map[Flag]bool{}
	for _, rule := range c.FlagRules {
		if rule.Counter == "" {
			return fmt.Errorf("%w: flag rule without counter", ErrInvalidConfig)
		}
		if rule.Threshold < 0 {
			return fmt.Errorf("%w: negative threshold for counter %q", ErrInvalidConfig, rule.Counter)
		}
		if rule.Flag == "" {
			return fmt.Errorf("%w: flag rule for counter %q names no flag", ErrInvalidConfig, rule.Counter)
		}
		knownFlags[rule.Flag] = true
	}
	for name, gate := range c.Gates {
		if gate.Floor < 0 || gate.Floor > 100 {
			return fmt.Errorf("%w: gate %q floor %d outside [0,100]", ErrInvalidConfig, name, gate.Floor)
		}
		for _, f := range gate.Disqualifying {
			if !knownFlags[f] {
				return fmt.Errorf("%w: gate %q disqualifies unknown flag %q", ErrInvalidConfig, name, f)
			}
		}
	}
	for _, f := range c.RiskFlags {
		if !knownFlags[f] {
			return fmt.Errorf("%w: risk flag %q has no producing rule", ErrInvalidConfig, f)
		}
	}
	if c.HighRiskFloor < 0 || c.HighRiskFloor > 100 {
		return fmt.Errorf("%w: high risk floor %d outside [0,100]", ErrInvalidConfig, c.HighRiskFloor)
	}
	if len(c.MultiplierTables) == 0 {
		return fmt.Errorf("%w: no multiplier tables defined", ErrInvalidConfig)
	}
	for context, table := range c.MultiplierTables {
		if err := table.validate(context); err != nil {
			return err
		}
	}
	return nil
}

func (t MultiplierTable) validate(context string) error {
	if t.Cap < 0 {
		return fmt.Errorf("%w: table %q has negative cap", ErrInvalidConfig, context)
	}
	prev := 0.0
	for i, tier := range Tiers {
		m, ok := t.Multipliers[tier]
		if !ok {
			return fmt.Errorf("%w: table %q missing tier %s", ErrInvalidConfig, context, tier)
		}
		if m <= 0 {
			return fmt.Errorf("%w: table %q has non-positive multiplier for tier %s", ErrInvalidConfig, context, tier)
		}
		if i > 0 && m < prev {
			return fmt.Errorf("%w: table %q multiplier decreases at tier %s", ErrInvalidConfig, context, tier)
		}
		prev = m
	}
	return nil
}

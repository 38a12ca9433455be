package domain

import (
	"errors"
	"testing"
)

func TestDefaultScoringConfigValidates(t *testing.T) {
	if err := DefaultScoringConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestScoringConfigValidateFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ScoringConfig)
	}{
		{"missing version", func(c *ScoringConfig) { c.Version = "" }},
		{"base score above 100", func(c *ScoringConfig) { c.BaseScore = 101 }},
		{"negative penalty weight", func(c *ScoringConfig) { c.NegativeWeights[CounterSpamFlags] = -1 }},
		{"negative positive cap", func(c *ScoringConfig) { c.PositiveCap = -5 }},
		{"flag rule without counter", func(c *ScoringConfig) { c.FlagRules[0].Counter = "" }},
		{"gate floor above 100", func(c *ScoringConfig) {
			g := c.Gates[GateEarnMode]
			g.Floor = 150
			c.Gates[GateEarnMode] = g
		}},
		{"gate disqualifies unknown flag", func(c *ScoringConfig) {
			g := c.Gates[GateEarnMode]
			g.Disqualifying = []Flag{"NOT_A_FLAG"}
			c.Gates[GateEarnMode] = g
		}},
		{"risk flag with no producing rule", func(c *ScoringConfig) { c.RiskFlags = append(c.RiskFlags, "ORPHAN") }},
		{"no multiplier tables", func(c *ScoringConfig) { c.MultiplierTables = nil }},
		{"table missing a tier", func(c *ScoringConfig) {
			delete(c.MultiplierTables[ContextDiscovery].Multipliers, TierPoor)
		}},
		{"table multiplier decreases", func(c *ScoringConfig) {
			c.MultiplierTables[ContextDiscovery].Multipliers[TierExcellent] = 0.1
		}},
		{"table with zero multiplier", func(c *ScoringConfig) {
			c.MultiplierTables[ContextDiscovery].Multipliers[TierCritical] = 0
		}},
		{"table with negative cap", func(c *ScoringConfig) {
			tbl := c.MultiplierTables[ContextPassport]
			tbl.Cap = -1
			c.MultiplierTables[ContextPassport] = tbl
		}},
	}
	for _, tc := range cases {
		cfg := DefaultScoringConfig()
		tc.mutate(&cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation failure", tc.name)
		}
		if !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

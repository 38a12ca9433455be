package domain

// ComputeScore maps a counter snapshot to a bounded score and the flag set.
// Pure: no I/O, no stored state, absent counters count as zero. Intermediate
// arithmetic runs on int64 so adversarially large counters cannot wrap before
// the final clamp.
func ComputeScore(cfg ScoringConfig, snapshot CounterSnapshot) (int, []Flag) {
	total := int64(cfg.BaseScore)

	for counter, weight := range cfg.NegativeWeights {
		total = saturatingAdd(total, -saturatingMul(snapshot.Get(counter), weight))
	}

	var bonus int64
	for counter, weight := range cfg.PositiveWeights {
		bonus = saturatingAdd(bonus, saturatingMul(snapshot.Get(counter), weight))
	}
	if bonus > cfg.PositiveCap {
		bonus = cfg.PositiveCap
	}
	total = saturatingAdd(total, bonus)

	return clampScore(total), computeFlags(cfg, snapshot)
}

// computeFlags tests each rule's raw counter against its threshold. Raising a
// counter can only add flags, never remove one already implied.
func computeFlags(cfg ScoringConfig, snapshot CounterSnapshot) []Flag {
	flags := make([]Flag, 0, 2)
	for _, rule := range cfg.FlagRules {
		if snapshot.Get(rule.Counter) >= rule.Threshold {
			flags = append(flags, rule.Flag)
		}
	}
	return flags
}

// TierForScore buckets a bounded score into the fixed breakpoints
// 0-19 / 20-39 / 40-59 / 60-79 / 80-100.
func TierForScore(score int) Tier {
	switch {
	case score >= 80:
		return TierExcellent
	case score >= 60:
		return TierGood
	case score >= 40:
		return TierNeutral
	case score >= 20:
		return TierPoor
	default:
		return TierCritical
	}
}

func clampScore(v int64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

const int64Max = int64(^uint64(0) >> 1)

func saturatingMul(a, b int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > int64Max/b {
		return int64Max
	}
	return a * b
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > int64Max-b {
		return int64Max
	}
	if b < 0 && a < -int64Max-b {
		return -int64Max
	}
	return a + b
}

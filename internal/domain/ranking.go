package domain

import "fmt"

// Ranking contexts with multiplier tables in the default configuration.
const (
	ContextDiscovery   = "discovery"
	ContextSuggestions = "suggestions"
	ContextPassport    = "passport"
)

// ApplyMultiplier scales an externally computed base score by the tier's
// multiplier from the named context table. The resulting adjustment never
// leaves this service's internal API surface; callers must not forward the
// multiplier or tier to clients.
func ApplyMultiplier(cfg ScoringConfig, context string, tier Tier, baseScore float64) (RankingAdjustment, error) {
	table, ok := cfg.MultiplierTables[context]
	if !ok {
		return RankingAdjustment{}, fmt.Errorf("%w: %q", ErrUnknownContext, context)
	}
	multiplier, ok := table.Multipliers[tier]
	if !ok {
		// Validate() guarantees full tables; an unknown tier here is a bug,
		// not caller input.
		return RankingAdjustment{}, fmt.Errorf("%w: table %q has no tier %s", ErrInvalidConfig, context, tier)
	}
	effective := baseScore * multiplier
	if table.Cap > 0 && effective > table.Cap {
		effective = table.Cap
	}
	return RankingAdjustment{
		Context:        context,
		BaseScore:      baseScore,
		Multiplier:     multiplier,
		EffectiveScore: effective,
		Tier:           tier,
	}, nil
}

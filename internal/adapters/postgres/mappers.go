package postgres

import (
	"strings"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

func toDomainSnapshot(rec counterProjectionModel) domain.CounterSnapshot {
	return domain.CounterSnapshot{
		UserID: rec.UserID,
		Counters: map[string]int64{
			domain.CounterReportsReceived:      rec.ReportsReceived,
			domain.CounterBlocksReceived:       rec.BlocksReceived,
			domain.CounterGhostingSessions:     rec.GhostingSessions,
			domain.CounterSpamFlags:            rec.SpamFlags,
			domain.CounterPositiveInteractions: rec.PositiveInteractions,
			domain.CounterMeetingsAttended:     rec.MeetingsAttended,
		},
		ObservedAt: rec.UpdatedAt,
	}
}

func toAuditModel(row domain.ScoreAudit) *scoreAuditModel {
	return &scoreAuditModel{
		AuditID:       row.AuditID,
		UserID:        row.UserID,
		Score:         row.Score,
		PreviousScore: row.PreviousScore,
		Tier:          string(row.Tier),
		Flags:         joinFlags(row.Flags),
		ConfigVersion: row.ConfigVersion,
		ComputedAt:    row.ComputedAt,
	}
}

func toDomainAudit(rec scoreAuditModel) domain.ScoreAudit {
	return domain.ScoreAudit{
		AuditID:       rec.AuditID,
		UserID:        rec.UserID,
		Score:         rec.Score,
		PreviousScore: rec.PreviousScore,
		Tier:          domain.Tier(rec.Tier),
		Flags:         splitFlags(rec.Flags),
		ConfigVersion: rec.ConfigVersion,
		ComputedAt:    rec.ComputedAt,
	}
}

func joinFlags(flags []domain.Flag) string {
	parts := make([]string, 0, len(flags))
	for _, f := range flags {
		parts = append(parts, string(f))
	}
	return strings.Join(parts, ",")
}

func splitFlags(raw string) []domain.Flag {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.Flag, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, domain.Flag(p))
		}
	}
	return out
}

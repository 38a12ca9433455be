package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

// counterColumns whitelists projection columns by counter name. Increment
// refuses anything outside this map so counter names never reach SQL raw.
var counterColumns = map[string]string{
	domain.CounterReportsReceived:      "reports_received",
	domain.CounterBlocksReceived:       "blocks_received",
	domain.CounterGhostingSessions:     "ghosting_sessions",
	domain.CounterSpamFlags:            "spam_flags",
	domain.CounterPositiveInteractions: "positive_interactions",
	domain.CounterMeetingsAttended:     "meetings_attended",
}

type counterRepository struct {
	db *gorm.DB
}

func (r *counterRepository) Increment(ctx context.Context, userID uuid.UUID, counter string, delta int64, at time.Time) error {
	column, ok := counterColumns[counter]
	if !ok {
		return fmt.Errorf("%w: counter %q", domain.ErrInvalidInput, counter)
	}
	if delta <= 0 {
		return fmt.Errorf("%w: non-positive delta", domain.ErrInvalidInput)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := counterProjectionModel{UserID: userID, UpdatedAt: at}
		if err := tx.Where("user_id = ?", userID).FirstOrCreate(&rec).Error; err != nil {
			if !isUniqueViolation(err) {
				return err
			}
		}
		return tx.Model(&counterProjectionModel{}).
			Where("user_id = ?", userID).
			Updates(map[string]any{
				column:       gorm.Expr(column+" + ?", delta),
				"updated_at": at,
			}).Error
	})
}

func (r *counterRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.CounterSnapshot, error) {
	var rec counterProjectionModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CounterSnapshot{}, domain.ErrNotFound
		}
		return domain.CounterSnapshot{}, err
	}
	return toDomainSnapshot(rec), nil
}

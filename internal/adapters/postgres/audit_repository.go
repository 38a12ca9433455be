package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

type auditRepository struct {
	db *gorm.DB
}

func (r *auditRepository) Append(ctx context.Context, row domain.ScoreAudit) error {
	return r.db.WithContext(ctx).Create(toAuditModel(row)).Error
}

func (r *auditRepository) Latest(ctx context.Context, userID uuid.UUID) (domain.ScoreAudit, error) {
	var rec scoreAuditModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("computed_at desc").
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ScoreAudit{}, domain.ErrNotFound
		}
		return domain.ScoreAudit{}, err
	}
	return toDomainAudit(rec), nil
}

func (r *auditRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ScoreAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []scoreAuditModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("computed_at desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScoreAudit, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainAudit(rec))
	}
	return out, nil
}

package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/domain"
)

// LedgerReader hands the scoring core an immutable counter snapshot. The
// backing data is eventually consistent; callers accept whatever was
// materialized at read time.
type LedgerReader interface {
	Snapshot(ctx context.Context, userID uuid.UUID) (domain.CounterSnapshot, error)
}

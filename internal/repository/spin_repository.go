package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playnexus/spinwheel/internal/model"
	"github.com/playnexus/spinwheel/pkg/database"
)

// SpinPoolInterface defines the database operations needed by SpinRepository.
type SpinPoolInterface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SpinRepository provides data access for the append-only spin history.
type SpinRepository struct {
	pool SpinPoolInterface
}

// NewSpinRepository creates a new SpinRepository with the given pool.
func NewSpinRepository(pool *pgxpool.Pool) *SpinRepository {
	return &SpinRepository{pool: pool}
}

// NewSpinRepositoryWithPool creates a new SpinRepository with a custom pool
// interface. This is primarily used for testing.
func NewSpinRepositoryWithPool(pool SpinPoolInterface) *SpinRepository {
	return &SpinRepository{pool: pool}
}

// Insert appends a spin record within a transaction.
func (r *SpinRepository) Insert(ctx context.Context, tx database.TxQuerier, rec *model.SpinRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO spins (id, campaign_id, slice_idx, user_id, slice_type, label, cost, free_spin, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.CampaignID, rec.SliceIndex, rec.UserID, rec.SliceType, rec.Label, rec.Cost, rec.FreeSpin, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert spin record: %w", err)
	}
	return nil
}

// UserWindowStats counts a user's spins in the trailing rate-limit window and
// their free-spin wins in the trailing 24 hours, both ending at now.
func (r *SpinRepository) UserWindowStats(ctx context.Context, campaignID uuid.UUID, userID string, now time.Time, window, freeWindow time.Duration) (model.UserSpinStats, error) {
	var stats model.UserSpinStats

	var oldest *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT count(*), min(created_at) FROM spins
		 WHERE campaign_id = $1 AND user_id = $2 AND created_at > $3`,
		campaignID, userID, now.Add(-window)).Scan(&stats.SpinsInWindow, &oldest)
	if err != nil {
		return stats, fmt.Errorf("count spins in window for %s: %w", userID, err)
	}
	if oldest != nil {
		stats.OldestInWindow = *oldest
	}

	err = r.pool.QueryRow(ctx,
		`SELECT count(*) FROM spins
		 WHERE campaign_id = $1 AND user_id = $2 AND slice_type = $3 AND created_at > $4`,
		campaignID, userID, model.SliceFreeSpin, now.Add(-freeWindow)).Scan(&stats.FreeSpinWins24h)
	if err != nil {
		return stats, fmt.Errorf("count free-spin wins for %s: %w", userID, err)
	}
	return stats, nil
}

// RecentSpend returns the campaign's spend since the start of the current UTC
// day and across its last windowSize spins, for expense-rate pacing.
func (r *SpinRepository) RecentSpend(ctx context.Context, campaignID uuid.UUID, now time.Time, windowSize int) (model.PacingSpend, error) {
	var spend model.PacingSpend

	dayStart := now.UTC().Truncate(24 * time.Hour)
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(cost), 0) FROM spins
		 WHERE campaign_id = $1 AND created_at >= $2`,
		campaignID, dayStart).Scan(&spend.Today)
	if err != nil {
		return spend, fmt.Errorf("sum day spend for %s: %w", campaignID, err)
	}

	if windowSize <= 0 {
		return spend, nil
	}
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(sum(cost), 0) FROM (
			SELECT cost FROM spins WHERE campaign_id = $1 ORDER BY created_at DESC LIMIT $2
		 ) recent`,
		campaignID, windowSize).Scan(&spend.Rolling)
	if err != nil {
		return spend, fmt.Errorf("sum rolling spend for %s: %w", campaignID, err)
	}
	return spend, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playnexus/spinwheel/internal/model"
	"github.com/playnexus/spinwheel/internal/service"
	"github.com/playnexus/spinwheel/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const campaignColumns = `id, name, status, total_budget, budget_spent, budget_remaining,
	total_spins, mode, target_spins, target_expense_per_day, target_expense_per_rolling_spins,
	rolling_spin_window_size, spins_per_window, free_spin_no_chain, created_at`

// CampaignRepository provides data access for campaigns, their budget ledger
// columns and their slice catalogs, using pgx.
type CampaignRepository struct {
	pool PoolInterface
}

// NewCampaignRepository creates a new CampaignRepository with the given pool.
func NewCampaignRepository(pool *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// NewCampaignRepositoryWithPool creates a new CampaignRepository with a custom
// pool interface. This is primarily used for testing.
func NewCampaignRepositoryWithPool(pool PoolInterface) *CampaignRepository {
	return &CampaignRepository{pool: pool}
}

// Insert inserts a new campaign row within a transaction.
// Returns service.ErrCampaignExists if a campaign with the same name already exists.
func (r *CampaignRepository) Insert(ctx context.Context, tx database.TxQuerier, c *model.Campaign) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO campaigns (id, name, status, total_budget, budget_spent, budget_remaining,
			total_spins, mode, target_spins, target_expense_per_day, target_expense_per_rolling_spins,
			rolling_spin_window_size, spins_per_window, free_spin_no_chain)
		 VALUES ($1, $2, $3, $4, 0, $4, 0, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Name, c.Status, c.TotalBudget, c.Mode, c.TargetSpins,
		c.TargetExpensePerDay, c.TargetExpensePerRollingSpins, c.RollingSpinWindowSize,
		c.SpinsPerWindow, c.FreeSpinNoChain)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCampaignExists
		}
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

// InsertSlices inserts the slice catalog for a campaign within a transaction.
// Slice identity is the catalog index, stable for the campaign's life.
func (r *CampaignRepository) InsertSlices(ctx context.Context, tx database.TxQuerier, campaignID uuid.UUID, slices []model.RewardSlice) error {
	for _, s := range slices {
		_, err := tx.Exec(ctx,
			`INSERT INTO slices (campaign_id, idx, slice_type, label, cost, color, max_wins, current_wins)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 0)`,
			campaignID, s.Index, s.Type, s.Label, s.Cost, s.Color, s.MaxWins)
		if err != nil {
			return fmt.Errorf("insert slice %d: %w", s.Index, err)
		}
	}
	return nil
}

// GetByID retrieves a campaign with its slice catalog.
// Returns nil, nil if the campaign is not found (service layer handles this).
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`

	var c model.Campaign
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Status, &c.TotalBudget, &c.BudgetSpent, &c.BudgetRemaining,
		&c.TotalSpins, &c.Mode, &c.TargetSpins, &c.TargetExpensePerDay,
		&c.TargetExpensePerRollingSpins, &c.RollingSpinWindowSize,
		&c.SpinsPerWindow, &c.FreeSpinNoChain, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get campaign %s: %w", id, err)
	}

	slices, err := r.getSlices(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Slices = slices
	return &c, nil
}

func (r *CampaignRepository) getSlices(ctx context.Context, campaignID uuid.UUID) ([]model.RewardSlice, error) {
	query := `SELECT idx, slice_type, label, cost, color, max_wins, current_wins
		FROM slices WHERE campaign_id = $1 ORDER BY idx`

	rows, err := r.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get slices for campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	var slices []model.RewardSlice
	for rows.Next() {
		var s model.RewardSlice
		if err := rows.Scan(&s.Index, &s.Type, &s.Label, &s.Cost, &s.Color, &s.MaxWins, &s.CurrentWins); err != nil {
			return nil, fmt.Errorf("scan slice: %w", err)
		}
		slices = append(slices, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slice rows: %w", err)
	}
	return slices, nil
}

// GetForUpdate retrieves a campaign's ledger row with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes; slices are not loaded.
// Returns service.ErrCampaignNotFound if the campaign doesn't exist.
func (r *CampaignRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`

	var c model.Campaign
	err := tx.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Status, &c.TotalBudget, &c.BudgetSpent, &c.BudgetRemaining,
		&c.TotalSpins, &c.Mode, &c.TargetSpins, &c.TargetExpensePerDay,
		&c.TargetExpensePerRollingSpins, &c.RollingSpinWindowSize,
		&c.SpinsPerWindow, &c.FreeSpinNoChain, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("get campaign for update %s: %w", id, err)
	}
	return &c, nil
}

// ApplySpin moves cost from remaining to spent, bumps the spin counter and the
// winning slice's win counter. Must be called within a transaction after
// locking the campaign row.
func (r *CampaignRepository) ApplySpin(ctx context.Context, tx database.TxQuerier, campaignID uuid.UUID, sliceIndex int, cost int64) error {
	_, err := tx.Exec(ctx,
		`UPDATE campaigns
		 SET budget_spent = budget_spent + $2,
		     budget_remaining = budget_remaining - $2,
		     total_spins = total_spins + 1
		 WHERE id = $1`,
		campaignID, cost)
	if err != nil {
		return fmt.Errorf("apply spin to ledger %s: %w", campaignID, err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE slices SET current_wins = current_wins + 1 WHERE campaign_id = $1 AND idx = $2`,
		campaignID, sliceIndex)
	if err != nil {
		return fmt.Errorf("bump slice wins %s/%d: %w", campaignID, sliceIndex, err)
	}
	return nil
}

// Reset restores the ledger to its initial state: nothing spent, no spins,
// remaining budget equal to total, all slice win counters cleared.
// Returns service.ErrCampaignNotFound if the campaign doesn't exist.
func (r *CampaignRepository) Reset(ctx context.Context, tx database.TxQuerier, campaignID uuid.UUID) error {
	tag, err := tx.Exec(ctx,
		`UPDATE campaigns
		 SET budget_spent = 0, budget_remaining = total_budget, total_spins = 0
		 WHERE id = $1`,
		campaignID)
	if err != nil {
		return fmt.Errorf("reset ledger %s: %w", campaignID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCampaignNotFound
	}

	_, err = tx.Exec(ctx,
		`UPDATE slices SET current_wins = 0 WHERE campaign_id = $1`,
		campaignID)
	if err != nil {
		return fmt.Errorf("reset slice wins %s: %w", campaignID, err)
	}
	return nil
}

// UpdateStatus moves a campaign to a new lifecycle state.
// Returns service.ErrCampaignNotFound if the campaign doesn't exist.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE campaigns SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update campaign status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCampaignNotFound
	}
	return nil
}

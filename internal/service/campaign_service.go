package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/playnexus/spinwheel/internal/model"
	"github.com/playnexus/spinwheel/pkg/database"
)

// CampaignAdminRepositoryInterface defines the data access the campaign
// administration surface needs.
type CampaignAdminRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, c *model.Campaign) error
	InsertSlices(ctx context.Context, tx database.TxQuerier, campaignID uuid.UUID, slices []model.RewardSlice) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	Reset(ctx context.Context, tx database.TxQuerier, campaignID uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) error
}

// CampaignService provides business logic for campaign administration:
// creation with catalog validation, snapshots, lifecycle moves and the
// administrative ledger reset.
type CampaignService struct {
	pool TxBeginner
	repo CampaignAdminRepositoryInterface
}

// NewCampaignService creates a new CampaignService with the given pool and repository.
func NewCampaignService(pool *pgxpool.Pool, repo CampaignAdminRepositoryInterface) *CampaignService {
	return &CampaignService{pool: pool, repo: repo}
}

// NewCampaignServiceWithTxBeginner creates a CampaignService with a custom
// TxBeginner. Primarily used for testing.
func NewCampaignServiceWithTxBeginner(pool TxBeginner, repo CampaignAdminRepositoryInterface) *CampaignService {
	return &CampaignService{pool: pool, repo: repo}
}

// Create creates a campaign and its slice catalog in one transaction.
// Returns ErrCampaignExists if the name is taken, ErrInvalidCatalog if the
// catalog lacks two slices or a zero-cost fallback, ErrInvalidRequest on nil
// or incomplete data.
func (s *CampaignService) Create(ctx context.Context, req *model.CreateCampaignRequest) (*model.Campaign, error) {
	// Defense-in-depth: check for nil pointer even though handler validates
	if req == nil || req.TotalBudget == nil {
		return nil, ErrInvalidRequest
	}
	if err := validateCatalog(req.Slices); err != nil {
		return nil, err
	}

	spinsPerWindow := -1
	if req.SpinsPerWindow != nil {
		spinsPerWindow = *req.SpinsPerWindow
	}

	c := &model.Campaign{
		ID:                           uuid.New(),
		Name:                         req.Name,
		Status:                       model.StatusDraft,
		TotalBudget:                  *req.TotalBudget,
		BudgetRemaining:              *req.TotalBudget,
		Mode:                         model.PacingMode(req.Mode),
		TargetSpins:                  req.TargetSpins,
		TargetExpensePerDay:          req.TargetExpensePerDay,
		TargetExpensePerRollingSpins: req.TargetExpensePerRollingSpins,
		RollingSpinWindowSize:        req.RollingSpinWindowSize,
		SpinsPerWindow:               spinsPerWindow,
		FreeSpinNoChain:              req.FreeSpinNoChain,
	}
	for i, spec := range req.Slices {
		maxWins := -1
		if spec.MaxWins != nil {
			maxWins = *spec.MaxWins
		}
		c.Slices = append(c.Slices, model.RewardSlice{
			Index:   i,
			Type:    model.SliceType(spec.Type),
			Label:   spec.Label,
			Cost:    *spec.Cost,
			Color:   spec.Color,
			MaxWins: maxWins,
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.repo.Insert(ctx, tx, c); err != nil {
		return nil, err
	}
	if err := s.repo.InsertSlices(ctx, tx, c.ID, c.Slices); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return c, nil
}

// validateCatalog enforces the wheel invariants that keep eligibility
// non-empty: at least two slices and at least one zero-cost fallback.
func validateCatalog(slices []model.SliceSpec) error {
	if len(slices) < 2 {
		return ErrInvalidCatalog
	}
	for _, s := range slices {
		if s.Cost != nil && *s.Cost == 0 {
			return nil
		}
	}
	return ErrInvalidCatalog
}

// GetByID retrieves a campaign snapshot with its catalog and derived stats.
// Returns ErrCampaignNotFound if the campaign doesn't exist.
func (s *CampaignService) GetByID(ctx context.Context, id uuid.UUID) (*model.CampaignResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if c == nil {
		return nil, ErrCampaignNotFound
	}
	return &model.CampaignResponse{
		Campaign:             *c,
		AveragePayoutPerSpin: c.AveragePayout(),
	}, nil
}

// Reset zeroes the ledger: spent and spin counters cleared, remaining budget
// restored to total, slice win counters reset. Runs in one transaction.
func (s *CampaignService) Reset(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.repo.Reset(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateStatus moves a campaign to a new lifecycle state.
func (s *CampaignService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.CampaignStatus) error {
	return s.repo.UpdateStatus(ctx, id, status)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/playnexus/spinwheel/internal/model"
	"github.com/playnexus/spinwheel/pkg/database"
)

// CampaignRepositoryInterface defines the campaign/ledger data access the spin
// engine needs.
type CampaignRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Campaign, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.Campaign, error)
	ApplySpin(ctx context.Context, tx database.TxQuerier, campaignID uuid.UUID, sliceIndex int, cost int64) error
}

// SpinRepositoryInterface defines the spin-history data access the engine needs.
type SpinRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, rec *model.SpinRecord) error
	UserWindowStats(ctx context.Context, campaignID uuid.UUID, userID string, now time.Time, window, freeWindow time.Duration) (model.UserSpinStats, error)
	RecentSpend(ctx context.Context, campaignID uuid.UUID, now time.Time, windowSize int) (model.PacingSpend, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SpinService runs spins: rate-limit gate, eligibility filtering, the weighted
// draw, and the atomic ledger commit, retrying the whole sequence when the
// budget moves underneath a spin.
type SpinService struct {
	pool         TxBeginner
	campaignRepo CampaignRepositoryInterface
	spinRepo     SpinRepositoryInterface
	sel          *selector
	maxRetries   int
	now          func() time.Time
}

// NewSpinService creates a SpinService with the given pool, repositories and
// pacing tunables.
func NewSpinService(pool *pgxpool.Pool, campaignRepo CampaignRepositoryInterface, spinRepo SpinRepositoryInterface, tun PacingTunables, maxRetries int) *SpinService {
	return &SpinService{
		pool:         pool,
		campaignRepo: campaignRepo,
		spinRepo:     spinRepo,
		sel:          &selector{rnd: rand.Float64, tun: tun},
		maxRetries:   maxRetries,
		now:          time.Now,
	}
}

// NewSpinServiceWithDeps creates a SpinService with a custom transaction
// beginner, random source and clock. Primarily used for testing.
func NewSpinServiceWithDeps(pool TxBeginner, campaignRepo CampaignRepositoryInterface, spinRepo SpinRepositoryInterface, tun PacingTunables, maxRetries int, rnd func() float64, now func() time.Time) *SpinService {
	return &SpinService{
		pool:         pool,
		campaignRepo: campaignRepo,
		spinRepo:     spinRepo,
		sel:          &selector{rnd: rnd, tun: tun},
		maxRetries:   maxRetries,
		now:          now,
	}
}

// Spin performs one spin for a user against a campaign.
// Returns:
//   - ErrCampaignNotFound if the campaign doesn't exist
//   - ErrCampaignNotLive if the campaign isn't accepting spins
//   - RateLimitError if the user used up the current window
//   - ErrNoEligibleSlices if the catalog is broken (logged at error severity)
//   - ErrBudgetRaceLost only if every retry lost the commit race
func (s *SpinService) Spin(ctx context.Context, userID string, campaignID uuid.UUID, freeSpin bool) (*model.SpinRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		rec, err := s.spinOnce(ctx, userID, campaignID, freeSpin)
		if errors.Is(err, ErrBudgetRaceLost) {
			// The eligible set may have changed, so the retry restarts from
			// eligibility computation, not just the commit.
			lastErr = err
			continue
		}
		return rec, err
	}
	return nil, fmt.Errorf("spin retries exhausted: %w", lastErr)
}

func (s *SpinService) spinOnce(ctx context.Context, userID string, campaignID uuid.UUID, freeSpin bool) (*model.SpinRecord, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.Status != model.StatusLive {
		return nil, ErrCampaignNotLive
	}

	now := s.now()
	stats, err := s.spinRepo.UserWindowStats(ctx, campaignID, userID, now, spinWindow, freeSpinWindow)
	if err != nil {
		return nil, fmt.Errorf("user window stats: %w", err)
	}
	if err := checkRateLimit(campaign, stats); err != nil {
		return nil, err
	}

	eligible := computeEligibleSlices(campaign, stats, freeSpin, s.sel.tun)
	if len(eligible) == 0 {
		log.Error().
			Str("campaign_id", campaignID.String()).
			Str("user_id", userID).
			Msg("no eligible slices, campaign catalog violates wheel invariants")
		return nil, ErrNoEligibleSlices
	}

	var spend model.PacingSpend
	if campaign.Mode == model.ModeTargetExpenseRate {
		spend, err = s.spinRepo.RecentSpend(ctx, campaignID, now, campaign.RollingSpinWindowSize)
		if err != nil {
			return nil, fmt.Errorf("recent spend: %w", err)
		}
	}

	chosen := s.sel.pick(campaign, eligible, spend)
	slice := campaign.Slices[chosen]

	rec := &model.SpinRecord{
		ID:         uuid.New(),
		CampaignID: campaignID,
		SliceIndex: slice.Index,
		UserID:     userID,
		SliceType:  slice.Type,
		Label:      slice.Label,
		Cost:       slice.Cost,
		FreeSpin:   freeSpin,
		CreatedAt:  now,
	}
	if err := s.commit(ctx, rec); err != nil {
		return nil, err
	}

	log.Info().
		Str("campaign_id", campaignID.String()).
		Str("user_id", userID).
		Int("slice_index", slice.Index).
		Str("reward_type", string(slice.Type)).
		Int64("cost", slice.Cost).
		Msg("spin committed")
	return rec, nil
}

// commit atomically records the spin and moves its cost through the ledger.
// The campaign row lock serializes concurrent spins against one budget; the
// affordability re-check under the lock catches any spend that landed between
// eligibility computation and here.
func (s *SpinService) commit(ctx context.Context, rec *model.SpinRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	locked, err := s.campaignRepo.GetForUpdate(ctx, tx, rec.CampaignID)
	if err != nil {
		return fmt.Errorf("lock campaign: %w", err)
	}
	if locked.Status != model.StatusLive {
		return ErrCampaignNotLive
	}
	if rec.Cost > locked.BudgetRemaining {
		return ErrBudgetRaceLost
	}

	if err := s.spinRepo.Insert(ctx, tx, rec); err != nil {
		return fmt.Errorf("insert spin: %w", err)
	}
	if err := s.campaignRepo.ApplySpin(ctx, tx, rec.CampaignID, rec.SliceIndex, rec.Cost); err != nil {
		return fmt.Errorf("apply spin: %w", err)
	}

	return tx.Commit(ctx)
}

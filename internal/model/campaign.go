package model

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusDraft  CampaignStatus = "draft"
	StatusLive   CampaignStatus = "live"
	StatusPaused CampaignStatus = "paused"
	StatusEnded  CampaignStatus = "ended"
)

// PacingMode controls how spend is spread over the life of a campaign.
type PacingMode string

const (
	// ModeAuto paces spend toward TotalBudget over TargetSpins spins.
	ModeAuto PacingMode = "auto"
	// ModeTargetExpenseRate caps spend per calendar day and per rolling spin window.
	ModeTargetExpenseRate PacingMode = "target_expense_rate"
	// ModeManual applies only the budget filter and the cheap-biased draw.
	ModeManual PacingMode = "manual"
)

// SliceType tags what kind of reward a wheel slice awards.
type SliceType string

const (
	SliceCash     SliceType = "cash"
	SliceDiscount SliceType = "discount"
	SliceFreeSpin SliceType = "free_spin"
	SliceLose     SliceType = "lose"
)

// RewardSlice is one outcome on the wheel. Identity is the catalog index,
// which is stable for the life of the campaign. Cost is in cents.
type RewardSlice struct {
	Index       int       `json:"index"`
	Type        SliceType `json:"type"`
	Label       string    `json:"label"`
	Cost        int64     `json:"cost"`
	Color       string    `json:"color"`
	MaxWins     int       `json:"max_wins"` // -1 = unlimited
	CurrentWins int       `json:"current_wins"`
}

// Campaign is a wheel campaign together with its budget ledger and fairness
// settings. The ledger fields (BudgetSpent, BudgetRemaining, TotalSpins) are
// mutated only inside the spin commit transaction.
type Campaign struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Status CampaignStatus `json:"status"`

	TotalBudget     int64 `json:"total_budget"` // cents
	BudgetSpent     int64 `json:"budget_spent"`
	BudgetRemaining int64 `json:"budget_remaining"`
	TotalSpins      int64 `json:"total_spins"`

	Mode                         PacingMode `json:"mode"`
	TargetSpins                  int64      `json:"target_spins"`
	TargetExpensePerDay          int64      `json:"target_expense_per_day"`
	TargetExpensePerRollingSpins int64      `json:"target_expense_per_rolling_spins"`
	RollingSpinWindowSize        int        `json:"rolling_spin_window_size"`

	SpinsPerWindow  int  `json:"spins_per_window"` // -1 = unlimited
	FreeSpinNoChain bool `json:"free_spin_no_chain"`

	CreatedAt time.Time `json:"-"` // Not exposed in API

	Slices []RewardSlice `json:"slices"`
}

// AveragePayout returns budget spent per committed spin, 0 before the first spin.
func (c *Campaign) AveragePayout() int64 {
	if c.TotalSpins == 0 {
		return 0
	}
	return c.BudgetSpent / c.TotalSpins
}

// PerSpinBudget returns the average amount each spin may cost if the whole
// budget is to last exactly TargetSpins spins. 0 when no target is set.
func (c *Campaign) PerSpinBudget() int64 {
	if c.TargetSpins <= 0 {
		return 0
	}
	return c.TotalBudget / c.TargetSpins
}

// CampaignResponse is the API response DTO for GET /api/campaigns/:id.
type CampaignResponse struct {
	Campaign
	AveragePayoutPerSpin int64 `json:"average_payout_per_spin"`
}

// SliceSpec describes one slice in a campaign creation request.
type SliceSpec struct {
	Type    string `json:"type" validate:"required,oneof=cash discount free_spin lose"`
	Label   string `json:"label" validate:"required,notblank,max=255"`
	Cost    *int64 `json:"cost" validate:"required,gte=0"`
	Color   string `json:"color" validate:"slicecolor,max=32"`
	MaxWins *int   `json:"max_wins" validate:"omitempty,gte=-1"`
}

// CreateCampaignRequest is the DTO for creating a campaign with its catalog.
type CreateCampaignRequest struct {
	Name                         string      `json:"name" validate:"required,notblank,max=255"`
	TotalBudget                  *int64      `json:"total_budget" validate:"required,gte=0"`
	Mode                         string      `json:"mode" validate:"required,oneof=auto target_expense_rate manual"`
	TargetSpins                  int64       `json:"target_spins" validate:"gte=0"`
	TargetExpensePerDay          int64       `json:"target_expense_per_day" validate:"gte=0"`
	TargetExpensePerRollingSpins int64       `json:"target_expense_per_rolling_spins" validate:"gte=0"`
	RollingSpinWindowSize        int         `json:"rolling_spin_window_size" validate:"gte=0"`
	SpinsPerWindow               *int        `json:"spins_per_window" validate:"omitempty,gte=-1"`
	FreeSpinNoChain              bool        `json:"free_spin_no_chain"`
	Slices                       []SliceSpec `json:"slices" validate:"required,min=2,dive"`
}

// UpdateCampaignStatusRequest is the DTO for PATCH /api/campaigns/:id/status.
type UpdateCampaignStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft live paused ended"`
}

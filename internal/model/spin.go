package model

import (
	"time"

	"github.com/google/uuid"
)

// SpinRecord is the append-only audit entry for one committed spin. SliceType,
// Label and Cost are copied from the slice at win time so history stays stable
// even if the catalog is later edited.
type SpinRecord struct {
	ID         uuid.UUID `json:"id"`
	CampaignID uuid.UUID `json:"campaign_id"`
	SliceIndex int       `json:"slice_index"`
	UserID     string    `json:"user_id"`
	SliceType  SliceType `json:"slice_type"`
	Label      string    `json:"label"`
	Cost       int64     `json:"cost"`
	FreeSpin   bool      `json:"free_spin"` // the spin itself was a free-spin redemption
	CreatedAt  time.Time `json:"created_at"`
}

// UserSpinStats summarizes one user's recent history against a campaign,
// used for rate-limit and free-spin-cap checks.
type UserSpinStats struct {
	SpinsInWindow   int
	OldestInWindow  time.Time // zero when SpinsInWindow == 0
	FreeSpinWins24h int
}

// PacingSpend is the recent-spend snapshot consulted by expense-rate pacing.
type PacingSpend struct {
	Today   int64 // spend since midnight UTC
	Rolling int64 // spend across the last RollingSpinWindowSize spins
}

// SpinRequest is the DTO for POST /api/spin.
type SpinRequest struct {
	UserID     string `json:"user_id" validate:"required,notblank,max=255"`
	CampaignID string `json:"campaign_id" validate:"required,uuid"`
	FreeSpin   bool   `json:"free_spin"`
}

// SpinResponse is the DTO returned for a committed spin.
type SpinResponse struct {
	SpinID      string `json:"spin_id"`
	SliceIndex  int    `json:"slice_index"`
	RewardType  string `json:"reward_type"`
	RewardLabel string `json:"reward_label"`
	Cost        int64  `json:"cost"`
}

package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCampaignExists is returned when attempting to create a campaign whose name is taken
	ErrCampaignExists = errors.New("campaign already exists")

	// ErrCampaignNotFound is returned when a campaign cannot be found
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrCampaignNotLive is returned when spinning against a campaign that is not live
	ErrCampaignNotLive = errors.New("campaign not live")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidCatalog is returned when a catalog breaks the wheel invariants:
	// at least two slices, at least one of them zero-cost
	ErrInvalidCatalog = errors.New("catalog must have at least two slices and one zero-cost slice")

	// ErrNoEligibleSlices is returned when every slice is filtered out. With a
	// valid catalog this is unreachable and indicates broken campaign data.
	ErrNoEligibleSlices = errors.New("no eligible slices")

	// ErrBudgetRaceLost is returned when the budget moved under a spin between
	// eligibility computation and commit. The spin service retries internally;
	// callers only see this after the retry bound is exhausted.
	ErrBudgetRaceLost = errors.New("budget changed during spin, lost race")
)

// RateLimitError is returned when a user has used up their spins for the
// current window. ResetAt is when the oldest spin in the window ages out.
type RateLimitError struct {
	ResetAt time.Time
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("spin limit reached, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// Is allows errors.Is() to match any RateLimitError regardless of ResetAt.
func (e RateLimitError) Is(target error) bool {
	_, ok := target.(RateLimitError)
	return ok
}

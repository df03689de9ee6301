package service

import (
	"time"

	"github.com/playnexus/spinwheel/internal/model"
)

// Fairness windows. The spin window and the free-spin cap are fixed by the
// promotion design; the per-campaign knob is how many spins fit in the window.
const (
	spinWindow         = 12 * time.Hour
	freeSpinWindow     = 24 * time.Hour
	freeSpinCapPerUser = 1
)

// PacingTunables are the hand-tuned pacing constants, surfaced as
// configuration instead of literals.
type PacingTunables struct {
	// BudgetPressureThreshold is the fraction of total budget at which an
	// auto-mode campaign that has reached its target spin count stops paying out.
	BudgetPressureThreshold float64
	// BehindPaceOverrideChance is the probability that a behind-pace auto-mode
	// spin is steered toward above-average-cost slices.
	BehindPaceOverrideChance float64
}

// checkRateLimit gates the whole spin request before any slice filtering.
// Returns a RateLimitError carrying the moment the oldest spin in the window
// ages out.
func checkRateLimit(c *model.Campaign, stats model.UserSpinStats) error {
	if c.SpinsPerWindow < 0 {
		return nil
	}
	if stats.SpinsInWindow < c.SpinsPerWindow {
		return nil
	}
	return RateLimitError{ResetAt: stats.OldestInWindow.Add(spinWindow)}
}

// paceConstraintActive reports whether an auto-mode campaign must stop paying
// out: either it has run its target spin count while spend sits at or above
// the pressure threshold, or one more average-cost spin would overshoot the
// total budget.
func paceConstraintActive(c *model.Campaign, tun PacingTunables) bool {
	if c.Mode != model.ModeAuto || c.TargetSpins <= 0 {
		return false
	}
	if c.TotalSpins >= c.TargetSpins &&
		float64(c.BudgetSpent) >= tun.BudgetPressureThreshold*float64(c.TotalBudget) {
		return true
	}
	return c.BudgetSpent+c.PerSpinBudget() > c.TotalBudget
}

// computeEligibleSlices returns the catalog indices this spin may land on.
//
// Filtering order matters: the budget/pace cost filter runs first and falls
// back to zero-cost slices when it would empty the set; the free-spin cap and
// per-slice win caps then apply on top. An empty result means the campaign
// data violates the catalog invariants and the caller must treat it as a
// configuration error, never as a silent no-op.
func computeEligibleSlices(c *model.Campaign, stats model.UserSpinStats, isFreeSpin bool, tun PacingTunables) []int {
	zeroOnly := c.BudgetRemaining <= 0 || paceConstraintActive(c, tun)

	costOK := make([]bool, len(c.Slices))
	any := false
	for i, s := range c.Slices {
		if zeroOnly {
			costOK[i] = s.Cost == 0
		} else {
			costOK[i] = s.Cost <= c.BudgetRemaining
		}
		any = any || costOK[i]
	}
	if !any {
		// Affordability filtered out everything; fall back to zero-cost slices.
		for i, s := range c.Slices {
			costOK[i] = s.Cost == 0
		}
	}

	var eligible []int
	for i, s := range c.Slices {
		if !costOK[i] {
			continue
		}
		if s.MaxWins >= 0 && s.CurrentWins >= s.MaxWins {
			continue
		}
		if s.Type == model.SliceFreeSpin {
			if stats.FreeSpinWins24h >= freeSpinCapPerUser {
				continue
			}
			if isFreeSpin && c.FreeSpinNoChain {
				continue
			}
		}
		eligible = append(eligible, i)
	}
	return eligible
}

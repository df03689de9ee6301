package service

import (
	"sort"

	"github.com/playnexus/spinwheel/internal/model"
)

// selector performs the weighted draw over the eligible slice set. The random
// source is injected so tests can script every roll.
type selector struct {
	rnd func() float64
	tun PacingTunables
}

// pick chooses one slice index from eligible, which must be non-empty.
//
// The base draw is biased toward cheap outcomes: slices are ranked by
// ascending cost and the cheapest gets weight N down to 1 for the most
// expensive, so no eligible slice ever has zero probability. Pacing modes
// override the candidate set before the draw: auto mode occasionally widens a
// behind-pace campaign toward above-average-cost slices, expense-rate mode
// narrows to zero-cost slices once a spend cap is hit.
func (s *selector) pick(c *model.Campaign, eligible []int, spend model.PacingSpend) int {
	cand := s.applyModeOverride(c, eligible, spend)

	sorted := make([]int, len(cand))
	copy(sorted, cand)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := c.Slices[sorted[i]].Cost, c.Slices[sorted[j]].Cost
		if ci == cj {
			return sorted[i] < sorted[j]
		}
		return ci < cj
	})

	n := len(sorted)
	total := float64(n*(n+1)) / 2
	r := s.rnd() * total

	acc := 0.0
	for rank, idx := range sorted {
		acc += float64(n - rank)
		if r < acc {
			return idx
		}
	}
	// Unreachable while rnd stays in [0, 1); guard against a sloppy source.
	return sorted[n-1]
}

func (s *selector) applyModeOverride(c *model.Campaign, eligible []int, spend model.PacingSpend) []int {
	switch c.Mode {
	case model.ModeAuto:
		perSpin := c.PerSpinBudget()
		if perSpin <= 0 {
			return eligible
		}
		expected := c.TotalSpins * perSpin
		if c.BudgetSpent >= expected {
			return eligible
		}
		if s.rnd() >= s.tun.BehindPaceOverrideChance {
			return eligible
		}
		// Behind pace: steer toward slices costing more than the per-spin
		// average so big prizes surface across the campaign's life instead of
		// clustering at the end.
		var expensive []int
		for _, idx := range eligible {
			if c.Slices[idx].Cost > perSpin {
				expensive = append(expensive, idx)
			}
		}
		if len(expensive) > 0 {
			return expensive
		}

	case model.ModeTargetExpenseRate:
		capHit := (c.TargetExpensePerDay > 0 && spend.Today >= c.TargetExpensePerDay) ||
			(c.TargetExpensePerRollingSpins > 0 && spend.Rolling >= c.TargetExpensePerRollingSpins)
		if !capHit {
			return eligible
		}
		var free []int
		for _, idx := range eligible {
			if c.Slices[idx].Cost == 0 {
				free = append(free, idx)
			}
		}
		if len(free) > 0 {
			return free
		}
	}
	return eligible
}

package service

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playnexus/spinwheel/internal/model"
)

// scriptedRand returns a source that replays vals in order, cycling at the end.
func scriptedRand(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
}

func TestSelector_WeightsFavorCheapest(t *testing.T) {
	// Catalog costs 0,1,5,10 -> weights 4,3,2,1 over total 10. The draw value
	// walks the cumulative weights, so each draw lands in a known bucket.
	c := wheelCampaign(100, 0, 1, 5, 10)
	eligible := []int{0, 1, 2, 3}

	cases := []struct {
		name string
		roll float64
		want int
	}{
		{"lowest_roll", 0.0, 0},
		{"top_of_first_bucket", 0.39, 0},
		{"start_of_second_bucket", 0.40, 1},
		{"third_bucket", 0.75, 2},
		{"last_bucket", 0.99, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &selector{rnd: scriptedRand(tc.roll), tun: testTunables}
			got := s.pick(c, eligible, model.PacingSpend{})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSelector_SortsCandidatesByCost(t *testing.T) {
	// Catalog order differs from cost order; the cheapest slice must still get
	// the highest weight regardless of its catalog position.
	c := wheelCampaign(100, 10, 0, 5)
	eligible := []int{0, 1, 2}

	s := &selector{rnd: scriptedRand(0.0), tun: testTunables}
	got := s.pick(c, eligible, model.PacingSpend{})

	assert.Equal(t, 1, got, "lowest roll lands on the zero-cost slice at index 1")
}

func TestSelector_CheapBiasEmpirical(t *testing.T) {
	c := wheelCampaign(1_000_000, 0, 1, 5, 10)
	eligible := []int{0, 1, 2, 3}

	src := rand.New(rand.NewSource(42))
	s := &selector{rnd: src.Float64, tun: testTunables}

	counts := make(map[int]int)
	for i := 0; i < 10_000; i++ {
		counts[s.pick(c, eligible, model.PacingSpend{})]++
	}

	assert.Greater(t, counts[1], counts[3], "1-cost slice must be drawn more often than 10-cost")
	assert.Greater(t, counts[3], 0, "the most expensive slice never has zero probability")
}

func TestSelector_AutoBehindPace_OverrideTriggers(t *testing.T) {
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeAuto
	c.TargetSpins = 10 // per-spin average of 10
	c.TotalSpins = 4
	c.BudgetSpent = 10 // behind the expected 40
	c.BudgetRemaining = 90

	// First roll decides the override (0.1 < 0.30), second is the draw over
	// the above-average subset, which is just the 20-cost slice.
	s := &selector{rnd: scriptedRand(0.1, 0.0), tun: testTunables}
	got := s.pick(c, []int{0, 1, 2}, model.PacingSpend{})

	assert.Equal(t, 2, got)
}

func TestSelector_AutoBehindPace_OverrideRollFails(t *testing.T) {
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeAuto
	c.TargetSpins = 10
	c.TotalSpins = 4
	c.BudgetSpent = 10
	c.BudgetRemaining = 90

	// Override roll misses (0.9 >= 0.30); the normal cheap-biased draw runs.
	s := &selector{rnd: scriptedRand(0.9, 0.0), tun: testTunables}
	got := s.pick(c, []int{0, 1, 2}, model.PacingSpend{})

	assert.Equal(t, 0, got)
}

func TestSelector_AutoOnPace_NoOverrideRoll(t *testing.T) {
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeAuto
	c.TargetSpins = 10
	c.TotalSpins = 4
	c.BudgetSpent = 40 // exactly on pace
	c.BudgetRemaining = 60

	// Only one roll is consumed: the draw itself.
	s := &selector{rnd: scriptedRand(0.0), tun: testTunables}
	got := s.pick(c, []int{0, 1, 2}, model.PacingSpend{})

	assert.Equal(t, 0, got)
}

func TestSelector_AutoBehindPace_NoExpensiveCandidates(t *testing.T) {
	// Every eligible slice costs at most the per-spin average, so the override
	// has nothing to widen toward and the normal draw runs.
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeAuto
	c.TargetSpins = 10
	c.TotalSpins = 4
	c.BudgetSpent = 10
	c.BudgetRemaining = 90

	s := &selector{rnd: scriptedRand(0.1, 0.0), tun: testTunables}
	got := s.pick(c, []int{0, 1}, model.PacingSpend{})

	assert.Equal(t, 0, got)
}

func TestSelector_ExpenseRate_DayCapHit(t *testing.T) {
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeTargetExpenseRate
	c.TargetExpensePerDay = 50

	// Even the highest roll stays inside the zero-cost subset once the day cap is met.
	s := &selector{rnd: scriptedRand(0.99), tun: testTunables}
	got := s.pick(c, []int{0, 1, 2}, model.PacingSpend{Today: 50})

	assert.Equal(t, 0, got)
}

func TestSelector_ExpenseRate_RollingCapHit(t *testing.T) {
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeTargetExpenseRate
	c.TargetExpensePerRollingSpins = 30
	c.RollingSpinWindowSize = 20

	s := &selector{rnd: scriptedRand(0.99), tun: testTunables}
	got := s.pick(c, []int{0, 1, 2}, model.PacingSpend{Rolling: 35})

	assert.Equal(t, 0, got)
}

func TestSelector_ExpenseRate_UnderCap(t *testing.T) {
	c := wheelCampaign(100, 0, 1, 20)
	c.Mode = model.ModeTargetExpenseRate
	c.TargetExpensePerDay = 50

	s := &selector{rnd: scriptedRand(0.99), tun: testTunables}
	got := s.pick(c, []int{0, 1, 2}, model.PacingSpend{Today: 10})

	assert.Equal(t, 2, got, "under the cap, the normal draw can still land on the expensive slice")
}

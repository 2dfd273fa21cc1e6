package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

func TestSelectEvent_RollFails(t *testing.T) {
	src := entropy.NewSequence(0.3)
	_, ok := SelectEvent(DefaultRules(), testState(), src)
	assert.False(t, ok)
	assert.Equal(t, 1, src.Drawn(), "a failed roll draws nothing else")
}

func TestSelectEvent_DrawsParameters(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name  string
		draws []float64
		want  Event
	}{
		{
			name:  "crackdown",
			draws: []float64{0.1, 0.0, 0.4, 0.99},
			want:  Event{Kind: Crackdown, Commodity: economy.RageX, Amount: 5, Message: "Government Crackdown! You lost some stash."},
		},
		{
			name:  "tech glitch",
			draws: []float64{0.1, 0.3, 0.0},
			want:  Event{Kind: TechGlitch, Amount: 1, Message: "Tech Glitch! You lost some cash."},
		},
		{
			name:  "crazy low",
			draws: []float64{0.1, 0.5, 0.9},
			want:  Event{Kind: CrazyLow, Commodity: economy.LifeLoop, Message: "Life Loop is selling at crazy low rates!"},
		},
		{
			name:  "high demand",
			draws: []float64{0.1, 0.65, 0.0, 0.0},
			want: Event{Kind: HighDemand, Commodity: economy.LustForge, Location: world.NewYork,
				Message: "Addicts in New York will pay anything for Lust Forge!"},
		},
		{
			name:  "cheap stash",
			draws: []float64{0.1, 0.8, 0.2, 0.99},
			want: Event{Kind: CheapStash, Commodity: economy.EuphoriaHit, Location: world.SanFrancisco,
				Message: "Go to San Francisco for cheap Euphoria Hit. Limited stash!"},
		},
		{
			name:  "upgrade offer",
			draws: []float64{0.1, 0.95, 0.0},
			want:  Event{Kind: StashUpgrade, Amount: 250, Message: "A fixer offers 50 more stash space for $250. Deal?"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := SelectEvent(r, testState(), entropy.NewSequence(tt.draws...))
			require.True(t, ok)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestEligible_UpgradeOnlyBelowCap(t *testing.T) {
	r := DefaultRules()
	s := testState()
	assert.Contains(t, Eligible(r, s), StashUpgrade)

	s.Upgrades = r.MaxUpgrades
	kinds := Eligible(r, s)
	assert.NotContains(t, kinds, StashUpgrade)
	assert.Len(t, kinds, 6)
}

func TestSelectEvent_RateAndSpread(t *testing.T) {
	r := DefaultRules()
	src := entropy.NewSeeded(5)
	s := testState()

	n, fired := 70000, 0
	counts := map[EventKind]int{}
	for i := 0; i < n; i++ {
		if ev, ok := SelectEvent(r, s, src); ok {
			fired++
			counts[ev.Kind]++
		}
	}
	assert.InDelta(t, 0.3, float64(fired)/float64(n), 0.01)
	require.Len(t, counts, len(pool))
	for kind, c := range counts {
		assert.InDelta(t, 1.0/7, float64(c)/float64(fired), 0.015, kind)
	}
}

func TestDrawEvent_TipsNeverTargetCurrentCity(t *testing.T) {
	r := DefaultRules()
	src := entropy.NewSeeded(11)
	for _, loc := range world.Locations() {
		s := testState()
		s.Location = loc
		for i := 0; i < 500; i++ {
			for _, kind := range []EventKind{HighDemand, CheapStash} {
				ev := DrawEvent(r, s, kind, src)
				require.NotEqual(t, loc, ev.Location)
				require.True(t, ev.Location.Valid())
			}
		}
	}
}

func TestApplyEvent_Effects(t *testing.T) {
	r := DefaultRules()

	t.Run("crackdown clamps at zero", func(t *testing.T) {
		s := testState()
		s.Inventory[economy.RageX] = 3
		next := ApplyEvent(r, s, Event{Kind: Crackdown, Commodity: economy.RageX, Amount: 5})
		assert.Equal(t, 0, next.Inventory[economy.RageX])
		assert.Equal(t, 3, s.Inventory[economy.RageX], "input state must not change")
	})

	t.Run("crackdown partial", func(t *testing.T) {
		s := testState()
		s.Inventory[economy.RageX] = 10
		next := ApplyEvent(r, s, Event{Kind: Crackdown, Commodity: economy.RageX, Amount: 4})
		assert.Equal(t, 6, next.Inventory[economy.RageX])
	})

	t.Run("cash penalties clamp at zero", func(t *testing.T) {
		for _, kind := range []EventKind{Overdose, TechGlitch} {
			s := testState()
			s.Cash = 120
			next := ApplyEvent(r, s, Event{Kind: kind, Amount: 300})
			assert.Equal(t, 0, next.Cash, kind)

			s.Cash = 500
			next = ApplyEvent(r, s, Event{Kind: kind, Amount: 300})
			assert.Equal(t, 200, next.Cash, kind)
		}
	})

	t.Run("crazy low rates", func(t *testing.T) {
		next := ApplyEvent(r, testState(), Event{Kind: CrazyLow, Commodity: economy.ScentHeaven})
		price, _ := next.Prices.Of(economy.ScentHeaven)
		assert.Equal(t, 300, price)
		other, _ := next.Prices.Of(economy.RageX)
		assert.Equal(t, 50, other)
	})

	t.Run("tips replace same kind only", func(t *testing.T) {
		s := testState()
		s = ApplyEvent(r, s, Event{Kind: HighDemand, Commodity: economy.RageX, Location: world.Bangkok})
		s = ApplyEvent(r, s, Event{Kind: CheapStash, Commodity: economy.LifeLoop, Location: world.Singapore})
		s = ApplyEvent(r, s, Event{Kind: HighDemand, Commodity: economy.LustForge, Location: world.NewYork})

		require.Len(t, s.Overrides, 2)
		high, ok := s.PendingOverride(High)
		require.True(t, ok)
		assert.Equal(t, Override{Kind: High, Commodity: economy.LustForge, Location: world.NewYork}, high)
		low, ok := s.PendingOverride(Low)
		require.True(t, ok)
		assert.Equal(t, world.Singapore, low.Location)
	})

	t.Run("upgrade offer opens", func(t *testing.T) {
		next := ApplyEvent(r, testState(), Event{Kind: StashUpgrade, Amount: 420})
		require.NotNil(t, next.Offer)
		assert.Equal(t, UpgradeOffer{Price: 420, Capacity: 50}, *next.Offer)
		require.NotNil(t, next.LastEvent)
		assert.Equal(t, StashUpgrade, next.LastEvent.Kind)
	})
}

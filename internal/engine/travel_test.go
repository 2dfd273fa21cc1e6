package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

// quiet draws 0.5 for every price and fails the 0.3 event roll.
func quiet() entropy.Source { return entropy.NewSequence(0.5) }

func TestTravel_OpeningScenario(t *testing.T) {
	r := DefaultRules()
	s := testState()

	s, _, err := Buy(s, economy.LustForge, 2)
	require.NoError(t, err)
	require.Equal(t, 1900, s.Cash)
	require.Equal(t, 2, s.Inventory[economy.LustForge])

	next, report, err := Travel(r, s, world.NewYork, quiet())
	require.NoError(t, err)

	assert.Equal(t, 2, next.Day)
	assert.Equal(t, world.NewYork, next.Location)
	assert.Equal(t, world.Bangalore, report.From)
	assert.Equal(t, world.NewYork, report.To)
	assert.Nil(t, report.Event)
	assert.Nil(t, report.Override)
	assert.False(t, next.Over)
	assert.Equal(t, 1900, next.Cash)

	require.Len(t, next.Prices, 6)
	for _, q := range next.Prices {
		rng, _ := economy.RangeOf(q.Commodity)
		want := economy.GeneratePrice(entropy.NewSequence(0.5), r.PriceModel, rng.Min, rng.Max)
		assert.Equal(t, want, q.Price, q.Commodity)
	}
	assert.Equal(t, 1, s.Day, "input state must not change")
}

func TestTravel_Rejections(t *testing.T) {
	r := DefaultRules()
	tests := []struct {
		name    string
		mutate  func(*State)
		dest    world.Location
		wantErr error
	}{
		{"same city", nil, world.Bangalore, ErrSameLocation},
		{"unknown city", nil, world.Location("Atlantis"), world.ErrUnknownLocation},
		{"offer open", func(s *State) { s.Offer = &UpgradeOffer{Price: 400, Capacity: 50} }, world.Bangkok, ErrOfferPending},
		{"game over", func(s *State) { s.Over = true }, world.Bangkok, ErrGameOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testState()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			next, _, err := Travel(r, s, tt.dest, quiet())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, s.Day, next.Day)
			assert.Equal(t, s.Location, next.Location)
		})
	}
}

func TestTravel_HighOverrideForcesPrice(t *testing.T) {
	s := testState()
	s.Overrides = []Override{{Kind: High, Commodity: economy.RageX, Location: world.Singapore}}

	next, report, err := Travel(DefaultRules(), s, world.Singapore, quiet())
	require.NoError(t, err)

	price, _ := next.Prices.Of(economy.RageX)
	assert.Equal(t, 225, price)
	require.NotNil(t, report.Override)
	assert.Equal(t, High, report.Override.Kind)
	assert.Empty(t, next.Overrides)
	assert.Len(t, s.Overrides, 1, "input state must not change")
}

func TestTravel_LowOverrideForcesPrice(t *testing.T) {
	s := testState()
	s.Overrides = []Override{{Kind: Low, Commodity: economy.LifeLoop, Location: world.Bangkok}}

	next, _, err := Travel(DefaultRules(), s, world.Bangkok, quiet())
	require.NoError(t, err)

	price, _ := next.Prices.Of(economy.LifeLoop)
	assert.Equal(t, 750, price)
	_, pending := next.PendingOverride(Low)
	assert.False(t, pending)
}

func TestTravel_HighTakesPrecedenceOverLow(t *testing.T) {
	s := testState()
	s.Overrides = []Override{
		{Kind: Low, Commodity: economy.RageX, Location: world.Bangkok},
		{Kind: High, Commodity: economy.LustForge, Location: world.Bangkok},
	}

	next, report, err := Travel(DefaultRules(), s, world.Bangkok, quiet())
	require.NoError(t, err)

	price, _ := next.Prices.Of(economy.LustForge)
	assert.Equal(t, 1200, price)
	assert.Equal(t, High, report.Override.Kind)

	low, pending := next.PendingOverride(Low)
	require.True(t, pending, "low override waits for the next arrival")
	assert.Equal(t, economy.RageX, low.Commodity)
}

func TestTravel_OverrideElsewhereStaysPending(t *testing.T) {
	s := testState()
	s.Overrides = []Override{{Kind: High, Commodity: economy.RageX, Location: world.Singapore}}

	next, report, err := Travel(DefaultRules(), s, world.NewYork, quiet())
	require.NoError(t, err)
	assert.Nil(t, report.Override)
	assert.Len(t, next.Overrides, 1)
}

func TestTravel_EventFires(t *testing.T) {
	// Six price draws, a winning roll, Overdose (index 1 of 7), penalty 298.
	src := entropy.NewSequence(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.0, 0.15, 0.99)

	next, report, err := Travel(DefaultRules(), testState(), world.NewYork, src)
	require.NoError(t, err)
	require.NotNil(t, report.Event)
	assert.Equal(t, Overdose, report.Event.Kind)
	assert.Equal(t, 298, report.Event.Amount)
	assert.Equal(t, 2202, next.Cash)
	assert.Equal(t, report.Event, next.LastEvent)
}

func TestTravel_FinalDayEndsGame(t *testing.T) {
	r := DefaultRules()
	s := testState()
	s.Day = r.Days - 1
	s.Inventory[economy.RageX] = 4

	next, report, err := Travel(r, s, world.Bangkok, quiet())
	require.NoError(t, err)
	assert.True(t, next.Over)
	assert.True(t, report.GameOver)
	assert.Equal(t, r.Days, next.Day)
	assert.Equal(t, next.Cash, report.Score)

	cash, day := next.Cash, next.Day
	after, _, err := Travel(r, next, world.Singapore, quiet())
	assert.ErrorIs(t, err, ErrGameOver)
	after, _, err2 := Buy(after, economy.RageX, 1)
	assert.ErrorIs(t, err2, ErrGameOver)
	after, _, err3 := Sell(after, economy.RageX, 1)
	assert.ErrorIs(t, err3, ErrGameOver)
	_, err4 := AcceptOffer(after)
	assert.ErrorIs(t, err4, ErrGameOver)

	assert.Equal(t, cash, after.Cash)
	assert.Equal(t, day, after.Day)
}

func TestTravel_GameOverVoidsOffer(t *testing.T) {
	r := DefaultRules()
	s := testState()
	s.Day = r.Days - 1
	// Prices, winning roll, StashUpgrade (index 6 of 7), price 250.
	src := entropy.NewSequence(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.0, 0.95, 0.0)

	next, report, err := Travel(r, s, world.Bangkok, src)
	require.NoError(t, err)
	require.NotNil(t, report.Event)
	assert.Equal(t, StashUpgrade, report.Event.Kind)
	assert.True(t, next.Over)
	assert.Nil(t, next.Offer)
}

func TestTravel_FullGameFromSeed(t *testing.T) {
	r := DefaultRules()
	src := entropy.NewSeeded(77)
	s := NewGame(r, src)

	for !s.Over {
		if s.Offer != nil {
			var err error
			s, err = DeclineOffer(s)
			require.NoError(t, err)
		}
		dests := world.Destinations(s.Location)
		var err error
		s, _, err = Travel(r, s, dests[s.Day%len(dests)], src)
		require.NoError(t, err)
		require.GreaterOrEqual(t, s.Cash, 0)
		require.LessOrEqual(t, len(s.Overrides), 2)
	}
	assert.Equal(t, r.Days, s.Day)
}

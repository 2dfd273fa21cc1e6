package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/blackmarket/internal/economy"
	"github.com/talgya/blackmarket/internal/entropy"
	"github.com/talgya/blackmarket/internal/world"
)

func withOffer(price int) State {
	s := testState()
	s.Offer = &UpgradeOffer{Price: price, Capacity: 50}
	return s
}

func TestAcceptOffer(t *testing.T) {
	next, err := AcceptOffer(withOffer(400))
	require.NoError(t, err)
	assert.Equal(t, 2100, next.Cash)
	assert.Equal(t, 150, next.Capacity)
	assert.Equal(t, 1, next.Upgrades)
	assert.Nil(t, next.Offer)

	_, err = AcceptOffer(next)
	assert.ErrorIs(t, err, ErrNoOffer, "an offer cannot be taken twice")
}

func TestAcceptOffer_NotEnoughCashKeepsOffer(t *testing.T) {
	s := withOffer(700)
	s.Cash = 699
	next, err := AcceptOffer(s)
	assert.ErrorIs(t, err, ErrNotEnoughCash)
	require.NotNil(t, next.Offer)
	assert.Equal(t, 100, next.Capacity)

	next, err = DeclineOffer(next)
	require.NoError(t, err)
	assert.Nil(t, next.Offer)
	assert.Equal(t, 699, next.Cash)
}

func TestDeclineOffer(t *testing.T) {
	s := withOffer(300)
	next, err := DeclineOffer(s)
	require.NoError(t, err)
	assert.Nil(t, next.Offer)
	assert.Equal(t, s.Cash, next.Cash)
	assert.Equal(t, s.Capacity, next.Capacity)
	assert.NotNil(t, s.Offer, "input state must not change")

	_, err = DeclineOffer(next)
	assert.ErrorIs(t, err, ErrNoOffer)
}

func TestOffer_UnlocksExtraCapacity(t *testing.T) {
	s := withOffer(250)
	s.Cash = 100_000
	_, _, err := Buy(s, economy.RageX, 1)
	require.ErrorIs(t, err, ErrOfferPending)

	s, err = AcceptOffer(s)
	require.NoError(t, err)
	s, _, err = Buy(s, economy.RageX, 150)
	require.NoError(t, err)
	assert.Equal(t, 150, s.Held())

	_, _, err = Buy(s, economy.RageX, 1)
	assert.ErrorIs(t, err, ErrInventoryFull)
}

func TestRules_Validate(t *testing.T) {
	require.NoError(t, DefaultRules().Validate())

	tests := []struct {
		name   string
		mutate func(*Rules)
	}{
		{"negative cash", func(r *Rules) { r.StartCash = -1 }},
		{"one day", func(r *Rules) { r.Days = 1 }},
		{"no capacity", func(r *Rules) { r.StartCapacity = 0 }},
		{"inverted offer range", func(r *Rules) { r.OfferMinPrice = 900 }},
		{"chance above one", func(r *Rules) { r.EventChance = 1.5 }},
		{"zero penalty", func(r *Rules) { r.CashPenaltyMax = 0 }},
		{"bad model", func(r *Rules) { r.PriceModel = "gaussian" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := DefaultRules()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestNewGame_OpeningState(t *testing.T) {
	r := DefaultRules()
	s := NewGame(r, entropy.NewSeeded(3))
	assert.Equal(t, 2500, s.Cash)
	assert.Equal(t, 1, s.Day)
	assert.Equal(t, world.Bangalore, s.Location)
	assert.Equal(t, 100, s.Capacity)
	assert.Len(t, s.Inventory, 6)
	assert.Len(t, s.Prices, 6)
	assert.Zero(t, s.Held())
	assert.False(t, s.Over)
}

func TestEngine_CallbacksAndJournal(t *testing.T) {
	r := DefaultRules()
	r.Days = 3
	e := NewEngine(r, entropy.NewSequence(0.5))

	turns, overs := 0, 0
	e.OnTurn = func(TurnReport) { turns++ }
	e.OnGameOver = func(s State) {
		overs++
		assert.True(t, s.Over)
	}

	_, err := e.Buy(economy.RageX, 2)
	require.NoError(t, err)
	_, err = e.Sell(economy.RageX, 1)
	require.NoError(t, err)

	_, err = e.Travel(world.Bangkok)
	require.NoError(t, err)
	report, err := e.Travel(world.Singapore)
	require.NoError(t, err)
	assert.True(t, report.GameOver)

	_, err = e.Travel(world.NewYork)
	assert.ErrorIs(t, err, ErrGameOver)

	assert.Equal(t, 2, turns)
	assert.Equal(t, 1, overs)
	assert.Equal(t, 1, e.State.Inventory[economy.RageX])

	last := e.Journal[len(e.Journal)-1]
	assert.Equal(t, CategoryGameOver, last.Category)
	assert.Equal(t, 3, last.Day)
	assert.Equal(t, CategoryTravel, e.Journal[0].Category)

	e.Restart()
	assert.Equal(t, 1, e.State.Day)
	assert.False(t, e.State.Over)
	assert.Len(t, e.Journal, 1)
}

func TestEngine_AnswerOffer(t *testing.T) {
	e := NewEngine(DefaultRules(), entropy.NewSequence(0.5))
	assert.ErrorIs(t, e.Answer(true), ErrNoOffer)

	e.State.Offer = &UpgradeOffer{Price: 500, Capacity: 50}
	require.NoError(t, e.Answer(true))
	assert.Equal(t, 150, e.State.Capacity)
	assert.Equal(t, CategoryUpgrade, e.Journal[len(e.Journal)-1].Category)

	e.State.Offer = &UpgradeOffer{Price: 500, Capacity: 50}
	require.NoError(t, e.Answer(false))
	assert.Equal(t, 150, e.State.Capacity)
	assert.Nil(t, e.State.Offer)
}

func TestEngine_EventCallback(t *testing.T) {
	// Prices, winning roll, Crazy Low (index 3), Rage X.
	src := entropy.NewSequence(0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.0, 0.5, 0.4)
	e := NewEngine(DefaultRules(), src)

	var got []Event
	e.OnEvent = func(ev Event) { got = append(got, ev) }

	_, err := e.Travel(world.NewYork)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, CrazyLow, got[0].Kind)

	price, _ := e.State.Prices.Of(economy.RageX)
	assert.Equal(t, 5, price)
	assert.Equal(t, got[0].Message, e.Journal[len(e.Journal)-1].Description)
}

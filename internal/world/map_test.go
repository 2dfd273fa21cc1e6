package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinations_ExcludesOrigin(t *testing.T) {
	for _, from := range Locations() {
		dests := Destinations(from)
		assert.Len(t, dests, 4)
		assert.NotContains(t, dests, from)
	}
}

func TestParseLocation(t *testing.T) {
	l, err := ParseLocation("new york")
	require.NoError(t, err)
	assert.Equal(t, NewYork, l)
	assert.True(t, l.Valid())

	_, err = ParseLocation("Atlantis")
	assert.ErrorIs(t, err, ErrUnknownLocation)
	assert.False(t, Location("Atlantis").Valid())
}

func TestLocations_IsACopy(t *testing.T) {
	ls := Locations()
	ls[0] = "Nowhere"
	assert.Equal(t, Bangalore, Locations()[0])
	assert.Equal(t, Bangalore, Start)
}

// Package world holds the fixed set of cities a trader can travel between.
package world

import (
	"errors"
	"fmt"
	"strings"
)

// Location is a city name.
type Location string

const (
	Bangalore    Location = "Bangalore"
	NewYork      Location = "New York"
	Bangkok      Location = "Bangkok"
	Singapore    Location = "Singapore"
	SanFrancisco Location = "San Francisco"
)

// Start is where every game begins.
const Start = Bangalore

// ErrUnknownLocation is returned for names that are not on the map.
var ErrUnknownLocation = errors.New("unknown location")

var locations = [...]Location{Bangalore, NewYork, Bangkok, Singapore, SanFrancisco}

// Locations returns all cities in map order.
func Locations() []Location {
	out := make([]Location, len(locations))
	copy(out, locations[:])
	return out
}

// Destinations returns every city except from, in map order.
func Destinations(from Location) []Location {
	out := make([]Location, 0, len(locations)-1)
	for _, l := range locations {
		if l != from {
			out = append(out, l)
		}
	}
	return out
}

// Valid reports whether l is on the map.
func (l Location) Valid() bool {
	for _, known := range locations {
		if known == l {
			return true
		}
	}
	return false
}

// ParseLocation matches a city name case-insensitively.
func ParseLocation(name string) (Location, error) {
	name = strings.TrimSpace(name)
	for _, l := range locations {
		if strings.EqualFold(string(l), name) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLocation, name)
}

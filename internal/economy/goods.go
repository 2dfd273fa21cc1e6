// Package economy holds the commodity catalogue and the price generators.
package economy

import (
	"fmt"
	"sort"
	"strings"
)

// Commodity identifies one of the six tradeable goods.
type Commodity string

const (
	LustForge   Commodity = "Lust Forge"
	EuphoriaHit Commodity = "Euphoria Hit"
	RageX       Commodity = "Rage X"
	TraumaFlush Commodity = "Trauma Flush"
	ScentHeaven Commodity = "Scent Heaven"
	LifeLoop    Commodity = "Life Loop"
)

// Range bounds a commodity's regular price, inclusive on both ends.
type Range struct {
	Commodity Commodity `json:"commodity"`
	Min       int       `json:"min"`
	Max       int       `json:"max"`
}

// ranges is the fixed catalogue in display order. Never mutated.
var ranges = [...]Range{
	{LustForge, 300, 800},
	{EuphoriaHit, 150, 650},
	{RageX, 10, 150},
	{TraumaFlush, 400, 1500},
	{ScentHeaven, 600, 2000},
	{LifeLoop, 1500, 6000},
}

// Commodities returns the six commodities in catalogue order.
func Commodities() []Commodity {
	out := make([]Commodity, len(ranges))
	for i, r := range ranges {
		out[i] = r.Commodity
	}
	return out
}

// Ranges returns a copy of the catalogue.
func Ranges() []Range {
	out := make([]Range, len(ranges))
	copy(out, ranges[:])
	return out
}

// RangesByMinDesc returns the catalogue sorted by minimum price, highest first.
func RangesByMinDesc() []Range {
	out := Ranges()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Min > out[j].Min })
	return out
}

// RangeOf returns the price range for c.
func RangeOf(c Commodity) (Range, bool) {
	for _, r := range ranges {
		if r.Commodity == c {
			return r, true
		}
	}
	return Range{}, false
}

// ParseCommodity matches a name case-insensitively.
func ParseCommodity(name string) (Commodity, error) {
	name = strings.TrimSpace(name)
	for _, r := range ranges {
		if strings.EqualFold(string(r.Commodity), name) {
			return r.Commodity, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommodity, name)
}

// HighPrice is the forced price when buyers "will pay anything": max * 1.5.
func (r Range) HighPrice() int {
	return r.Max * 3 / 2
}

// LowPrice is the forced bargain price: floor(min * 0.5).
func (r Range) LowPrice() int {
	return r.Min / 2
}

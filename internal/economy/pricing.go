package economy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/talgya/blackmarket/internal/entropy"
)

// ErrUnknownCommodity is returned for names outside the catalogue.
var ErrUnknownCommodity = errors.New("unknown commodity")

// PriceModel selects the distribution used for regular prices.
type PriceModel string

const (
	// Uniform spreads prices evenly across the range.
	Uniform PriceModel = "uniform"
	// Biased pushes prices toward the ends of the range through an S-curve,
	// so markets tend to be either cheap or expensive rather than middling.
	Biased PriceModel = "biased"
)

// ParsePriceModel validates a configured model name. Empty means Biased.
func ParsePriceModel(s string) (PriceModel, error) {
	switch PriceModel(s) {
	case "", Biased:
		return Biased, nil
	case Uniform:
		return Uniform, nil
	}
	return "", fmt.Errorf("unknown price model %q", s)
}

// curve maps a uniform draw onto the model's distribution.
func (m PriceModel) curve(r float64) float64 {
	if m != Biased {
		return r
	}
	if r < 0.5 {
		return r * r
	}
	return 1 - (1-r)*(1-r)
}

// GeneratePrice draws an integer price in [min, max].
func GeneratePrice(src entropy.Source, model PriceModel, min, max int) int {
	if max < min {
		min, max = max, min
	}
	span := float64(max - min + 1)
	price := int(math.Floor(model.curve(src.Float())*span)) + min
	// r is below 1, but r*span can still round up to span for wide ranges.
	if price > max {
		price = max
	}
	return price
}

// Quote is one commodity's price for the current turn.
type Quote struct {
	Commodity Commodity `json:"commodity"`
	Price     int       `json:"price"`
}

// Prices is a full price board: one quote per commodity, catalogue order.
type Prices []Quote

// GenerateAll draws a fresh price for every commodity.
func GenerateAll(src entropy.Source, model PriceModel) Prices {
	out := make(Prices, len(ranges))
	for i, r := range ranges {
		out[i] = Quote{Commodity: r.Commodity, Price: GeneratePrice(src, model, r.Min, r.Max)}
	}
	return out
}

// Of returns the price for c.
func (p Prices) Of(c Commodity) (int, bool) {
	for _, q := range p {
		if q.Commodity == c {
			return q.Price, true
		}
	}
	return 0, false
}

// With returns a copy of p with c forced to price.
func (p Prices) With(c Commodity, price int) Prices {
	out := make(Prices, len(p))
	copy(out, p)
	for i := range out {
		if out[i].Commodity == c {
			out[i].Price = price
		}
	}
	return out
}

// SortedByPrice returns a copy ordered from most to least expensive.
func (p Prices) SortedByPrice() Prices {
	out := make(Prices, len(p))
	copy(out, p)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

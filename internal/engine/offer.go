package engine

// AcceptOffer pays for the open upgrade and grows the stash. Without enough
// cash the offer stays open so it can still be declined.
func AcceptOffer(s State) (State, error) {
	if s.Over {
		return s, ErrGameOver
	}
	if s.Offer == nil {
		return s, ErrNoOffer
	}
	if s.Cash < s.Offer.Price {
		return s, ErrNotEnoughCash
	}
	next := s.Clone()
	next.Cash -= s.Offer.Price
	next.Capacity += s.Offer.Capacity
	next.Upgrades++
	next.Offer = nil
	return next, nil
}

// DeclineOffer closes the open upgrade offer without changing anything else.
func DeclineOffer(s State) (State, error) {
	if s.Over {
		return s, ErrGameOver
	}
	if s.Offer == nil {
		return s, ErrNoOffer
	}
	next := s.Clone()
	next.Offer = nil
	return next, nil
}

package matching

// BidOfferMatch is one recommended pairing, ready to be submitted to the
// exchange for clearing. Instances are immutable output: the engine builds
// them and never touches them again.
type BidOfferMatch struct {
	MarketID       string   `json:"market_id"`
	TimeSlot       string   `json:"time_slot"`
	Bids           []*Order `json:"bids"`
	Offers         []*Order `json:"offers"`
	SelectedEnergy float64  `json:"selected_energy"`
	TradeRate      float64  `json:"trade_rate"`
}

// NewBidOfferMatch assembles the recommendation record for a matched pair.
// Validation is the calling algorithm's job; this only shapes the record.
// An empty time slot falls back to the bid's own slot.
func NewBidOfferMatch(marketID, timeSlot string, bid, offer *Order, selectedEnergy, tradeRate float64) *BidOfferMatch {
	if timeSlot == "" {
		timeSlot = bid.TimeSlot
	}
	return &BidOfferMatch{
		MarketID:       marketID,
		TimeSlot:       timeSlot,
		Bids:           []*Order{bid},
		Offers:         []*Order{offer},
		SelectedEnergy: selectedEnergy,
		TradeRate:      tradeRate,
	}
}

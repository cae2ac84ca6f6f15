package matching

import "math"

// PayAsBid is the baseline greedy matcher. Per market and time slot it
// walks offers and bids in descending rate order and pairs an offer with
// the first unclaimed bid willing to pay at least the offer's ask, clearing
// at the bid's rate.
//
// Policy note: an offer stops at its first crossing bid, and a claimed bid
// is excluded from every later offer even when only partially filled, so
// residual energy on either side stays untraded within the invocation.
// The exchange's reference matchers all behave this way; keep it for
// compatibility rather than generalizing to multi-fill.
type PayAsBid struct{}

func (PayAsBid) Match(snapshot Snapshot) []*BidOfferMatch {
	var matches []*BidOfferMatch
	for _, marketID := range snapshot.marketIDs() {
		slots := snapshot[marketID]
		for _, timeSlot := range sortedSlots(slots) {
			matches = append(matches, matchBatch(marketID, timeSlot, slots[timeSlot])...)
		}
	}
	return matches
}

// matchBatch runs one pay-as-bid pass over a single market time slot.
// Recommendations come out in offer processing order (descending rate).
func matchBatch(marketID, timeSlot string, batch *OrderBatch) []*BidOfferMatch {
	if batch == nil || len(batch.Bids) == 0 || len(batch.Offers) == 0 {
		return nil
	}
	bids := sortByRateDescending(validOrders(batch.Bids))
	offers := sortByRateDescending(validOrders(batch.Offers))

	var pairs []*BidOfferMatch
	claimed := make(map[string]struct{}, len(bids))
	for _, offer := range offers {
		for _, bid := range bids {
			if _, ok := claimed[bid.ID]; ok {
				continue
			}
			if offer.Seller == bid.Buyer {
				continue
			}
			if offer.EnergyRate-bid.EnergyRate > FloatingPointTolerance {
				continue
			}
			claimed[bid.ID] = struct{}{}
			selected := math.Min(bid.Energy, offer.Energy)
			pairs = append(pairs, NewBidOfferMatch(marketID, timeSlot, bid, offer, selected, bid.EnergyRate))
			break
		}
	}
	return pairs
}

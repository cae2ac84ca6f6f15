package matching

import "math"

// PreferredPartners matches bids against offers from their explicitly named
// trading partners. A bid is only paired when one of its requirements lists
// the offer's seller and both sides' requirements accept the pairing at the
// bid's required rate (bilateral satisfaction).
//
// Each bid receives at most one pairing per invocation (first fit), and an
// offer satisfies at most one bid. Bids without a feasible candidate are
// simply omitted from the result.
type PreferredPartners struct {
	// Checker validates requirement satisfaction; nil selects DefaultChecker.
	Checker RequirementsChecker
}

func (a PreferredPartners) Match(snapshot Snapshot) []*BidOfferMatch {
	checker := a.Checker
	if checker == nil {
		checker = DefaultChecker{}
	}

	var matches []*BidOfferMatch
	for _, marketID := range snapshot.marketIDs() {
		slots := snapshot[marketID]
		for _, timeSlot := range sortedSlots(slots) {
			matches = append(matches, matchPartners(marketID, timeSlot, slots[timeSlot], checker)...)
		}
	}
	return matches
}

// matchPartners pairs the bids of one market time slot with their preferred
// sellers' offers. Recommendations come out in bid processing order
// (descending rate).
func matchPartners(marketID, timeSlot string, batch *OrderBatch, checker RequirementsChecker) []*BidOfferMatch {
	if batch == nil || len(batch.Bids) == 0 || len(batch.Offers) == 0 {
		return nil
	}
	bids := sortByRateDescending(validOrders(batch.Bids))
	offers := sortByRateDescending(validOrders(batch.Offers))

	bySeller := sellerLookup(offers)
	claimed := make(map[string]struct{}, len(offers))

	var pairs []*BidOfferMatch
	for _, bid := range bids {
		if pair := matchBidToPartners(marketID, timeSlot, bid, bySeller, claimed, checker); pair != nil {
			pairs = append(pairs, pair)
		}
	}
	return pairs
}

// matchBidToPartners walks the bid's requirements in declaration order and
// returns the first acceptable pairing, claiming the offer. A partner id
// with no offers behind it simply contributes no candidates.
func matchBidToPartners(marketID, timeSlot string, bid *Order, bySeller map[string][]*Order,
	claimed map[string]struct{}, checker RequirementsChecker) *BidOfferMatch {
	for _, bidReq := range bid.Requirements {
		bidEnergy, bidRate := EffectiveEnergyAndRate(bid, bidReq)

		for _, partner := range bidReq.TradingPartners {
			for _, offer := range bySeller[partner] {
				if _, ok := claimed[offer.ID]; ok {
					continue
				}
				if offer.Seller == bid.Buyer {
					continue
				}

				offerReqs := offer.Requirements
				if len(offerReqs) == 0 {
					offerReqs = []Requirement{{}}
				}
				for _, offerReq := range offerReqs {
					offerEnergy, offerRate := EffectiveEnergyAndRate(offer, offerReq)
					if bidRate < offerRate {
						continue
					}
					selected := math.Min(bidEnergy, offerEnergy)
					if !checker.BidRequirementSatisfied(bid, offer, selected, bidRate, bidReq) {
						continue
					}
					if !checker.OfferRequirementSatisfied(bid, offer, selected, bidRate, offerReq) {
						continue
					}
					claimed[offer.ID] = struct{}{}
					return NewBidOfferMatch(marketID, timeSlot, bid, offer, selected, bidRate)
				}
			}
		}
	}
	return nil
}

// sellerLookup maps seller ids (and distinct origin ids) to the offers from
// that seller, preserving the incoming sort order within each list.
func sellerLookup(offers []*Order) map[string][]*Order {
	lookup := make(map[string][]*Order, len(offers))
	for _, offer := range offers {
		if offer.SellerID != "" {
			lookup[offer.SellerID] = append(lookup[offer.SellerID], offer)
		}
		if offer.SellerOriginID != "" && offer.SellerOriginID != offer.SellerID {
			lookup[offer.SellerOriginID] = append(lookup[offer.SellerOriginID], offer)
		}
	}
	return lookup
}

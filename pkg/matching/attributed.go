package matching

// Attributed prioritizes matching along one attribute dimension before
// falling back to an unrestricted pay-as-bid pass. Offers qualify through
// their attributes, bids through a requirement constraining the same key.
type Attributed struct {
	AttributeKey   string
	AttributeValue any
}

// DefaultAttributed matches PV-tagged offers against green-requirement bids
// first, mirroring the exchange's green-energy priority.
func DefaultAttributed() Attributed {
	return Attributed{AttributeKey: "energy_type", AttributeValue: "PV"}
}

func (a Attributed) Match(snapshot Snapshot) []*BidOfferMatch {
	key, value := a.AttributeKey, a.AttributeValue
	if key == "" {
		key, value = "energy_type", "PV"
	}

	var matches []*BidOfferMatch
	for _, marketID := range snapshot.marketIDs() {
		slots := snapshot[marketID]
		for _, timeSlot := range sortedSlots(slots) {
			batch := slots[timeSlot]
			if batch == nil || len(batch.Bids) == 0 || len(batch.Offers) == 0 {
				continue
			}

			tagged := &OrderBatch{
				Bids:   filterByRequirement(batch.Bids, key, value),
				Offers: filterByAttribute(batch.Offers, key, value),
			}
			green := matchBatch(marketID, timeSlot, tagged)

			residual := matchBatch(marketID, timeSlot, removeMatched(batch, green))

			matches = append(matches, green...)
			matches = append(matches, residual...)
		}
	}
	return matches
}

// filterByAttribute keeps the orders declaring value under key in their
// attributes, preserving input order.
func filterByAttribute(orders []*Order, key string, value any) []*Order {
	var kept []*Order
	for _, o := range orders {
		if HasAttributeValue(o, key, value) {
			kept = append(kept, o)
		}
	}
	return kept
}

// filterByRequirement keeps the orders carrying a requirement that
// constrains key to value, preserving input order.
func filterByRequirement(orders []*Order, key string, value any) []*Order {
	var kept []*Order
	for _, o := range orders {
		if HasRequirementValue(o, key, value) {
			kept = append(kept, o)
		}
	}
	return kept
}

// removeMatched returns the batch minus every bid and offer id already used
// by the given recommendations, keeping the original objects and ordering.
func removeMatched(batch *OrderBatch, matches []*BidOfferMatch) *OrderBatch {
	if len(matches) == 0 {
		return batch
	}
	used := make(map[string]struct{}, 2*len(matches))
	for _, m := range matches {
		for _, bid := range m.Bids {
			used[bid.ID] = struct{}{}
		}
		for _, offer := range m.Offers {
			used[offer.ID] = struct{}{}
		}
	}

	open := &OrderBatch{}
	for _, bid := range batch.Bids {
		if _, ok := used[bid.ID]; !ok {
			open.Bids = append(open.Bids, bid)
		}
	}
	for _, offer := range batch.Offers {
		if _, ok := used[offer.ID]; !ok {
			open.Offers = append(open.Offers, offer)
		}
	}
	return open
}

package matching

import (
	"math"
	"testing"
)

func partnerBid(id string, price, energy float64, buyer string, partners ...string) *Order {
	return &Order{
		ID: id, Type: TypeBid,
		Price: price, Energy: energy, EnergyRate: price / energy,
		Buyer: buyer, BuyerID: buyer,
		Requirements: []Requirement{{TradingPartners: partners}},
	}
}

func sellerOffer(id string, price, energy float64, seller, sellerID string) *Order {
	return &Order{
		ID: id, Type: TypeOffer,
		Price: price, Energy: energy, EnergyRate: price / energy,
		Seller: seller, SellerID: sellerID,
	}
}

func TestPreferredPartnersMatch(t *testing.T) {
	bid := partnerBid("b1", 10, 30, "buyer", "seller-1")
	offer := sellerOffer("o1", 10, 30, "seller", "seller-1")
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})

	matches := PreferredPartners{}.Match(snap)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.SelectedEnergy != 30 {
		t.Errorf("expected selected energy 30, got %v", m.SelectedEnergy)
	}
	if math.Abs(m.TradeRate-10.0/30.0) > 1e-12 {
		t.Errorf("expected trade rate 10/30, got %v", m.TradeRate)
	}
}

func TestPreferredPartnersUnknownPartner(t *testing.T) {
	bid := partnerBid("b1", 10, 30, "buyer", "seller-X")
	offer := sellerOffer("o1", 10, 30, "seller", "seller-1")
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})

	if matches := (PreferredPartners{}).Match(snap); len(matches) != 0 {
		t.Fatalf("unknown partner must yield zero candidates, got %d matches", len(matches))
	}
}

func TestPreferredPartnersRateIncompatible(t *testing.T) {
	bid := partnerBid("b1", 10, 30, "buyer", "seller-1") // rate 1/3
	offer := sellerOffer("o1", 20, 30, "seller", "seller-1")
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})

	if matches := (PreferredPartners{}).Match(snap); len(matches) != 0 {
		t.Fatalf("offer asking above the bid's rate must not match, got %d", len(matches))
	}
}

func TestPreferredPartnersSelfTrade(t *testing.T) {
	bid := partnerBid("b1", 10, 30, "house-1", "seller-1")
	offer := sellerOffer("o1", 10, 30, "house-1", "seller-1")
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})

	if matches := (PreferredPartners{}).Match(snap); len(matches) != 0 {
		t.Fatalf("self-trade must not match, got %d", len(matches))
	}
}

func TestPreferredPartnersOfferClaimedOnce(t *testing.T) {
	highBid := partnerBid("b-high", 30, 10, "buyer-1", "seller-1") // rate 3
	lowBid := partnerBid("b-low", 10, 10, "buyer-2", "seller-1")   // rate 1
	offer := sellerOffer("o1", 10, 10, "seller", "seller-1")       // rate 1
	snap := singleSlot(&OrderBatch{Bids: []*Order{lowBid, highBid}, Offers: []*Order{offer}})

	matches := PreferredPartners{}.Match(snap)
	if len(matches) != 1 {
		t.Fatalf("an offer may satisfy at most one bid, got %d matches", len(matches))
	}
	if matches[0].Bids[0].ID != "b-high" {
		t.Errorf("highest-rate bid must win the offer, got %s", matches[0].Bids[0].ID)
	}
}

func TestPreferredPartnersEnergyAndPriceOverrides(t *testing.T) {
	bid := partnerBid("b1", 90, 30, "buyer", "seller-1") // rate 3
	bidEnergy := 10.0
	bid.Requirements[0].Energy = &bidEnergy

	offer := sellerOffer("o1", 30, 30, "seller", "seller-1") // rate 1
	floor := 2.0
	offer.Requirements = []Requirement{{Price: &floor}}

	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})
	matches := PreferredPartners{}.Match(snap)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].SelectedEnergy != 10 {
		t.Errorf("bid energy override must cap selection at 10, got %v", matches[0].SelectedEnergy)
	}
	if matches[0].TradeRate != 3 {
		t.Errorf("clearing happens at the bid's required rate, got %v", matches[0].TradeRate)
	}
}

func TestPreferredPartnersOfferPriceFloorRejects(t *testing.T) {
	bid := partnerBid("b1", 30, 30, "buyer", "seller-1") // rate 1
	offer := sellerOffer("o1", 15, 30, "seller", "seller-1")
	floor := 2.0
	offer.Requirements = []Requirement{{Price: &floor}}

	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})
	// The offer's requirement demands a rate of at least 2; pairing at the
	// bid's required rate 1 also fails the plain rate comparison.
	if matches := (PreferredPartners{}).Match(snap); len(matches) != 0 {
		t.Fatalf("offer price floor must reject the pairing, got %d", len(matches))
	}
}

func TestPreferredPartnersOriginIDLookup(t *testing.T) {
	bid := partnerBid("b1", 10, 30, "buyer", "community-5")
	offer := sellerOffer("o1", 10, 30, "seller", "seller-1")
	offer.SellerOriginID = "community-5"
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})

	if matches := (PreferredPartners{}).Match(snap); len(matches) != 1 {
		t.Fatalf("origin id must be part of the partner lookup, got %d matches", len(matches))
	}
}

func TestPreferredPartnersAttributeConstraint(t *testing.T) {
	bid := partnerBid("b1", 10, 30, "buyer", "seller-1")
	bid.Requirements[0].Attributes = map[string]any{"energy_type": []any{"green"}}
	offer := sellerOffer("o1", 10, 30, "seller", "seller-1")
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer}})

	if matches := (PreferredPartners{}).Match(snap); len(matches) != 0 {
		t.Fatalf("untagged offer must fail the attribute constraint, got %d", len(matches))
	}

	offer.Attributes = map[string]any{"energy_type": "green"}
	if matches := (PreferredPartners{}).Match(snap); len(matches) != 1 {
		t.Fatalf("tagged offer must satisfy the constraint, got %d", len(matches))
	}
}

func TestPreferredPartnersOutputOrdering(t *testing.T) {
	bidLow := partnerBid("b-low", 10, 10, "buyer-1", "seller-1") // rate 1
	bidHigh := partnerBid("b-high", 30, 10, "buyer-2", "seller-2") // rate 3
	offer1 := sellerOffer("o1", 5, 10, "s1", "seller-1")
	offer2 := sellerOffer("o2", 5, 10, "s2", "seller-2")
	snap := singleSlot(&OrderBatch{
		Bids:   []*Order{bidLow, bidHigh},
		Offers: []*Order{offer1, offer2},
	})

	matches := PreferredPartners{}.Match(snap)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Bids[0].ID != "b-high" || matches[1].Bids[0].ID != "b-low" {
		t.Errorf("output must follow descending bid rate, got %s then %s",
			matches[0].Bids[0].ID, matches[1].Bids[0].ID)
	}
}

func TestPreferredPartnersFirstFitStopsPerBid(t *testing.T) {
	// Two requirements, both satisfiable: only the first declared one is used.
	bid := &Order{
		ID: "b1", Type: TypeBid, Price: 30, Energy: 10, EnergyRate: 3,
		Buyer: "buyer", BuyerID: "buyer",
		Requirements: []Requirement{
			{TradingPartners: []string{"seller-1"}},
			{TradingPartners: []string{"seller-2"}},
		},
	}
	offer1 := sellerOffer("o1", 10, 10, "s1", "seller-1")
	offer2 := sellerOffer("o2", 10, 10, "s2", "seller-2")
	snap := singleSlot(&OrderBatch{Bids: []*Order{bid}, Offers: []*Order{offer1, offer2}})

	matches := PreferredPartners{}.Match(snap)
	if len(matches) != 1 {
		t.Fatalf("a bid gets at most one pairing, got %d", len(matches))
	}
	if matches[0].Offers[0].ID != "o1" {
		t.Errorf("first declared requirement must win, got %s", matches[0].Offers[0].ID)
	}
}

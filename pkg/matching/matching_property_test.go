package matching

import (
	"encoding/json"
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func genSnapshot(t *rapid.T) Snapshot {
	numBids := rapid.IntRange(0, 12).Draw(t, "numBids")
	numOffers := rapid.IntRange(0, 12).Draw(t, "numOffers")
	parties := []string{"house-1", "house-2", "house-3", "pv-plant", "community"}

	batch := &OrderBatch{}
	for i := 0; i < numBids; i++ {
		batch.Bids = append(batch.Bids, &Order{
			ID:         fmt.Sprintf("bid-%d", i),
			Type:       TypeBid,
			Energy:     rapid.Float64Range(0.1, 100).Draw(t, fmt.Sprintf("bidEnergy-%d", i)),
			EnergyRate: rapid.Float64Range(0, 30).Draw(t, fmt.Sprintf("bidRate-%d", i)),
			Buyer:      rapid.SampledFrom(parties).Draw(t, fmt.Sprintf("buyer-%d", i)),
		})
	}
	for i := 0; i < numOffers; i++ {
		batch.Offers = append(batch.Offers, &Order{
			ID:         fmt.Sprintf("offer-%d", i),
			Type:       TypeOffer,
			Energy:     rapid.Float64Range(0.1, 100).Draw(t, fmt.Sprintf("offerEnergy-%d", i)),
			EnergyRate: rapid.Float64Range(0, 30).Draw(t, fmt.Sprintf("offerRate-%d", i)),
			Seller:     rapid.SampledFrom(parties).Draw(t, fmt.Sprintf("seller-%d", i)),
		})
	}
	return singleSlot(batch)
}

func TestPropertyPayAsBidInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		snap := genSnapshot(t)
		matches := PayAsBid{}.Match(snap)

		seen := make(map[string]bool)
		for _, m := range matches {
			bid, offer := m.Bids[0], m.Offers[0]

			if offer.Seller == bid.Buyer {
				t.Fatalf("self-trade recommended: %s", bid.Buyer)
			}
			if seen[bid.ID] || seen[offer.ID] {
				t.Fatalf("order allocated twice: bid=%s offer=%s", bid.ID, offer.ID)
			}
			seen[bid.ID] = true
			seen[offer.ID] = true

			if offer.EnergyRate-bid.EnergyRate > FloatingPointTolerance {
				t.Fatalf("rates do not cross: offer %v > bid %v", offer.EnergyRate, bid.EnergyRate)
			}
			if m.TradeRate != bid.EnergyRate {
				t.Fatalf("trade rate %v is not the bid rate %v", m.TradeRate, bid.EnergyRate)
			}
			if m.SelectedEnergy > bid.Energy || m.SelectedEnergy > offer.Energy {
				t.Fatalf("selected energy %v exceeds an order's energy", m.SelectedEnergy)
			}
			if m.SelectedEnergy <= 0 {
				t.Fatalf("selected energy must be positive, got %v", m.SelectedEnergy)
			}
		}
	})
}

func TestPropertyDeterminism(t *testing.T) {
	algorithms := []struct {
		name string
		alg  MatchingAlgorithm
	}{
		{AlgorithmPayAsBid, PayAsBid{}},
		{AlgorithmAttributed, DefaultAttributed()},
		{AlgorithmPreferredPartners, PreferredPartners{}},
	}

	rapid.Check(t, func(t *rapid.T) {
		snap := genSnapshot(t)
		// Decorate a random subset so the attributed and partner paths
		// have work to do, not just their baseline fallbacks.
		for _, slots := range snap {
			for _, batch := range slots {
				for i, o := range batch.Offers {
					o.SellerID = fmt.Sprintf("sid-%d", i)
					if rapid.Bool().Draw(t, fmt.Sprintf("pvOffer-%d", i)) {
						o.Attributes = map[string]any{"energy_type": "PV"}
					}
				}
				for i, b := range batch.Bids {
					switch rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("bidKind-%d", i)) {
					case 1:
						b.Requirements = []Requirement{{Attributes: map[string]any{"energy_type": "PV"}}}
					case 2:
						b.Requirements = []Requirement{{TradingPartners: []string{fmt.Sprintf("sid-%d", i)}}}
					}
				}
			}
		}

		for _, a := range algorithms {
			first, err := json.Marshal(a.alg.Match(snap))
			if err != nil {
				t.Fatalf("%s: marshal: %v", a.name, err)
			}
			second, err := json.Marshal(a.alg.Match(snap))
			if err != nil {
				t.Fatalf("%s: marshal: %v", a.name, err)
			}
			if string(first) != string(second) {
				t.Fatalf("%s: repeated invocations differ", a.name)
			}
		}
	})
}

func TestPropertyAttributedNoDoubleAllocation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		snap := genSnapshot(t)
		// Tag a random subset green on both sides.
		for _, slots := range snap {
			for _, batch := range slots {
				for i, o := range batch.Offers {
					if rapid.Bool().Draw(t, fmt.Sprintf("tagOffer-%d", i)) {
						o.Attributes = map[string]any{"energy_type": "PV"}
					}
				}
				for i, b := range batch.Bids {
					if rapid.Bool().Draw(t, fmt.Sprintf("tagBid-%d", i)) {
						b.Requirements = []Requirement{{Attributes: map[string]any{"energy_type": "PV"}}}
					}
				}
			}
		}

		seen := make(map[string]bool)
		for _, m := range DefaultAttributed().Match(snap) {
			if seen[m.Bids[0].ID] || seen[m.Offers[0].ID] {
				t.Fatalf("order allocated in both phases: bid=%s offer=%s",
					m.Bids[0].ID, m.Offers[0].ID)
			}
			seen[m.Bids[0].ID] = true
			seen[m.Offers[0].ID] = true
		}
	})
}

func TestPropertyPreferredPartnersRespectsPartnerList(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		snap := genSnapshot(t)
		for _, slots := range snap {
			for _, batch := range slots {
				for i, o := range batch.Offers {
					o.SellerID = fmt.Sprintf("sid-%d", i)
				}
				for i, b := range batch.Bids {
					// Each bid names a random subset of seller ids.
					var partners []string
					for j := range batch.Offers {
						if rapid.Bool().Draw(t, fmt.Sprintf("partner-%d-%d", i, j)) {
							partners = append(partners, fmt.Sprintf("sid-%d", j))
						}
					}
					b.Requirements = []Requirement{{TradingPartners: partners}}
				}
			}
		}

		for _, m := range (PreferredPartners{}).Match(snap) {
			bid, offer := m.Bids[0], m.Offers[0]
			listed := false
			for _, req := range bid.Requirements {
				for _, p := range req.TradingPartners {
					if p == offer.SellerID || p == offer.SellerOriginID {
						listed = true
					}
				}
			}
			if !listed {
				t.Fatalf("bid %s paired with unlisted seller %s", bid.ID, offer.SellerID)
			}
			if bid.EnergyRate < offer.EnergyRate {
				t.Fatalf("rates do not cross: bid %v < offer %v", bid.EnergyRate, offer.EnergyRate)
			}
		}
	})
}

package matching

import (
	"encoding/json"
	"math"
	"sort"
)

// OrderType tags an order as a buy (Bid) or sell (Offer) instruction.
type OrderType string

const (
	TypeBid   OrderType = "Bid"
	TypeOffer OrderType = "Offer"
)

// Order is one open bid or offer from a market snapshot. Orders are
// read-only input: the algorithms never mutate them and reference the same
// instances in the recommendations they emit.
//
// Buyer fields are populated on bids, seller fields on offers. The origin
// variants identify the ultimate originator when an order was forwarded
// between nested markets.
type Order struct {
	ID            string         `json:"id"`
	Type          OrderType      `json:"type"`
	Energy        float64        `json:"energy"`
	EnergyRate    float64        `json:"energy_rate"`
	OriginalPrice float64        `json:"original_price"`
	Price         float64        `json:"price"`
	TimeSlot      string         `json:"time_slot,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Requirements  []Requirement  `json:"requirements,omitempty"`

	Buyer         string `json:"buyer,omitempty"`
	BuyerID       string `json:"buyer_id,omitempty"`
	BuyerOrigin   string `json:"buyer_origin,omitempty"`
	BuyerOriginID string `json:"buyer_origin_id,omitempty"`

	Seller         string `json:"seller,omitempty"`
	SellerID       string `json:"seller_id,omitempty"`
	SellerOrigin   string `json:"seller_origin,omitempty"`
	SellerOriginID string `json:"seller_origin_id,omitempty"`
}

// UnmarshalJSON decodes an order and derives energy_rate as price/energy
// when the exchange omits it. An order whose rate cannot be determined is
// marked with a NaN rate and skipped by every algorithm.
func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		EnergyRate *float64 `json:"energy_rate"`
		*alias
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch {
	case aux.EnergyRate != nil:
		o.EnergyRate = *aux.EnergyRate
	case o.Energy > 0:
		o.EnergyRate = o.Price / o.Energy
	default:
		o.EnergyRate = math.NaN()
	}
	return nil
}

// Valid reports whether the order carries enough data to participate in
// matching. Invalid orders are dropped, never reported as errors.
func (o *Order) Valid() bool {
	return o != nil && o.ID != "" && o.Energy > 0 && !math.IsNaN(o.EnergyRate)
}

// Participant returns the name of the order's direct counterparty: the
// buyer for a bid, the seller for an offer.
func (o *Order) Participant() string {
	if o.Type == TypeBid {
		return o.Buyer
	}
	return o.Seller
}

// ParticipantID returns the counterparty identifier (buyer_id/seller_id).
func (o *Order) ParticipantID() string {
	if o.Type == TypeBid {
		return o.BuyerID
	}
	return o.SellerID
}

// ParticipantOriginID returns the originator identifier for forwarded orders.
func (o *Order) ParticipantOriginID() string {
	if o.Type == TypeBid {
		return o.BuyerOriginID
	}
	return o.SellerOriginID
}

// OrderBatch holds the open orders of one market time slot.
type OrderBatch struct {
	Bids   []*Order `json:"bids"`
	Offers []*Order `json:"offers"`
}

// Snapshot maps market id -> time slot -> open orders. A snapshot is built
// fresh for every engine invocation and is treated as immutable input.
type Snapshot map[string]map[string]*OrderBatch

// marketIDs returns the snapshot's market ids in sorted order. The source
// system inherited dict insertion order here; sorting is what makes repeated
// invocations byte-identical.
func (s Snapshot) marketIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedSlots(slots map[string]*OrderBatch) []string {
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validOrders filters out orders that cannot participate in matching,
// preserving input order.
func validOrders(orders []*Order) []*Order {
	kept := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if o.Valid() {
			kept = append(kept, o)
		}
	}
	return kept
}

// sortByRateDescending returns a copy sorted by energy rate, highest first.
// The sort is stable: orders with equal rates keep their input order, which
// is the only tie-break the algorithms apply.
func sortByRateDescending(orders []*Order) []*Order {
	sorted := make([]*Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EnergyRate > sorted[j].EnergyRate
	})
	return sorted
}

package matching

import "encoding/json"

// Requirement constrains or overrides how its order may be matched. On the
// wire a requirement is a flat mapping; the known capability keys are lifted
// into fields and everything else lands in Attributes as an
// attribute-matching constraint (e.g. energy_type).
//
// A requirement with no overrides inherits the order's own energy and rate.
type Requirement struct {
	// Energy overrides the order's energy when set.
	Energy *float64
	// Price overrides the order's energy rate when set.
	Price *float64
	// TradingPartners restricts counterparties to the listed identifiers.
	TradingPartners []string
	// Attributes holds free-form attribute constraints that the counterpart
	// order's attributes must satisfy.
	Attributes map[string]any
}

func (r *Requirement) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		switch key {
		case "energy":
			var v float64
			if err := json.Unmarshal(val, &v); err != nil {
				return err
			}
			r.Energy = &v
		case "price":
			var v float64
			if err := json.Unmarshal(val, &v); err != nil {
				return err
			}
			r.Price = &v
		case "trading_partners":
			if err := json.Unmarshal(val, &r.TradingPartners); err != nil {
				return err
			}
		default:
			var v any
			if err := json.Unmarshal(val, &v); err != nil {
				return err
			}
			if r.Attributes == nil {
				r.Attributes = make(map[string]any)
			}
			r.Attributes[key] = v
		}
	}
	return nil
}

func (r Requirement) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Attributes)+3)
	for k, v := range r.Attributes {
		out[k] = v
	}
	if r.Energy != nil {
		out["energy"] = *r.Energy
	}
	if r.Price != nil {
		out["price"] = *r.Price
	}
	if len(r.TradingPartners) > 0 {
		out["trading_partners"] = r.TradingPartners
	}
	return json.Marshal(out)
}

// EffectiveEnergyAndRate resolves the energy and rate to use for an order
// under one of its requirements. Requirement values supersede the order's
// own energy and energy_rate.
func EffectiveEnergyAndRate(order *Order, req Requirement) (energy, rate float64) {
	energy, rate = order.Energy, order.EnergyRate
	if req.Energy != nil {
		energy = *req.Energy
	}
	if req.Price != nil {
		rate = *req.Price
	}
	return energy, rate
}

// RequirementsChecker validates whether a proposed pairing satisfies a
// requirement held by one side. The matching algorithms only consume the
// pass/fail verdict; the constraint vocabulary can grow behind this
// interface without touching them.
type RequirementsChecker interface {
	BidRequirementSatisfied(bid, offer *Order, selectedEnergy, clearingRate float64, req Requirement) bool
	OfferRequirementSatisfied(bid, offer *Order, selectedEnergy, clearingRate float64, req Requirement) bool
}

// DefaultChecker implements the built-in constraint vocabulary: trading
// partners, attribute matching, energy ceilings and rate bounds.
type DefaultChecker struct{}

// BidRequirementSatisfied checks a bid-side requirement against a proposed
// pairing. The price constraint is a cap: the buyer will not clear above it.
func (DefaultChecker) BidRequirementSatisfied(bid, offer *Order, selectedEnergy, clearingRate float64, req Requirement) bool {
	if len(req.TradingPartners) > 0 &&
		!containsAny(req.TradingPartners, offer.SellerID, offer.SellerOriginID) {
		return false
	}
	if !attributesSatisfied(offer.Attributes, req.Attributes) {
		return false
	}
	if req.Energy != nil && selectedEnergy > *req.Energy {
		return false
	}
	if req.Price != nil && clearingRate > *req.Price {
		return false
	}
	return true
}

// OfferRequirementSatisfied checks an offer-side requirement. The price
// constraint is a floor: the seller will not clear below it.
func (DefaultChecker) OfferRequirementSatisfied(bid, offer *Order, selectedEnergy, clearingRate float64, req Requirement) bool {
	if len(req.TradingPartners) > 0 &&
		!containsAny(req.TradingPartners, bid.BuyerID, bid.BuyerOriginID) {
		return false
	}
	if !attributesSatisfied(bid.Attributes, req.Attributes) {
		return false
	}
	if req.Energy != nil && selectedEnergy > *req.Energy {
		return false
	}
	if req.Price != nil && clearingRate < *req.Price {
		return false
	}
	return true
}

// HasAttributeValue reports whether the order declares value under key in
// its attributes. The attribute may be a scalar or a list of values.
func HasAttributeValue(order *Order, key string, value any) bool {
	if order == nil || order.Attributes == nil {
		return false
	}
	attr, ok := order.Attributes[key]
	if !ok {
		return false
	}
	return valueMatches(attr, value)
}

// HasRequirementValue reports whether any of the order's requirements
// constrains key to value (directly or as a member of a value list).
func HasRequirementValue(order *Order, key string, value any) bool {
	if order == nil {
		return false
	}
	for _, req := range order.Requirements {
		constraint, ok := req.Attributes[key]
		if !ok {
			continue
		}
		if valueMatches(constraint, value) {
			return true
		}
	}
	return false
}

// attributesSatisfied checks every constraint in required against the
// counterpart's attributes. Missing attributes fail the constraint.
func attributesSatisfied(attributes map[string]any, required map[string]any) bool {
	for key, want := range required {
		attr, ok := attributes[key]
		if !ok || !attributeSatisfied(attr, want) {
			return false
		}
	}
	return true
}

// attributeSatisfied matches one declared attribute against one constraint
// value; either side may be a list, and any overlap satisfies.
func attributeSatisfied(attr, required any) bool {
	switch want := required.(type) {
	case []any:
		for _, w := range want {
			if valueMatches(attr, w) {
				return true
			}
		}
		return false
	case []string:
		for _, w := range want {
			if valueMatches(attr, w) {
				return true
			}
		}
		return false
	default:
		return valueMatches(attr, required)
	}
}

func valueMatches(have, want any) bool {
	switch h := have.(type) {
	case []any:
		for _, v := range h {
			if v == want {
				return true
			}
		}
		return false
	case []string:
		for _, v := range h {
			if any(v) == want {
				return true
			}
		}
		return false
	default:
		return have == want
	}
}

func containsAny(list []string, values ...string) bool {
	for _, v := range values {
		if v == "" {
			continue
		}
		for _, item := range list {
			if item == v {
				return true
			}
		}
	}
	return false
}

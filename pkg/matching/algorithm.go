// Package matching implements the bid/offer match recommendation engine for
// the energy exchange: pay-as-bid, attributed and preferred-partners
// matching over per-market order snapshots.
//
// Every algorithm is a pure function of its snapshot. No I/O, no shared
// state, no errors: malformed input shrinks the output instead of failing,
// so callers always get a (possibly empty) list. Concurrent invocations are
// safe by construction.
package matching

import "fmt"

// FloatingPointTolerance is the rounding slack allowed when comparing
// energy rates, matching the exchange's own clearing tolerance.
const FloatingPointTolerance = 1e-5

// MatchingAlgorithm computes match recommendations from an order snapshot.
type MatchingAlgorithm interface {
	Match(snapshot Snapshot) []*BidOfferMatch
}

// Algorithm names accepted by New and the config file.
const (
	AlgorithmPayAsBid          = "pay_as_bid"
	AlgorithmAttributed        = "attributed"
	AlgorithmPreferredPartners = "preferred_partners"
)

// New returns the algorithm registered under name. The empty name selects
// pay-as-bid.
func New(name string) (MatchingAlgorithm, error) {
	switch name {
	case AlgorithmPayAsBid, "":
		return PayAsBid{}, nil
	case AlgorithmAttributed:
		return DefaultAttributed(), nil
	case AlgorithmPreferredPartners:
		return PreferredPartners{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, name)
	}
}

// Package matchers connects a matching algorithm to a running simulation
// exchange. A Transport carries events in and recommendations out; the
// Matcher reacts to events by requesting open orders, running the
// configured algorithm over them and submitting the resulting pairings.
package matchers

import (
	"context"

	"github.com/gridsim/mycomatch/pkg/matching"
)

// EventHandler receives decoded simulation events. OnEventOrResponse is
// called for every event, including the ones with a dedicated callback.
type EventHandler interface {
	OnTick(ctx context.Context, ev Event)
	OnMarketCycle(ctx context.Context, ev Event)
	OnOrdersResponse(ctx context.Context, snapshot matching.Snapshot, ev Event)
	OnMatchedRecommendationsResponse(ctx context.Context, ev Event)
	OnFinish(ctx context.Context, ev Event)
	OnEventOrResponse(ctx context.Context, ev Event)
}

// Transport is a connection to the simulation exchange.
type Transport interface {
	// Start connects and begins delivering events to the handler. It
	// returns once the connection is established; delivery continues in
	// the background until Stop or context cancellation.
	Start(ctx context.Context, handler EventHandler) error

	// RequestOrders asks the exchange for the open bids and offers. The
	// result arrives as an offers_bids_response event.
	RequestOrders(ctx context.Context, filters map[string]any) error

	// SubmitRecommendations sends matched pairings to the exchange.
	SubmitRecommendations(ctx context.Context, matches []*matching.BidOfferMatch) error

	Stop() error
}

package matchers

import (
	"encoding/json"
	"fmt"

	"github.com/gridsim/mycomatch/pkg/matching"
)

// EventType identifies a simulation event or command response.
type EventType string

const (
	EventTick           EventType = "tick"
	EventMarketCycle    EventType = "market_cycle"
	EventOrdersResponse EventType = "offers_bids_response"
	EventMatch          EventType = "match"
	EventFinish         EventType = "finish"
)

// Event is a decoded simulation message. Raw keeps the full payload so
// handlers can pull event-specific fields out of it.
type Event struct {
	Type EventType
	Raw  json.RawMessage
}

type eventEnvelope struct {
	Event string `json:"event"`
}

type ordersResponse struct {
	BidsOffers matching.Snapshot `json:"bids_offers"`
}

func decodeEvent(payload []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, err
	}
	if env.Event == "" {
		return Event{}, fmt.Errorf("%w: no event field", errUnknownEvent)
	}
	return Event{Type: EventType(env.Event), Raw: payload}, nil
}

func decodeOrders(raw json.RawMessage) (matching.Snapshot, error) {
	var resp ordersResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return resp.BidsOffers, nil
}

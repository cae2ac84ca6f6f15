// Package recorder keeps a history of submitted recommendations and the
// exchange's verdicts on them.
package recorder

import (
	"context"
	"encoding/json"

	"github.com/gridsim/mycomatch/pkg/matching"
)

type Recorder interface {
	// RecordSubmission stores a batch of recommendations on its way to
	// the exchange and returns the batch id.
	RecordSubmission(ctx context.Context, matches []*matching.BidOfferMatch, summary matching.Summary) (string, error)

	// RecordVerdict stores the exchange's response to a batch.
	RecordVerdict(ctx context.Context, payload json.RawMessage) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordSubmission(_ context.Context, _ []*matching.BidOfferMatch, _ matching.Summary) (string, error) {
	return "", nil
}

func (Nop) RecordVerdict(_ context.Context, _ json.RawMessage) error { return nil }

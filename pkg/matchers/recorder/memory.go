package recorder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridsim/mycomatch/pkg/matching"
)

type Submission struct {
	ID        string
	CreatedAt time.Time
	Matches   []*matching.BidOfferMatch
	Summary   matching.Summary
}

type Verdict struct {
	ID        string
	CreatedAt time.Time
	Payload   json.RawMessage
}

// InMemory keeps the history in process, for tests and cli runs without
// a database.
type InMemory struct {
	mu          sync.RWMutex
	submissions []*Submission
	verdicts    []*Verdict
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) RecordSubmission(_ context.Context, matches []*matching.BidOfferMatch, summary matching.Summary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := &Submission{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Matches:   matches,
		Summary:   summary,
	}
	s.submissions = append(s.submissions, sub)
	return sub.ID, nil
}

func (s *InMemory) RecordVerdict(_ context.Context, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.verdicts = append(s.verdicts, &Verdict{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Payload:   payload,
	})
	return nil
}

func (s *InMemory) Submissions() []*Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Submission, len(s.submissions))
	copy(out, s.submissions)
	return out
}

func (s *InMemory) Verdicts() []*Verdict {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Verdict, len(s.verdicts))
	copy(out, s.verdicts)
	return out
}

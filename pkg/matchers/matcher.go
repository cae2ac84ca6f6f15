package matchers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gridsim/mycomatch/pkg/matchers/recorder"
	"github.com/gridsim/mycomatch/pkg/matching"
)

// Matcher drives one algorithm against one simulation: every tick it
// asks for the open orders, matches them and submits the result.
type Matcher struct {
	transport Transport
	algorithm matching.MatchingAlgorithm
	recorder  recorder.Recorder

	stop     chan struct{}
	stopOnce sync.Once
}

func NewMatcher(transport Transport, algorithm matching.MatchingAlgorithm, rec recorder.Recorder) *Matcher {
	if rec == nil {
		rec = recorder.Nop{}
	}
	return &Matcher{
		transport: transport,
		algorithm: algorithm,
		recorder:  rec,
		stop:      make(chan struct{}),
	}
}

// Run connects and blocks until the simulation finishes or the context
// is cancelled.
func (m *Matcher) Run(ctx context.Context) error {
	if err := m.transport.Start(ctx, m); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-m.stop:
	}
	return m.transport.Stop()
}

func (m *Matcher) OnTick(ctx context.Context, _ Event) {
	if err := m.transport.RequestOrders(ctx, nil); err != nil {
		zap.S().Warnf("request orders fail: %+v", err)
	}
}

func (m *Matcher) OnMarketCycle(_ context.Context, _ Event) {
	zap.S().Debug("market cycle")
}

func (m *Matcher) OnOrdersResponse(ctx context.Context, snapshot matching.Snapshot, _ Event) {
	matches := m.algorithm.Match(snapshot)
	if len(matches) == 0 {
		return
	}

	summary := matching.Summarize(matches)
	fields := []any{
		"matches", summary.Matches,
		"total_energy", summary.TotalEnergy,
		"total_value", summary.TotalValue,
	}
	batchID, err := m.recorder.RecordSubmission(ctx, matches, summary)
	if err != nil {
		zap.S().Warnf("record submission fail: %+v", err)
	} else {
		fields = append(fields, "batch_id", batchID)
	}
	zap.S().Infow("submitting recommendations", fields...)

	if err := m.transport.SubmitRecommendations(ctx, matches); err != nil {
		zap.S().Errorf("submit recommendations fail: %+v", err)
	}
}

func (m *Matcher) OnMatchedRecommendationsResponse(ctx context.Context, ev Event) {
	zap.S().Debugf("recommendations verdict: %s", ev.Raw)
	if err := m.recorder.RecordVerdict(ctx, ev.Raw); err != nil {
		zap.S().Warnf("record verdict fail: %+v", err)
	}
}

func (m *Matcher) OnFinish(_ context.Context, _ Event) {
	zap.S().Info("simulation finished")
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Matcher) OnEventOrResponse(_ context.Context, ev Event) {
	zap.S().Debugf("event: %s", ev.Type)
}

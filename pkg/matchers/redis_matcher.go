package matchers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gridsim/mycomatch/pkg/matching"
)

const (
	handshakeChannel         = "external-myco/simulation-id/"
	handshakeResponseChannel = "external-myco/simulation-id/response/"
	channelPrefixFormat      = "external-myco/%s"

	defaultHandshakeTimeout = 50 * time.Second
)

// RedisTransportConfig tunes the pub/sub connection to the exchange.
type RedisTransportConfig struct {
	// SimulationID skips the handshake when set.
	SimulationID     string        `yaml:"simulation_id"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	Workers          int           `yaml:"workers"`
}

// RedisTransport talks to a locally running simulation over Redis
// pub/sub. Events arrive on {prefix}/events/ and {prefix}/*/response/;
// commands go out on {prefix}/orders/ and {prefix}/recommendations/.
type RedisTransport struct {
	client *redis.Client
	cfg    *RedisTransportConfig

	simulationID string
	prefix       string
	pubsub       *redis.PubSub
	disp         *dispatcher
	done         chan struct{}
}

func NewRedisTransport(client *redis.Client, cfg *RedisTransportConfig) *RedisTransport {
	if cfg == nil {
		cfg = &RedisTransportConfig{}
	}
	return &RedisTransport{
		client: client,
		cfg:    cfg,
		done:   make(chan struct{}),
	}
}

func (t *RedisTransport) Start(ctx context.Context, handler EventHandler) error {
	simulationID := t.cfg.SimulationID
	if simulationID == "" {
		var err error
		simulationID, err = t.handshake(ctx)
		if err != nil {
			// An unattended simulation publishes no id; the cli
			// setup uses empty-prefix channels in that case.
			zap.S().Warnf("simulation id handshake fail, using empty id: %+v", err)
		}
	}
	t.simulationID = simulationID
	t.prefix = fmt.Sprintf(channelPrefixFormat, simulationID)

	t.pubsub = t.client.PSubscribe(ctx,
		t.prefix+"/events/",
		t.prefix+"/*/response/",
	)
	if _, err := t.pubsub.Receive(ctx); err != nil {
		return err
	}

	t.disp = newDispatcher(ctx, handler, t.cfg.Workers)
	go t.receive()

	zap.S().Infof("connected to simulation %q over redis", t.simulationID)
	return nil
}

// handshake publishes an empty request and waits for the simulation to
// answer with its id.
func (t *RedisTransport) handshake(ctx context.Context) (string, error) {
	timeout := t.cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}

	sub := t.client.Subscribe(ctx, handshakeResponseChannel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return "", err
	}

	if err := t.client.Publish(ctx, handshakeChannel, "{}").Err(); err != nil {
		return "", err
	}

	select {
	case msg := <-sub.Channel():
		var resp struct {
			SimulationID string `json:"simulation_id"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &resp); err != nil {
			return "", err
		}
		zap.S().Debugf("received simulation id %s", resp.SimulationID)
		return resp.SimulationID, nil
	case <-time.After(timeout):
		return "", errHandshakeTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (t *RedisTransport) receive() {
	defer close(t.done)
	for msg := range t.pubsub.Channel() {
		ev, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			zap.S().Warnf("decode event on %s fail: %+v", msg.Channel, err)
			continue
		}
		t.disp.enqueue(ev)
	}
}

func (t *RedisTransport) RequestOrders(ctx context.Context, filters map[string]any) error {
	payload, err := json.Marshal(map[string]any{"filters": filters})
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, t.prefix+"/orders/", payload).Err()
}

func (t *RedisTransport) SubmitRecommendations(ctx context.Context, matches []*matching.BidOfferMatch) error {
	payload, err := json.Marshal(map[string]any{"recommended_matches": matches})
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, t.prefix+"/recommendations/", payload).Err()
}

func (t *RedisTransport) Stop() error {
	if t.pubsub != nil {
		if err := t.pubsub.Close(); err != nil {
			return err
		}
		<-t.done
	}
	if t.disp != nil {
		t.disp.close()
	}
	return nil
}

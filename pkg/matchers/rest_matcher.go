package matchers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/gridsim/mycomatch/pkg/matching"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultTokenTTL     = 5 * time.Minute
)

// RESTTransportConfig describes the connection to a hosted simulation.
type RESTTransportConfig struct {
	Domain       string        `yaml:"domain"`
	SimulationID string        `yaml:"simulation_id"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Workers      int           `yaml:"workers"`
}

// RESTTransport polls a hosted simulation over its HTTP API. A ticker
// stands in for the exchange's push events: each interval produces a
// synthetic tick, and order requests fetch the open orders directly.
type RESTTransport struct {
	cfg    *RESTTransportConfig
	http   *http.Client
	prefix string

	mu    sync.RWMutex
	token string

	disp   *dispatcher
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRESTTransport(cfg *RESTTransportConfig) *RESTTransport {
	return &RESTTransport{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		prefix: fmt.Sprintf("%s/external-connection/api/%s",
			cfg.Domain, cfg.SimulationID),
		done: make(chan struct{}),
	}
}

func (t *RESTTransport) Start(ctx context.Context, handler EventHandler) error {
	if t.cfg.Username == "" || t.cfg.Password == "" {
		return errMissingCredential
	}

	boff := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(func() error {
		return t.login(ctx)
	}, boff); err != nil {
		return err
	}
	zap.S().Infof("connected to %s (simulation_id: %s)", t.cfg.Domain, t.cfg.SimulationID)

	ctx, t.cancel = context.WithCancel(ctx)
	t.disp = newDispatcher(ctx, handler, t.cfg.Workers)
	go t.refreshLoop(ctx)
	go t.pollLoop(ctx)
	return nil
}

// login fetches a JWT from the auth endpoint and stores it.
func (t *RESTTransport) login(ctx context.Context) error {
	payload, _ := json.Marshal(map[string]string{
		"username": t.cfg.Username,
		"password": t.cfg.Password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.cfg.Domain+"/api-auth/token/", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", errLoginFailed, resp.StatusCode)
	}

	var body struct {
		Access string `json:"access"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.Access == "" {
		return fmt.Errorf("%w: empty token", errLoginFailed)
	}

	t.mu.Lock()
	t.token = body.Access
	t.mu.Unlock()
	return nil
}

// tokenLifetime reads the exp claim without verifying the signature;
// the server signed it, we only need the deadline.
func (t *RESTTransport) tokenLifetime() time.Duration {
	t.mu.RLock()
	token := t.token
	t.mu.RUnlock()

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return defaultTokenTTL
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return defaultTokenTTL
	}
	lifetime := time.Until(exp.Time)
	if lifetime <= 0 {
		return defaultTokenTTL
	}
	return lifetime
}

func (t *RESTTransport) refreshLoop(ctx context.Context) {
	for {
		// Renew at two thirds of the token's lifetime.
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.tokenLifetime() * 2 / 3):
		}
		if err := t.login(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			zap.S().Warnf("jwt refresh fail: %+v", err)
		}
	}
}

func (t *RESTTransport) pollLoop(ctx context.Context) {
	defer close(t.done)

	interval := t.cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.disp.enqueue(Event{Type: EventTick, Raw: []byte(`{"event":"tick"}`)})
		}
	}
}

func (t *RESTTransport) authorized(req *http.Request) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	req.Header.Set("Authorization", "JWT "+t.token)
}

func (t *RESTTransport) RequestOrders(ctx context.Context, filters map[string]any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.prefix+"/offers-bids", nil)
	if err != nil {
		return err
	}
	t.authorized(req)

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("offers-bids request fail: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	t.disp.enqueue(Event{Type: EventOrdersResponse, Raw: body})
	return nil
}

func (t *RESTTransport) SubmitRecommendations(ctx context.Context, matches []*matching.BidOfferMatch) error {
	payload, err := json.Marshal(map[string]any{"recommended_matches": matches})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.prefix+"/recommendations", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	t.authorized(req)

	resp, err := t.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("recommendations request fail: status %d", resp.StatusCode)
	}
	return nil
}

func (t *RESTTransport) Stop() error {
	if t.cancel != nil {
		t.cancel()
		<-t.done
	}
	if t.disp != nil {
		t.disp.close()
	}
	return nil
}

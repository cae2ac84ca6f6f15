package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gridsim/mycomatch/config"
	postgres_wrapper "github.com/gridsim/mycomatch/pkg/infra/postgres"
	redis_wrapper "github.com/gridsim/mycomatch/pkg/infra/redis"
	"github.com/gridsim/mycomatch/pkg/logging"
	"github.com/gridsim/mycomatch/pkg/matchers"
	"github.com/gridsim/mycomatch/pkg/matchers/recorder"
	"github.com/gridsim/mycomatch/pkg/matching"
)

func main() {
	app := &cli.App{
		Name:  "mycomatch",
		Usage: "Bid/offer matching client for simulation exchanges",
		Commands: []*cli.Command{
			runCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error: ", err)
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Connect to a simulation and submit recommendations",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "config-file",
			Usage: "specify config file path",
		},
		&cli.StringFlag{
			Name:  "algorithm",
			Usage: "matching algorithm: pay_as_bid, attributed or preferred_partners",
		},
		&cli.StringFlag{
			Name:  "transport",
			Usage: "exchange transport: redis or rest",
		},
		&cli.StringFlag{
			Name:  "simulation-id",
			Usage: "simulation to connect to",
		},
		&cli.StringFlag{
			Name:  "domain",
			Usage: "exchange domain for the rest transport",
		},
		&cli.StringFlag{
			Name:    "username",
			Usage:   "exchange account for the rest transport",
			EnvVars: []string{"API_CLIENT_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "exchange password for the rest transport",
			EnvVars: []string{"API_CLIENT_PASSWORD"},
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	},
	Action: run,
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	go func() {
		http.ListenAndServe("localhost:6060", nil) // nolint
	}()

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		zap.S().Info("shutting down...")
		cancel()
	}()

	algorithm, err := buildAlgorithm(&cfg.Matcher)
	if err != nil {
		return err
	}
	transport, err := buildTransport(cfg)
	if err != nil {
		return err
	}
	store, err := buildRecorder(cfg.RecorderDB)
	if err != nil {
		return err
	}

	matcher := matchers.NewMatcher(transport, algorithm, store)
	zap.S().Infof("%s started with algorithm %q", cfg.ServiceName, cfg.Matcher.Algorithm)
	return matcher.Run(ctx)
}

// loadConfig reads the yaml file when one is given and lets flags
// override individual settings.
func loadConfig(c *cli.Context) (*config.AppConfig, error) {
	cfg := &config.AppConfig{ServiceName: "mycomatch"}

	configFile := c.String("config-file")
	if configFile != "" || os.Getenv("CONFIG_FILE") != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String("algorithm"); v != "" {
		cfg.Matcher.Algorithm = v
	}
	if v := c.String("transport"); v != "" {
		cfg.Exchange.Transport = v
	}
	if v := c.String("simulation-id"); v != "" {
		cfg.Exchange.SimulationID = v
	}
	if cfg.Exchange.REST == nil {
		cfg.Exchange.REST = &config.RESTConfig{}
	}
	if v := c.String("domain"); v != "" {
		cfg.Exchange.REST.Domain = v
	}
	if v := c.String("username"); v != "" {
		cfg.Exchange.REST.Username = v
	}
	if v := c.String("password"); v != "" {
		cfg.Exchange.REST.Password = v
	}
	return cfg, nil
}

func buildAlgorithm(cfg *config.MatcherConfig) (matching.MatchingAlgorithm, error) {
	if cfg.Algorithm == matching.AlgorithmAttributed && cfg.AttributeKey != "" {
		return matching.Attributed{
			AttributeKey:   cfg.AttributeKey,
			AttributeValue: cfg.AttributeValue,
		}, nil
	}
	return matching.New(cfg.Algorithm)
}

func buildTransport(cfg *config.AppConfig) (matchers.Transport, error) {
	switch cfg.Exchange.Transport {
	case config.TransportREST:
		rest := cfg.Exchange.REST
		return matchers.NewRESTTransport(&matchers.RESTTransportConfig{
			Domain:       rest.Domain,
			SimulationID: firstNonEmpty(rest.SimulationID, cfg.Exchange.SimulationID),
			Username:     rest.Username,
			Password:     rest.Password,
			PollInterval: rest.PollInterval(),
			Workers:      cfg.Matcher.Workers,
		}), nil
	case config.TransportRedis, "":
		redisCfg := cfg.Exchange.Redis
		if redisCfg == nil {
			redisCfg = &redis_wrapper.RedisConfig{ConnectionURL: "redis://localhost:6379"}
		}
		client, err := redis_wrapper.InitRedisWithBackoff(redisCfg)
		if err != nil {
			return nil, err
		}
		return matchers.NewRedisTransport(client, &matchers.RedisTransportConfig{
			SimulationID:     cfg.Exchange.SimulationID,
			HandshakeTimeout: 50 * time.Second,
			Workers:          cfg.Matcher.Workers,
		}), nil
	default:
		return nil, fmt.Errorf("unknown transport: %s", cfg.Exchange.Transport)
	}
}

func buildRecorder(dbCfg *postgres_wrapper.PostgresConfig) (recorder.Recorder, error) {
	if dbCfg == nil {
		return recorder.NewInMemory(), nil
	}
	db, err := postgres_wrapper.InitPostgresWithBackoff(dbCfg)
	if err != nil {
		return nil, err
	}
	return recorder.NewSQL(db), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

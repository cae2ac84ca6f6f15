package config

import (
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	postgres_wrapper "github.com/gridsim/mycomatch/pkg/infra/postgres"
	redis_wrapper "github.com/gridsim/mycomatch/pkg/infra/redis"
)

const (
	TransportRedis = "redis"
	TransportREST  = "rest"
)

type MatcherConfig struct {
	Algorithm      string `yaml:"algorithm"`
	AttributeKey   string `yaml:"attribute_key"`
	AttributeValue string `yaml:"attribute_value"`
	Workers        int    `yaml:"workers"`
}

type RESTConfig struct {
	Domain              string `yaml:"domain"`
	SimulationID        string `yaml:"simulation_id"`
	Username            string `yaml:"username"`
	Password            string `yaml:"password"`
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
}

func (c *RESTConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

type ExchangeConfig struct {
	// Transport selects how to reach the simulation: redis or rest.
	Transport    string                     `yaml:"transport"`
	SimulationID string                     `yaml:"simulation_id"`
	Redis        *redis_wrapper.RedisConfig `yaml:"redis"`
	REST         *RESTConfig                `yaml:"rest"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	Matcher     MatcherConfig                    `yaml:"matcher"`
	Exchange    ExchangeConfig                   `yaml:"exchange"`
	RecorderDB  *postgres_wrapper.PostgresConfig `yaml:"recorder_db"`
}

// Load load config from file and environment variables.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}

	zap.S().Debugf("config: %+v", cfg)
	return cfg, nil
}

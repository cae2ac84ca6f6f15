package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/gridsim/mycomatch/config"
	"github.com/gridsim/mycomatch/pkg/infra"
	"github.com/gridsim/mycomatch/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	if err := logging.Init(""); err != nil {
		panic(err)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	if cfg.RecorderDB == nil {
		zap.S().Fatal("recorder_db is not configured")
	}

	if err := infra.Migrate("file://migration/sql", cfg.RecorderDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate fail: %+v", err)
	}
}

package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/c-johnson06/optionSentinel/pkg/config"
	"github.com/c-johnson06/optionSentinel/pkg/logger"
	"github.com/c-johnson06/optionSentinel/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// .env is optional, real deployments set env vars directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load: %v", err)
	}

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	l, err := logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}

	l.Info("starting optionSentinel",
		logger.String("env", cfg.Environment),
		logger.String("upstream", cfg.Tradier.BaseURL))

	if err := server.New(cfg, l).Run(); err != nil {
		l.Error("app error", logger.Error(err))
		os.Exit(1)
	}
}

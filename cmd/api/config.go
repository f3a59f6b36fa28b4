package main

import (
	"os"

	"github.com/joho/godotenv"
)

// Config is the service configuration, read from the environment with an
// optional .env file for local runs.
type Config struct {
	Addr   string
	DBPath string
	Env    string
}

func loadConfig() Config {
	// missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	cfg := Config{
		Addr:   os.Getenv("CHAMALEDGER_ADDR"),
		DBPath: os.Getenv("CHAMALEDGER_DB"),
		Env:    os.Getenv("APP_ENV"),
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "chamaledger.db"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	return cfg
}

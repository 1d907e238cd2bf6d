package config

import (
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string         `env:"ADDR" envDefault:"127.0.0.1:8080"`
	Log      LogConfig      `envPrefix:"LOG_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Backup   BackupConfig   `envPrefix:"BACKUP_"`
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	Dir   string `env:"DIR" envDefault:"./logs"`
}

type DatabaseConfig struct {
	Path          string `env:"PATH" envDefault:"classbook.db"`
	BusyTimeoutMS int    `env:"BUSY_TIMEOUT_MS" envDefault:"5000"`
}

type BackupConfig struct {
	// Dir defaults to backup/ next to the store file.
	Dir    string `env:"DIR"`
	Keep   int    `env:"KEEP" envDefault:"20"`
	OnExit bool   `env:"ON_EXIT" envDefault:"true"`
}

// Load reads .env (if present) and then the CLASSBOOK_* environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "CLASSBOOK_"}); err != nil {
		return nil, err
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = filepath.Join(filepath.Dir(cfg.Database.Path), "backup")
	}
	return &cfg, nil
}

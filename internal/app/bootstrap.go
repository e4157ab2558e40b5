package app

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"dfs_go/internal/infra"
	"dfs_go/internal/infra/storage"
)

const defaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config *infra.Config

	store *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the environment, configuration and logger. The run
// database stays closed until a command asks for it.
func (b *Bootstrap) Initialize(configPath, logLevel string) error {
	// 1. Optional .env for local overrides
	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env file")
	}

	// 2. Load Config (explicit flag, else the repo default when present)
	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err // Let the command surface the error
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	b.Config = cfg

	// 3. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("🚀 DFS Go ready",
		slog.String("version", cfg.App.Version),
		slog.String("config", path),
		slog.String("level", cfg.Logging.Level))

	return nil
}

// Storage opens the run database on first use and reuses it afterwards.
func (b *Bootstrap) Storage() (*storage.Storage, error) {
	if b.store != nil {
		return b.store, nil
	}
	store, err := storage.NewStorage(b.Config.Storage.Path)
	if err != nil {
		return nil, err
	}
	b.store = store
	slog.Info("✅ Database initialized")
	return store, nil
}

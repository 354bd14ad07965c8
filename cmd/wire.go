package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/3mragent/moltbot/internal/adapters/compose"
	"github.com/3mragent/moltbot/internal/adapters/moltbook"
	tomlrepo "github.com/3mragent/moltbot/internal/adapters/repo/toml"
	"github.com/3mragent/moltbot/internal/application"
	"github.com/3mragent/moltbot/internal/config"
	"github.com/3mragent/moltbot/internal/ports"
)

type app struct {
	cfg    config.Agent
	logger *slog.Logger
	cycles *application.CycleService
	feed   ports.FeedClient
}

func wireApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger()

	feed, err := moltbook.New(moltbook.Config{
		BaseURL:           cfg.APIBase,
		AllowedHost:       cfg.AllowedHost,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.RequestTimeout,
		MaxRetries:        cfg.MaxRetries,
		AllowInsecureHTTP: cfg.AllowInsecureHTTP,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("wire moltbook client: %w", err)
	}

	store, err := tomlrepo.NewStateRepository(cfg.StatePath, cfg.AdviceCapacity)
	if err != nil {
		return nil, fmt.Errorf("wire state repository: %w", err)
	}

	heuristic := compose.NewHeuristic()

	cycles := application.NewCycleService(store, feed, heuristic, heuristic, ports.SystemClock{}, logger, application.Config{
		AgentName:          cfg.Name,
		Submolt:            cfg.Submolt,
		AllowedHost:        cfg.AllowedHost,
		FetchLimit:         cfg.FetchLimit,
		DryRun:             cfg.DryRun,
		MaxCommentsPerHour: cfg.MaxCommentsPerHour,
		VariationAttempts:  cfg.VariationAttempts,
		MinRelevance:       cfg.MinRelevance,
		MinConfidence:      cfg.MinConfidence,
	})

	return &app{
		cfg:    cfg,
		logger: logger,
		cycles: cycles,
		feed:   feed,
	}, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevelFromEnv(),
	}))
}

func logLevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("MOLTBOT_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

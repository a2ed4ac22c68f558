package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/safepath-labs/safepath/internal/config"
	"github.com/safepath-labs/safepath/internal/guidance"
	"github.com/safepath-labs/safepath/internal/opendata"
	"github.com/safepath-labs/safepath/internal/safety"
	"github.com/safepath-labs/safepath/internal/store"
)

// env bundles the long-lived components a command needs.
type env struct {
	Safety   *safety.Service
	Store    store.Store
	Guidance *guidance.Generator // nil when no API key is configured
}

// initEnv wires the open-data client, safety service, store, and optional
// guidance generator from config.
func initEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	client := opendata.NewClient(opendata.Options{
		BaseURL:    cfg.OpenData.BaseURL,
		AppToken:   cfg.OpenData.AppToken,
		Resources:  cfg.OpenData.Resources,
		Timeout:    time.Duration(cfg.OpenData.TimeoutSecs) * time.Second,
		MaxRetries: cfg.OpenData.MaxRetries,
		UserAgent:  cfg.OpenData.UserAgent,
	})

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	e := &env{
		Safety: safety.NewService(client),
		Store:  st,
	}

	if cfg.Guidance.APIKey != "" {
		e.Guidance = guidance.NewGenerator(guidance.Options{
			APIKey:    cfg.Guidance.APIKey,
			Model:     cfg.Guidance.Model,
			MaxTokens: cfg.Guidance.MaxTokens,
		})
	}

	return e, nil
}

func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lavka-group/shop-assistant/internal/engine"
	"github.com/lavka-group/shop-assistant/internal/llm"
	"github.com/lavka-group/shop-assistant/internal/ranker"
	"github.com/lavka-group/shop-assistant/internal/resilience"
	"github.com/lavka-group/shop-assistant/internal/service"
	"github.com/lavka-group/shop-assistant/internal/sheets"
	"github.com/lavka-group/shop-assistant/internal/store"
	"github.com/lavka-group/shop-assistant/pkg/bitrix"
)

// appEnv holds the initialized clients and pipeline shared by the commands.
type appEnv struct {
	Engine  *engine.Engine
	Store   store.Store      // nil when no DSN is configured
	Service *service.Service // nil when Store is nil
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

func retryConfig() resilience.RetryConfig {
	return resilience.FromConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.Multiplier)
}

// initEngine wires the answer pipeline: spreadsheet source, ranker, and the
// configured generation backend.
func initEngine() (*engine.Engine, error) {
	if cfg.Sheets.DocID == "" {
		return nil, eris.New("sheets.doc_id is required")
	}

	gen, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return nil, err
	}

	source := sheets.NewSource(sheets.NewClient(sheets.Options{
		BaseURL:    cfg.Sheets.BaseURL,
		Token:      cfg.Sheets.Token,
		Timeout:    time.Duration(cfg.Sheets.TimeoutSecs) * time.Second,
		RatePerSec: cfg.Sheets.RatePerSec,
	}))

	fields, err := ranker.LoadFieldMap(cfg.Ranker.FieldsFile)
	if err != nil {
		return nil, err
	}
	rank := ranker.New(fields, cfg.Ranker.Limit, cfg.Ranker.Threshold)

	retry := retryConfig()
	classifier := engine.NewClassifier(gen, retry)

	return engine.New(classifier, source, rank, gen, cfg.Sheets, retry), nil
}

// initStore opens the configured store and applies migrations. Returns nil
// without error when no DSN is configured.
func initStore(ctx context.Context) (store.Store, error) {
	if cfg.Store.DatabaseURL == "" {
		zap.L().Debug("store.database_url not set, persistence disabled")
		return nil, nil
	}

	st, err := store.New(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initCRM creates the Bitrix client when a webhook is configured.
func initCRM() (bitrix.Client, error) {
	if cfg.Bitrix.WebhookURL == "" {
		zap.L().Debug("bitrix.webhook_url not set, CRM sync disabled")
		return nil, nil
	}
	return bitrix.NewClient(cfg.Bitrix.WebhookURL,
		bitrix.WithTimeout(time.Duration(cfg.Bitrix.TimeoutSecs)*time.Second))
}

// initEnv builds the full environment. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	eng, err := initEngine()
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	env := &appEnv{Engine: eng, Store: st}
	if st != nil {
		crm, err := initCRM()
		if err != nil {
			env.Close()
			return nil, err
		}
		env.Service = service.New(st, crm, retryConfig())
	}

	return env, nil
}

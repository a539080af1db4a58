package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tierlab/internal/assessment"
	"github.com/abhisek/tierlab/internal/config"
	"github.com/abhisek/tierlab/internal/llm"
	"github.com/abhisek/tierlab/internal/logging"
	"github.com/abhisek/tierlab/internal/records"
	"github.com/abhisek/tierlab/internal/store"
	"github.com/abhisek/tierlab/internal/tutor"
)

// deps holds the dependencies shared by the commands.
type deps struct {
	cfg    *config.Config
	log    *zap.Logger
	store  store.RecordStore
	tables *records.Tables
}

// openDeps loads config, builds the logger and opens the Record Store.
func openDeps(cmd *cobra.Command) (*deps, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	rs, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, err
	}

	return &deps{cfg: cfg, log: log, store: rs, tables: records.New(rs)}, nil
}

func (r *deps) Close() error {
	_ = r.log.Sync()
	return r.store.Close()
}

// tracker builds the lifecycle tracker backed by the configured LLM
// provider.
func (r *deps) tracker(ctx context.Context) (*assessment.Tracker, error) {
	provider, err := llm.NewProvider(ctx, r.cfg.LLM, r.tables.LLMRequests, r.log)
	if err != nil {
		return nil, fmt.Errorf("build LLM provider: %w", err)
	}
	dialogue := tutor.NewService(provider, r.cfg.Tutor)
	return assessment.NewTracker(r.tables, dialogue, r.cfg.Tracker, assessment.WithLogger(r.log)), nil
}

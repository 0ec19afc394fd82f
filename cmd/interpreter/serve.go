package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"milo-interpreter/internal/api"
	"milo-interpreter/internal/common/camunda"
	"milo-interpreter/internal/common/config"
	ci "milo-interpreter/internal/workers/ai-conversation/classify-intent"
	cr "milo-interpreter/internal/workers/ai-conversation/conversational-reply"
	ic "milo-interpreter/internal/workers/ai-conversation/interpret-command"
	ta "milo-interpreter/internal/workers/ai-conversation/transcribe-audio"
	dt "milo-interpreter/internal/workers/wallet/draft-transaction"
	qb "milo-interpreter/internal/workers/wallet/query-balance"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, the Zeebe job workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	a.zap.Info("starting interpreter",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("genaiProvider", cfg.APIs.GenAI.Provider),
	)

	if cfg.Camunda.Enabled {
		registry, err := a.startWorkers(ctx)
		if err != nil {
			return err
		}
		defer registry.Close()
	}

	deps := api.Dependencies{
		Chat:         a.orchestrator,
		Drafter:      a.draft,
		Balance:      a.balance,
		Checks:       a.checks,
		Logger:       a.log,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Version:      cfg.App.Version,
	}
	if a.directory != nil {
		deps.Contacts = a.directory
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewServer(deps).Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.zap.Info("HTTP server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.zap.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	a.zap.Info("interpreter stopped")
	return err
}

// startWorkers connects to the broker and opens a job worker per enabled
// task type.
func (a *app) startWorkers(ctx context.Context) (*camunda.Registry, error) {
	cfg := a.cfg
	client, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.checks["zeebe"] = client

	registry := camunda.NewRegistry(client.GetClient(), a.zap)
	for taskType, handler := range map[string]camunda.JobHandler{
		ci.TaskType: a.classify,
		ic.TaskType: a.interpret,
		cr.TaskType: a.reply,
		ta.TaskType: a.transcribe,
		dt.TaskType: a.draft,
		qb.TaskType: a.balance,
	} {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			a.zap.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		maxActive := wcfg.MaxJobsActive
		if maxActive == 0 {
			maxActive = cfg.Camunda.MaxJobsActive
		}
		registry.Register(taskType, camunda.WorkerOptions{
			MaxJobsActive: maxActive,
			Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
		}, handler)
	}

	a.zap.Info("workers registered", zap.Strings("taskTypes", registry.TaskTypes()))
	return registry, nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"charitybot/pkg/channels"
	"charitybot/pkg/logger"
	"charitybot/pkg/metrics"
	"charitybot/pkg/pipeline"
	"charitybot/pkg/providers"
	"charitybot/pkg/server"
	"charitybot/pkg/verify"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Slack webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *globalOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}

	if cfg.App.DevMode && !server.DevModeCompiled() {
		logger.WarnC("main", "CHARITYBOT_DEV_MODE is set but this build has no dev mode; ignoring")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := providers.CreateProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}
	logger.InfoCF("main", "Provider ready", map[string]interface{}{
		"provider":      provider.ID(),
		"extract_model": cfg.Provider.ExtractModel,
		"lookup_model":  cfg.Provider.LookupModel,
	})

	m := metrics.New()
	slackChannel := channels.NewSlackChannel(cfg.Slack.BotToken, cfg.Slack.APIURL)
	orchestrator := pipeline.NewOrchestrator(slackChannel, provider, provider, pipeline.WithObserver(m))

	serverOpts := []server.Option{server.WithMetrics(m)}
	if cfg.App.DevMode {
		serverOpts = append(serverOpts, server.WithPreview(func(ctx context.Context, message string) (pipeline.PreviewResult, error) {
			return pipeline.Preview(ctx, provider, provider, message)
		}))
	}
	srv := server.NewServer(cfg, verify.NewVerifier(cfg.Slack.SigningSecret, time.Now), orchestrator, serverOpts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.InfoC("main", "Shutdown complete")
	return nil
}

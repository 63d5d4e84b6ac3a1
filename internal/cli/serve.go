package cli

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harun/slackmcp/internal/config"
	"github.com/harun/slackmcp/internal/logger"
	"github.com/harun/slackmcp/internal/metrics"
	"github.com/harun/slackmcp/internal/observability"
	"github.com/harun/slackmcp/internal/tracing"
	"github.com/harun/slackmcp/pkg/mcpserver"
	"github.com/harun/slackmcp/pkg/slackapi"
	"github.com/harun/slackmcp/pkg/toolexecutor"
)

var metricsAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Slack tools over MCP on stdio",
	Long: `Serve the Slack tools to an MCP client over stdin/stdout.
Requires SLACK_BOT_TOKEN in the environment, a .env file or the config file.
Logs go to stderr; stdout carries only protocol messages.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (overrides metrics.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
		MaxSize:   cfg.Logging.MaxSize,
		MaxAge:    cfg.Logging.MaxAge,
		Compress:  cfg.Logging.Compress,
		Out:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return exitError(exitConfig, "failed to set up logging: %v", err)
	}
	defer lg.Close()
	log := lg.Component("cli")

	if err := cfg.RequireBotToken(); err != nil {
		log.Error().Msg(err.Error())
		return exitError(exitConfig, "%v", err)
	}
	for _, problem := range config.NewValidator().ValidateConfig(cfg) {
		log.Warn().Err(problem).Msg("Configuration warning")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = tracing.WithSessionID(ctx, tracing.NewSessionID())

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Install(tracing.ProviderConfig{
			ServiceName: cfg.Tracing.ServiceName,
			Version:     version,
			SessionID:   tracing.GetSessionID(ctx),
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			return exitError(exitFailure, "failed to initialize tracing: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Tracing shutdown failed")
			}
		}()
	}

	m := metrics.NewMetrics()
	if err := startMetrics(ctx, cfg, m, log); err != nil {
		return exitError(exitFailure, "failed to start metrics endpoint: %v", err)
	}

	client, err := slackapi.NewClient(slackapi.ClientConfig{
		Token:    cfg.Slack.BotToken,
		APIURL:   cfg.Slack.APIURL,
		Timeout:  cfg.Slack.Timeout,
		Recorder: m,
	})
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	policy := &toolexecutor.ToolPolicy{Allow: cfg.Tools.Allow, Deny: cfg.Tools.Deny}
	if err := policy.Validate(); err != nil {
		return exitError(exitConfig, "invalid tools policy: %v", err)
	}

	opts := toolexecutor.Options{
		Policy:   policy,
		Observer: m,
		Logger:   lg.Zerolog(),
	}
	if cfg.Audit.File != "" {
		auditor, err := observability.OpenAuditLogger(cfg.Audit.File)
		if err != nil {
			return exitError(exitConfig, "%v", err)
		}
		defer auditor.Close()
		opts.Auditor = auditor
	}

	executor := toolexecutor.New(client, opts)
	server := mcpserver.New(executor, mcpserver.Options{
		Info:   mcpserver.ServerInfo{Name: serverName, Version: version},
		Logger: lg.Zerolog(),
	})

	log.Info().
		Str("session_id", tracing.GetSessionID(ctx)).
		Int("tools", len(executor.Tools())).
		Msg("Starting Slack MCP server")

	err = server.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil && !errors.Is(err, context.Canceled) {
		return exitError(exitFailure, "server stopped: %v", err)
	}
	log.Info().Msg("Slack MCP server stopped")
	return nil
}

// startMetrics serves /metrics in the background when enabled.
func startMetrics(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log zerolog.Logger) error {
	addr := metricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Addr
	}
	if addr == "" {
		return nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		if err := m.Serve(ctx, ln); err != nil {
			log.Error().Err(err).Msg("Metrics endpoint failed")
		}
	}()
	return nil
}

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/almalabs/wabridge/internal/config"
	"github.com/almalabs/wabridge/internal/logger"
	"github.com/almalabs/wabridge/internal/metrics"
	"github.com/almalabs/wabridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook bridge server",
	Long: `Run the HTTP server that receives WhatsApp webhook deliveries,
forwards messages to the agent runtime, and relays replies back.
The process runs in the foreground until SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    cfg.Logging.Pretty,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	log.Info().
		Str("version", version).
		Str("env", cfg.App.Env).
		Str("addr", fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port)).
		Bool("agent_enabled", cfg.Agent.AgentEnabled()).
		Bool("relay_enabled", cfg.WhatsApp.RelayEnabled()).
		Msg("Starting wabridge")

	srv, err := server.NewServer(cfg, metrics.NewMetrics(), log.GetZerolog())
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	if err := srv.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop server cleanly")
		return err
	}

	log.Info().Msg("Shutdown complete")
	return nil
}

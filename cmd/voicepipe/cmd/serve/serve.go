package serve

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voicepipe/internal/app"
	"voicepipe/internal/config"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline HTTP server",
	Long: `Run the pipeline HTTP server.

Configuration comes from the environment (optionally a .env file); see
.env.example for the recognized variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v\n", err)
		}
		if err := cfg.RequireOpenAI(); err != nil {
			log.Fatalf("Configuration error: %v\n", err)
		}

		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		application, err := app.InitializeApplication(cfg, logger)
		if err != nil {
			log.Fatalf("Failed to initialize application: %v\n", err)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- application.Server.Start()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("server error", "error", err)
			}
		case sig := <-stop:
			logger.Info("shutdown signal received", "signal", sig.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := application.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", "error", err)
			os.Exit(1)
		}
	},
}

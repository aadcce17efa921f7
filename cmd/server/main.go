package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/BerylCAtieno/niche-detector/internal/a2a"
	"github.com/BerylCAtieno/niche-detector/internal/config"
	"github.com/BerylCAtieno/niche-detector/internal/logging"
	"github.com/BerylCAtieno/niche-detector/internal/pipeline"
	"github.com/BerylCAtieno/niche-detector/internal/researcher"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	port    int
)

var rootCmd = &cobra.Command{
	Use:           "niche-detector",
	Short:         "Serve the niche detector web app and A2A agent.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = port
		}
		return serve(cmd.Context(), cfg)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on, overrides PORT")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "niche-detector: %v\n", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	gemini, err := researcher.NewGeminiClient(ctx, researcher.GeminiConfig{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		RelayModel:  cfg.RelayModel,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return err
	}
	defer gemini.Close()

	client := researcher.NewClient(gemini, researcher.Options{
		OutputLanguage:    cfg.OutputLanguage,
		RequestsPerMinute: cfg.RequestsPerMinute,
		Timeout:           cfg.RequestTimeout,
	}, logger)
	store := pipeline.NewStore(client, cfg.SessionTTL, logger)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           newRouter(store, gemini, client, a2a.NewAgentCard(version, ""), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("niche detector starting",
			zap.Int("port", cfg.Port),
			zap.String("model", cfg.Model),
			zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		logger.Info("shutting down")
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

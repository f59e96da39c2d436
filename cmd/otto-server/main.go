package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"otto/internal/agent"
	"otto/internal/auth"
	"otto/internal/config"
	"otto/internal/httpclient"
	"otto/internal/logging"
	"otto/internal/observability"
	"otto/internal/server"
	"otto/internal/session"
)

const version = "0.1.0"

var (
	cyan = color.New(color.FgCyan).SprintFunc()
	gray = color.New(color.FgHiBlack).SprintFunc()
)

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printBanner() {
	if !isTTY() {
		return
	}
	fmt.Println(cyan("otto"), gray("personal assistant backend "+version))
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "otto-server",
		Short: "Personal assistant backend",
		Long:  "otto-server proxies the assistant UI to the external agent services and parses their replies into structured data.",
	}
	rootCmd.AddCommand(newServeCmd(), newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("otto-server %s\n", version)
		},
	}
}

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Port = port
			}
			printBanner()
			return run(cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

func run(cfg *config.Config) error {
	logging.SetLevel(logging.ParseLevel(cfg.Observability.Logging.Level))
	logger := logging.NewComponentLogger("Main")
	logger.Info("Starting otto server...")
	logger.Info("Port: %d, calendar agent: %s", cfg.Port, cfg.Agents.CalendarURL)

	metrics, err := observability.NewMetricsCollector(cfg.Observability.Metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	tracer, err := observability.NewTracerProvider(cfg.Observability.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	sessions, err := session.New(cfg.SessionDir)
	if err != nil {
		return err
	}

	httpClient := httpclient.New(cfg.HTTPTimeout, logging.NewComponentLogger("HTTP"))

	authClient := auth.NewClient(auth.Options{
		HTTPClient:    httpClient,
		LoginURL:      cfg.Auth.LoginURL,
		DirectoryURL:  cfg.Auth.DirectoryURL,
		DirectoryKey:  cfg.Auth.DirectoryKey,
		ResponseLimit: cfg.ResponseLimit,
		Logger:        logging.NewComponentLogger("Auth"),
	})

	gateway, err := agent.NewGateway(agent.Options{
		HTTPClient: httpClient,
		URLs: map[agent.Kind]string{
			agent.KindPublicData:       cfg.Agents.PublicDataURL,
			agent.KindPreferenceCreate: cfg.Agents.PreferenceCreateURL,
			agent.KindCalendar:         cfg.Agents.CalendarURL,
			agent.KindPreferenceQuery:  cfg.Agents.PreferenceQueryURL,
			agent.KindGift:             cfg.Agents.GiftURL,
		},
		ResponseLimit: cfg.ResponseLimit,
		CacheSize:     cfg.CacheSize,
		Logger:        logging.NewComponentLogger("Gateway"),
		Metrics:       metrics,
		Tracer:        tracer,
	})
	if err != nil {
		return err
	}

	srv := server.New(server.Options{
		Config:   cfg,
		Gateway:  gateway,
		Auth:     authClient,
		Sessions: sessions,
		Metrics:  metrics,
		Logger:   logging.NewComponentLogger("Server"),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if err := tracer.Shutdown(ctx); err != nil {
		logger.Warn("Failed to flush traces: %v", err)
	}

	logger.Info("Server stopped")
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"browser-mcp/internal/browser"
	"browser-mcp/internal/config"
	"browser-mcp/internal/logging"
	"browser-mcp/internal/server"
	"browser-mcp/internal/tools"
	"browser-mcp/internal/urlcheck"
)

func main() {
	root := &cobra.Command{
		Use:   "browser-mcp",
		Short: "MCP server exposing browser automation tools over SSE",
	}
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	var (
		host     string
		port     int
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("headless") {
				cfg.Headless = headless
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "host to bind to")
	cmd.Flags().IntVar(&port, "port", 3333, "port to bind to")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	return cmd
}

func serve(cfg *config.Config) error {
	log, err := logging.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer log.Sync()

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	session := browser.NewSession(browser.Config{
		Headless:   cfg.Headless,
		NoSandbox:  cfg.NoSandbox,
		SlowMotion: cfg.SlowMotion,
		Timeout:    cfg.BrowserTimeout,
	}, log)
	defer session.Stop()

	checker := urlcheck.New(cfg.URLAllowlist, cfg.AllowPrivate)

	toolset := tools.All(tools.Deps{
		Session:     session,
		Checker:     checker,
		Log:         log,
		DownloadDir: cfg.DownloadDir,
	})

	srv := server.New(cfg, log, toolset)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm up the browser; tools start it lazily if this fails.
	if err := session.Start(ctx); err != nil {
		log.Warn("browser warm-up failed, will retry on first tool call", zap.Error(err))
	}

	return srv.Run(ctx)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xreposters/internal/server"
	"xreposters/pkg/auth"
	"xreposters/pkg/logger"
	"xreposters/pkg/scraper"
)

var (
	serveAddr    string
	serveTimeout time.Duration
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API.

Routes (also available under /api):
  GET  /health          liveness probe
  GET  /crawl?url=...   collect the reposters of a post
  POST /draw            draw winners from {"users": [...], "count": n}`,
	Example: `  xreposters serve --addr :8000`,
	Args:    cobra.NoArgs,
	Run:     runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default :8000 or :$PORT)")
	serveCmd.Flags().DurationVar(&serveTimeout, "timeout", 0, "deadline for each crawl request (default 170s)")
}

func runServe(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if serveAddr != "" {
		flags["addr"] = serveAddr
	}
	if serveTimeout > 0 {
		flags["timeout"] = serveTimeout
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		fail("Failed to load configuration", err)
	}
	log := logger.GetLogger()

	var accounts scraper.DefaultAccountSource
	if manager, err := auth.NewManager(); err != nil {
		log.WithError(err).Warn("Credential manager unavailable")
	} else {
		accounts = manager
	}
	creds := scraper.ResolveCredentials(cfg, accounts)
	log.WithField("authenticated", creds != nil).Info("Crawl login resolved")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, scraper.New(cfg, nil, log), creds, log)
	if err := srv.ListenAndServe(ctx); err != nil {
		fail("Server failed", err)
	}
}

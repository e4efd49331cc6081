package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"xreposters/pkg/auth"
	"xreposters/pkg/config"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
	"xreposters/pkg/scraper"
	"xreposters/pkg/storage"
	"xreposters/pkg/ui"
)

var (
	// Crawl command flags
	crawlURL     string
	crawlOut     string
	crawlHead    bool
	crawlScroll  int
	crawlPause   time.Duration
	crawlMode    string
	crawlTimeout time.Duration
	crawlAccount string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Collect the accounts that reposted a post",
	Long: `Collect the accounts that reposted a post and save them as JSON.

Login is optional. Credentials are taken from, in order:
  - X_USERNAME and X_PASSWORD (environment, .env or config file)
  - The account given with --account
  - The most recently stored account (see 'xreposters auth login')

Without credentials the post is opened anonymously, which may show fewer accounts.`,
	Example: `  # Collect into the default output file
  xreposters crawl https://x.com/someone/status/1234567890

  # Open the /retweets page directly and scroll further
  xreposters crawl --url https://x.com/someone/status/1234567890 --mode direct --max-scroll 120

  # Watch the browser
  xreposters crawl https://x.com/someone/status/1234567890 --headless=false`,
	Args: cobra.MaximumNArgs(1),
	Run:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVarP(&crawlURL, "url", "u", "", "post URL (or status path)")
	crawlCmd.Flags().StringVarP(&crawlOut, "out", "o", "", "output file (default data/retweeters.json)")
	crawlCmd.Flags().BoolVar(&crawlHead, "headless", true, "run Chrome without a window")
	crawlCmd.Flags().IntVar(&crawlScroll, "max-scroll", 0, "maximum scroll iterations (default 50)")
	crawlCmd.Flags().DurationVar(&crawlPause, "pause", 0, "pause between scrolls (default 700ms)")
	crawlCmd.Flags().StringVar(&crawlMode, "mode", "", "collection mode: modal or direct")
	crawlCmd.Flags().DurationVar(&crawlTimeout, "timeout", 0, "overall crawl deadline (default 170s)")
	crawlCmd.Flags().StringVarP(&crawlAccount, "account", "a", "", "use a specific stored account")
}

// crawlFlags collects the flags that were set on the command line
func crawlFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("headless") {
		flags["headless"] = crawlHead
	}
	if crawlScroll > 0 {
		flags["max-scroll"] = crawlScroll
	}
	if cmd.Flags().Changed("pause") {
		flags["pause"] = crawlPause
	}
	if crawlMode != "" {
		flags["mode"] = crawlMode
	}
	if crawlOut != "" {
		flags["out"] = crawlOut
	}
	if crawlTimeout > 0 {
		flags["timeout"] = crawlTimeout
	}
	return flags
}

func runCrawl(cmd *cobra.Command, args []string) {
	target := strings.TrimSpace(crawlURL)
	if target == "" && len(args) > 0 {
		target = strings.TrimSpace(args[0])
	}
	if target == "" {
		fail("missing url", nil)
	}

	cfg, err := loadConfig(crawlFlags(cmd))
	if err != nil {
		fail("Failed to load configuration", err)
	}
	logger.WithField("version", version).Info("xreposters starting")
	ui.PrintInfo("Target", target)

	creds, err := crawlCredentials(cfg, crawlAccount)
	if err != nil {
		fail("Account not found", err)
	}
	if creds != nil {
		ui.PrintInfo("Signing in as", creds.Identifier)
	} else {
		ui.PrintWarning("No credentials configured, collecting anonymously")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.CrawlTimeout)
	defer cancel()

	s := scraper.New(cfg, nil, logger.GetLogger())
	users, err := s.Collect(ctx, scraper.NewRequest(cfg, target, creds))
	if err != nil {
		fail("Crawl failed", err)
	}

	path, err := storage.NewManager(".").SaveResult(cfg.Output.Path, models.NewResult(users))
	if err != nil {
		fail("Failed to save result", err)
	}
	ui.PrintSaved(len(users), path)
}

// crawlCredentials resolves the login for a CLI run. A named account must exist.
func crawlCredentials(cfg *config.Config, account string) (*models.Credentials, error) {
	manager, err := auth.NewManager()
	if err != nil {
		logger.WithError(err).Warn("Credential manager unavailable")
		if account != "" {
			return nil, err
		}
		return scraper.ResolveCredentials(cfg, nil), nil
	}

	if account != "" {
		stored, err := manager.Retrieve(account)
		if err != nil {
			return nil, err
		}
		return stored.Credentials(), nil
	}
	return scraper.ResolveCredentials(cfg, manager), nil
}

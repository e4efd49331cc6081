package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"xreposters/pkg/config"
	"xreposters/pkg/logger"
	"xreposters/pkg/ui"
)

var (
	// Version information
	version   = "0.3.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "xreposters",
	Short: "Collect the accounts that reposted an X post and draw winners",
	Long: `xreposters drives a headless Chrome session to list every account that
reposted a post on X, then saves the list for giveaway draws.

Features:
  - Optional login with credentials from the system keychain or environment
  - Modal (post page dialog) and direct (/retweets page) collection modes
  - Deduplicated, order-preserving results with follow status and bio
  - HTTP API for crawl and draw requests
  - Uniform winner draws without replacement`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		ui.SetPlainMode(noColor)

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "serve" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.xreposters.yaml or ~/.config/xreposters/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`xreposters {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the global flags applied and
// initializes the global logger from it.
func loadConfig(flags map[string]interface{}) (*config.Config, error) {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	if quiet {
		flags["log-level"] = "error"
	} else if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// fail prints err and exits
func fail(msg string, err error) {
	if err != nil {
		ui.PrintError(msg, err.Error())
	} else {
		ui.PrintError(msg)
	}
	os.Exit(1)
}

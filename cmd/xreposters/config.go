package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"xreposters/pkg/config"
	"xreposters/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage xreposters configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (X_USERNAME, X_PASSWORD, XREPOSTERS_*, PORT)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration to .xreposters.yaml, or to the path
given with --config.`,
	Run: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Run:   runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = ".xreposters.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Configuration file already exists", path)
		os.Exit(1)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		fail("Failed to create configuration file", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your X login with 'xreposters auth login' or set X_USERNAME and X_PASSWORD")
	fmt.Println("2. Run 'xreposters config validate' to check the configuration")
	fmt.Println("3. Collect with 'xreposters crawl <post url>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		fail("Failed to load configuration", err)
	}

	display := *cfg
	if display.X.Password != "" {
		display.X.Password = "********"
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		fail("Failed to format configuration", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		fail("Configuration validation failed", err)
	}

	if cfg.X.Username == "" || cfg.X.Password == "" {
		ui.PrintWarning("No X credentials configured, crawls fall back to stored accounts or anonymous mode")
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Mode: %s\n", cfg.Collect.Mode)
	fmt.Printf("  Max scroll iterations: %d\n", cfg.Collect.MaxIterations)
	fmt.Printf("  Scroll pause: %s\n", cfg.Collect.Pause)
	fmt.Printf("  Headless: %t\n", cfg.Browser.Headless)
	fmt.Printf("  Output: %s\n", cfg.Output.Path)
	fmt.Printf("  Server: %s (crawl timeout %s)\n", cfg.Server.Addr, cfg.Server.CrawlTimeout)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xreposters/pkg/auth"
	"xreposters/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored X credentials",
	Long: `Manage the X login used by crawls.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables X_USERNAME and X_PASSWORD (read only)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store an X username and password",
	Long: `Store an X username (or email or phone) and password securely.

The password is read without echo when stdin is a terminal.`,
	Example: `  # Interactive login
  xreposters auth login

  # Login with username
  xreposters auth login myhandle`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [username]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials.

Without a username the only stored account is removed. When several are
stored a username is required.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored accounts and the one crawls will use",
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Print("X username, email or phone: ")
		username, err = readLine(reader)
		if err != nil {
			fail("Failed to read username", err)
		}
	}
	if username == "" {
		fail("Username is required", nil)
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", username)
		input, _ := readLine(reader)
		if !strings.HasPrefix(strings.ToLower(input), "y") {
			return
		}
	}

	fmt.Print("Password: ")
	password, err := readPassword(reader)
	if err != nil {
		fail("Failed to read password", err)
	}
	if password == "" {
		fail("Password is required", nil)
	}

	account := &auth.Account{
		Username:     username,
		Password:     password,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		fail("Failed to store credentials", err)
	}

	ui.PrintSuccess("Account saved: " + username)
	fmt.Println("\nCrawls will sign in with the most recently stored account:")
	fmt.Println("  $ xreposters crawl <post url>")
	fmt.Println("\nUse another stored account:")
	fmt.Printf("  $ xreposters crawl <post url> --account %s\n", username)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	var username string
	if len(args) > 0 {
		username = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintError("No stored accounts found")
			return
		}
		if len(accounts) > 1 {
			ui.PrintError("Several accounts are stored, specify one")
			for _, account := range accounts {
				fmt.Printf("  - %s\n", account.Username)
			}
			os.Exit(1)
		}
		username = accounts[0].Username
	}

	if err := manager.Delete(username); err != nil {
		fail("Failed to remove account", err)
	}
	ui.PrintSuccess("Account removed: " + username)
}

func runStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		fail("Failed to initialize credential manager", err)
	}

	accounts, err := manager.List()
	if err != nil {
		fail("Failed to list accounts", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'xreposters auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Accounts")
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. Username: %s\n", i+1, sanitized.Username)
		fmt.Printf("   Password: %s\n", sanitized.Password)
		if !sanitized.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}

	if def, err := manager.RetrieveDefault(); err == nil {
		fmt.Println()
		ui.PrintInfo("Crawls sign in as", def.Username)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	input, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// readPassword reads a password from stdin without echoing when possible
func readPassword(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}
	return readLine(r)
}

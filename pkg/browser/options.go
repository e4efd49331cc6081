package browser

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/chromedp/chromedp"

	"xreposters/pkg/config"
)

// Options configures one browser session
type Options struct {
	Headless     bool
	ChromePath   string
	WindowWidth  int
	WindowHeight int
	Languages    []string
	UserAgent    string
	Stealth      bool
}

// OptionsFromConfig maps the browser section of the configuration onto session options
func OptionsFromConfig(cfg config.BrowserConfig) Options {
	return Options{
		Headless:     cfg.Headless,
		ChromePath:   cfg.ChromePath,
		WindowWidth:  cfg.WindowWidth,
		WindowHeight: cfg.WindowHeight,
		Languages:    cfg.Languages,
		UserAgent:    cfg.UserAgent,
		Stealth:      cfg.Stealth,
	}
}

// webdriverMask hides the automation marker from page scripts
const webdriverMask = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`

var candidatePaths = map[string][]string{
	"linux": {
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
		"/app/.apt/usr/bin/google-chrome",
	},
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	},
}

var lookupNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}

// FindChrome resolves the browser binary: explicit override, CHROME_BIN,
// GOOGLE_CHROME_BIN, then common install locations. An empty result lets
// chromedp fall back to its own lookup.
func FindChrome(override string) (string, error) {
	for _, path := range []string{override, os.Getenv("CHROME_BIN"), os.Getenv("GOOGLE_CHROME_BIN")} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("chrome binary %q: %w", path, err)
		}
		return path, nil
	}

	for _, path := range candidatePaths[runtime.GOOS] {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	for _, name := range lookupNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", nil
}

// switches returns the Chrome command-line switches for opts on top of the
// chromedp defaults. A false value removes the switch.
func switches(opts Options) map[string]interface{} {
	sw := map[string]interface{}{
		"no-sandbox":             true,
		"disable-gpu":            true,
		"disable-dev-shm-usage":  true,
		"disable-blink-features": "AutomationControlled",
		"enable-automation":      false,
		"headless":               false,
	}

	if opts.Headless {
		sw["headless"] = "new"
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		sw["window-size"] = fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight)
	}
	if len(opts.Languages) > 0 {
		sw["lang"] = strings.Join(opts.Languages, ",")
	}
	if opts.UserAgent != "" {
		sw["user-agent"] = opts.UserAgent
	}
	return sw
}

// allocatorOptions builds the exec allocator flags for opts
func allocatorOptions(opts Options, execPath string) []chromedp.ExecAllocatorOption {
	flags := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range switches(opts) {
		flags = append(flags, chromedp.Flag(name, value))
	}
	if execPath != "" {
		flags = append(flags, chromedp.ExecPath(execPath))
	}
	return flags
}

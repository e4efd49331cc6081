package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"xreposters/pkg/models"
)

// Logo printed before interactive commands
const Logo = `
    ╔═══════════════════════════════════════════════╗
    ║  x r e p o s t e r s                          ║
    ║  REPOST HARVESTER AND GIVEAWAY DRAW UTILITY   ║
    ╚═══════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	mu    sync.Mutex
	out   io.Writer = os.Stdout
	quiet bool
	plain bool
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		mu.Lock()
		p := plain
		mu.Unlock()
		if p {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetOutput redirects all terminal output; nil restores stdout
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	mu.Lock()
	defer mu.Unlock()
	quiet = q
}

// SetPlainMode disables ANSI colors
func SetPlainMode(p bool) {
	mu.Lock()
	defer mu.Unlock()
	plain = p
}

func write(force bool, s string) {
	mu.Lock()
	defer mu.Unlock()
	if quiet && !force {
		return
	}
	fmt.Fprint(out, s)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	write(false, Cyan(Logo))
}

// PrintError prints an error message in red. Errors are shown in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	write(true, Red(msg)+"\n")
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	write(false, Green(msg)+"\n")
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	write(false, fmt.Sprintf("%s: %s\n", Cyan(label), Yellow(value)))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	write(false, Yellow(msg)+"\n")
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	write(false, Magenta(msg)+"\n")
}

// PrintSaved prints the summary line of a crawl
func PrintSaved(count int, path string) {
	write(false, Green(fmt.Sprintf("saved %d users → %s", count, path))+"\n")
}

// PrintUsers prints one numbered line per account
func PrintUsers(users []models.CollectedEntity) {
	var b strings.Builder
	for i, u := range users {
		fmt.Fprintf(&b, "%3d. %s", i+1, Yellow("@"+u.Handle))
		if u.DisplayName != "" {
			fmt.Fprintf(&b, " %s", u.DisplayName)
		}
		if u.RelationshipStatus == models.Following {
			fmt.Fprintf(&b, " %s", Dim("(following)"))
		}
		b.WriteString("\n")
	}
	write(false, b.String())
}

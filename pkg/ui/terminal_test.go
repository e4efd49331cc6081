package ui

import (
	"bytes"
	"strings"
	"testing"

	"xreposters/pkg/models"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetPlainMode(true)
	SetQuietMode(false)
	t.Cleanup(func() {
		SetOutput(nil)
		SetPlainMode(false)
		SetQuietMode(false)
	})
	return &buf
}

func TestPrintSaved(t *testing.T) {
	buf := capture(t)

	PrintSaved(3, "data/retweeters.json")

	if got := buf.String(); got != "saved 3 users → data/retweeters.json\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestQuietModeKeepsErrors(t *testing.T) {
	buf := capture(t)
	SetQuietMode(true)

	PrintInfo("Target", "https://x.com/a/status/1")
	PrintSuccess("done")
	PrintError("Crawl failed", "timeout")

	if got := buf.String(); got != "Crawl failed: timeout\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrintUsers(t *testing.T) {
	buf := capture(t)

	PrintUsers([]models.CollectedEntity{
		{Handle: "alice", DisplayName: "Alice", RelationshipStatus: models.Following},
		{Handle: "bob", RelationshipStatus: models.NotFollowing},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "  1. @alice Alice (following)" {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if lines[1] != "  2. @bob" {
		t.Errorf("unexpected second line %q", lines[1])
	}
}

func TestColors(t *testing.T) {
	SetPlainMode(false)
	if got := Red("x"); got != "\033[31mx\033[0m" {
		t.Errorf("unexpected colored text %q", got)
	}
}

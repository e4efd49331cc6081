package x

import (
	"fmt"
	"net/url"
	"strings"

	"xreposters/pkg/config"
	apperrors "xreposters/pkg/errors"
)

// Mode selects how the repost list is reached
type Mode string

const (
	// ModeModal opens the list as a dialog from the post page
	ModeModal Mode = config.ModeModal
	// ModeDirect loads the list page itself and scrolls the document
	ModeDirect Mode = config.ModeDirect
)

// ParseMode validates a configured mode name; empty means modal
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeModal:
		return ModeModal, nil
	case ModeDirect:
		return ModeDirect, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// LoginURL returns the login flow entry point for base
func LoginURL(base string) string {
	return strings.TrimRight(base, "/") + "/i/flow/login"
}

// NormalizeTarget turns user input into the URL to load. Site-relative paths
// resolve against base; bare hosts get https. Direct mode points at the
// repost list page of the post.
func NormalizeTarget(raw, base string, mode Mode) (string, error) {
	target := strings.TrimSpace(raw)
	if target == "" {
		return "", apperrors.MissingInput("missing url")
	}

	switch {
	case strings.HasPrefix(target, "/"):
		target = strings.TrimRight(base, "/") + target
	case !strings.Contains(target, "://"):
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "", apperrors.MissingInput(fmt.Sprintf("invalid url %q", raw))
	}

	if mode == ModeDirect {
		path := strings.TrimRight(u.Path, "/")
		if !strings.HasSuffix(path, "/retweets") && !strings.HasSuffix(path, "/reposts") {
			path += "/retweets"
		}
		u.Path = path
		u.RawPath = ""
	}

	return u.String(), nil
}

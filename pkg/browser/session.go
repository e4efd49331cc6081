package browser

import (
	"context"
	"fmt"
	"time"
)

// Page is the DOM capability the rest of the system drives. Selectors are CSS.
type Page interface {
	// Navigate loads url in the session's tab
	Navigate(ctx context.Context, url string) error
	// WaitAny waits until any selector matches and returns the one that did.
	// It returns a timeout error once timeout elapses.
	WaitAny(ctx context.Context, timeout time.Duration, selectors ...string) (string, error)
	// Count returns the number of elements matching selector
	Count(ctx context.Context, selector string) (int, error)
	// TypeInto clears the index-th match (-1 is the last), types text and presses Enter
	TypeInto(ctx context.Context, selector string, index int, text string) error
	// Texts returns the rendered text of every match
	Texts(ctx context.Context, selector string) ([]string, error)
	// ClickAt clicks the index-th match
	ClickAt(ctx context.Context, selector string, index int) error
	// OuterHTMLs returns the markup of every selector match inside scope ("" is the document)
	OuterHTMLs(ctx context.Context, scope, selector string) ([]string, error)
	// ScrollForward scrolls scope by its own height, or the document by one viewport
	ScrollForward(ctx context.Context, scope string) error
	// Sleep pauses for d unless ctx ends first
	Sleep(ctx context.Context, d time.Duration) error
}

// Session is a live browser page that must be released
type Session interface {
	Page
	// Release shuts the browser down; calling it more than once is safe
	Release() error
}

// Launcher acquires browser sessions
type Launcher interface {
	Acquire(ctx context.Context, opts Options) (Session, error)
}

// WithSession acquires a session, runs fn and releases the session on every
// exit path, including panics inside fn. Release failures are reported to
// onRelease (may be nil) and never replace fn's result.
func WithSession(ctx context.Context, launcher Launcher, opts Options, fn func(Session) error, onRelease func(error)) error {
	session, err := launcher.Acquire(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if releaseErr := session.Release(); releaseErr != nil && onRelease != nil {
			onRelease(fmt.Errorf("release browser session: %w", releaseErr))
		}
	}()

	return fn(session)
}

// Sleep pauses for d, returning early with ctx's error when it ends
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

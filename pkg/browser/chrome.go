package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	apperrors "xreposters/pkg/errors"
	"xreposters/pkg/logger"
)

const (
	pollInterval   = 250 * time.Millisecond
	startupTimeout = 30 * time.Second
	closeTimeout   = 5 * time.Second
)

// ChromeLauncher starts a local Chrome per session through chromedp
type ChromeLauncher struct {
	Log logger.Logger
}

// NewChromeLauncher creates a launcher that logs through log
func NewChromeLauncher(log logger.Logger) *ChromeLauncher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &ChromeLauncher{Log: log}
}

// Acquire implements Launcher
func (l *ChromeLauncher) Acquire(ctx context.Context, opts Options) (Session, error) {
	s, err := Acquire(ctx, opts, l.Log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ChromeSession is one browser process with a single tab
type ChromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	log         logger.Logger

	releaseOnce sync.Once
	releaseErr  error
}

// Acquire starts a browser configured by opts. The browser lives as long as
// ctx; any startup failure is a resource_init error with nothing left running.
func Acquire(ctx context.Context, opts Options, log logger.Logger) (*ChromeSession, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	execPath, err := FindChrome(opts.ChromePath)
	if err != nil {
		return nil, apperrors.ResourceInit("browser binary not usable", err)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(opts, execPath)...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	s := &ChromeSession{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		log:         log,
	}

	// The browser process is bound to the context of the first Run.
	err = startWithin(startupTimeout, func() {
		cancelTab()
		cancelAlloc()
	}, func() error {
		return chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			if !opts.Stealth {
				return nil
			}
			_, err := page.AddScriptToEvaluateOnNewDocument(webdriverMask).Do(ctx)
			return err
		}))
	})
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, apperrors.ResourceInit("failed to start browser", err)
	}

	log.WithFields(map[string]interface{}{
		"exec_path": execPath,
		"headless":  opts.Headless,
		"stealth":   opts.Stealth,
	}).Debug("Browser session started")

	return s, nil
}

// startWithin runs start and calls abort if it has not returned within
// timeout. A start that returns after abort fired is reported as failed.
func startWithin(timeout time.Duration, abort func(), start func() error) error {
	aborted := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		abort()
		close(aborted)
	})

	err := start()
	if !timer.Stop() {
		<-aborted
		if err == nil {
			err = context.DeadlineExceeded
		}
		return fmt.Errorf("browser did not start within %s: %w", timeout, err)
	}
	return err
}

// Release closes the browser and frees its contexts. Only the first call does work.
func (s *ChromeSession) Release() error {
	s.releaseOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.ctx) }()

		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				s.releaseErr = err
			}
		case <-time.After(closeTimeout):
			s.releaseErr = fmt.Errorf("browser did not close within %s", closeTimeout)
		}

		s.cancelTab()
		s.cancelAlloc()
		s.log.Debug("Browser session released")
	})
	return s.releaseErr
}

// run executes actions against the tab, bounded by both ctx and the session lifetime
func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (s *ChromeSession) eval(ctx context.Context, script string, out interface{}) error {
	return s.run(ctx, chromedp.Evaluate(script, out))
}

// Navigate implements Page
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

// WaitAny implements Page by polling document.querySelector
func (s *ChromeSession) WaitAny(ctx context.Context, timeout time.Duration, selectors ...string) (string, error) {
	deadline := time.Now().Add(timeout)
	script := fmt.Sprintf(`(() => { for (const sel of %s) { if (document.querySelector(sel)) return sel; } return ""; })()`, jsValue(selectors))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		var matched string
		if err := s.eval(ctx, script, &matched); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = err
		} else if matched != "" {
			return matched, nil
		}

		if time.Now().After(deadline) {
			return "", apperrors.Timeout(fmt.Sprintf("none of %v appeared within %s", selectors, timeout), lastErr)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// Count implements Page
func (s *ChromeSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := s.eval(ctx, fmt.Sprintf(`document.querySelectorAll(%s).length`, jsValue(selector)), &n)
	return n, err
}

// TypeInto implements Page
func (s *ChromeSession) TypeInto(ctx context.Context, selector string, index int, text string) error {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return err
	}
	node, err := pick(nodes, index)
	if err != nil {
		return fmt.Errorf("type into %s: %w", selector, err)
	}

	ids := []cdp.NodeID{node.NodeID}
	return s.run(ctx,
		chromedp.Focus(ids, chromedp.ByNodeID),
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, text+kb.Enter, chromedp.ByNodeID),
	)
}

func pick(nodes []*cdp.Node, index int) (*cdp.Node, error) {
	if index < 0 {
		index += len(nodes)
	}
	if index < 0 || index >= len(nodes) {
		return nil, fmt.Errorf("no element at index %d of %d", index, len(nodes))
	}
	return nodes[index], nil
}

// Texts implements Page
func (s *ChromeSession) Texts(ctx context.Context, selector string) ([]string, error) {
	var texts []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => el.innerText || el.textContent || "")`, jsValue(selector))
	if err := s.eval(ctx, script, &texts); err != nil {
		return nil, err
	}
	return texts, nil
}

// ClickAt implements Page with a script click, which works for elements under overlays
func (s *ChromeSession) ClickAt(ctx context.Context, selector string, index int) error {
	script := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%s);
		let i = %d;
		if (i < 0) i += els.length;
		const el = els[i];
		if (!el) return false;
		el.click();
		return true;
	})()`, jsValue(selector), index)

	var clicked bool
	if err := s.eval(ctx, script, &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("click %s: no element at index %d", selector, index)
	}
	return nil
}

// OuterHTMLs implements Page
func (s *ChromeSession) OuterHTMLs(ctx context.Context, scope, selector string) ([]string, error) {
	script := fmt.Sprintf(`(() => {
		const scope = %s;
		const root = scope ? document.querySelector(scope) : document;
		if (!root) return [];
		return Array.from(root.querySelectorAll(%s), el => el.outerHTML);
	})()`, jsValue(scope), jsValue(selector))

	var fragments []string
	if err := s.eval(ctx, script, &fragments); err != nil {
		return nil, err
	}
	return fragments, nil
}

// ScrollForward implements Page
func (s *ChromeSession) ScrollForward(ctx context.Context, scope string) error {
	script := fmt.Sprintf(`(() => {
		const scope = %s;
		const el = scope ? document.querySelector(scope) : null;
		if (el) { el.scrollTop = el.scrollTop + el.offsetHeight; return true; }
		window.scrollBy(0, window.innerHeight);
		return !scope;
	})()`, jsValue(scope))

	var scrolled bool
	if err := s.eval(ctx, script, &scrolled); err != nil {
		return err
	}
	if !scrolled {
		return fmt.Errorf("scroll container %s is gone", scope)
	}
	return nil
}

// Sleep implements Page
func (s *ChromeSession) Sleep(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// jsValue renders v as a JavaScript literal
func jsValue(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"xreposters/pkg/browser"
	"xreposters/pkg/collector"
	"xreposters/pkg/config"
	apperrors "xreposters/pkg/errors"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
	"xreposters/pkg/x"
)

// Request describes one collection run
type Request struct {
	Target      string
	Credentials *models.Credentials
	Headless    bool
	// MaxIterations and Pause fall back to the configured values when not positive
	MaxIterations int
	Pause         time.Duration
}

// NewRequest builds a request for target with the configured browser and loop settings
func NewRequest(cfg *config.Config, target string, creds *models.Credentials) Request {
	return Request{
		Target:        target,
		Credentials:   creds,
		Headless:      cfg.Browser.Headless,
		MaxIterations: cfg.Collect.MaxIterations,
		Pause:         cfg.Collect.Pause,
	}
}

// Scraper orchestrates one browser session per run: login, navigation and
// collection. Concurrent runs are limited to max_sessions.
type Scraper struct {
	config   *config.Config
	launcher browser.Launcher
	logger   logger.Logger
	slots    chan struct{}
}

// New creates a Scraper. A nil launcher starts local Chrome.
func New(cfg *config.Config, launcher browser.Launcher, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	if launcher == nil {
		launcher = browser.NewChromeLauncher(log)
	}
	sessions := cfg.Browser.MaxSessions
	if sessions <= 0 {
		sessions = 1
	}
	return &Scraper{
		config:   cfg,
		launcher: launcher,
		logger:   log.WithField("component", "scraper"),
		slots:    make(chan struct{}, sessions),
	}
}

// Collect harvests the accounts that reposted req.Target. The browser
// session is released before any error reaches the caller.
func (s *Scraper) Collect(ctx context.Context, req Request) ([]models.CollectedEntity, error) {
	mode, err := x.ParseMode(s.config.Collect.Mode)
	if err != nil {
		return nil, apperrors.Unknown("invalid collection mode", err)
	}

	target, err := x.NormalizeTarget(req.Target, s.config.X.BaseURL, mode)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"run_id": uuid.NewString(),
		"target": target,
		"mode":   string(mode),
	})

	release, err := s.acquireSlot(ctx)
	if err != nil {
		return nil, classify(err)
	}
	defer release()

	started := time.Now()
	log.Info("Collection started")

	opts := browser.OptionsFromConfig(s.config.Browser)
	opts.Headless = req.Headless

	var outcome *collector.Outcome
	err = browser.WithSession(ctx, initLauncher{s.launcher}, opts, func(session browser.Session) error {
		var runErr error
		outcome, runErr = s.run(ctx, session, req, mode, target, log)
		return runErr
	}, func(releaseErr error) {
		log.WithError(releaseErr).Warn("Browser session release failed")
	})
	if err != nil {
		err = classify(err)
		log.WithError(err).WithField("error_type", string(apperrors.TypeOf(err))).Error("Collection failed")
		return nil, err
	}

	logger.LogRunSummary(log, target, len(outcome.Entities), outcome.Iterations, outcome.Exhausted, time.Since(started))
	return outcome.Entities, nil
}

func (s *Scraper) run(ctx context.Context, session browser.Session, req Request, mode x.Mode, target string, log logger.Logger) (*collector.Outcome, error) {
	cfg := s.config.Collect

	login := x.NewLoginFlow(session, req.Credentials, s.config.X.BaseURL, cfg.WaitTimeout, log)
	if _, err := login.Run(ctx); err != nil {
		return nil, err
	}

	nav := x.NewNavigator(session, x.NavigatorConfig{
		Mode:            mode,
		WaitTimeout:     cfg.WaitTimeout,
		ListWaitTimeout: cfg.ListWaitTimeout,
		SettlePause:     cfg.SettlePause,
	}, log)
	if err := nav.Open(ctx, target); err != nil {
		return nil, err
	}
	scope, err := nav.OpenRepostList(ctx)
	if err != nil {
		return nil, err
	}

	c := &collector.Collector{
		MaxIterations:   req.MaxIterations,
		Pause:           req.Pause,
		StabilityWindow: cfg.StabilityWindow,
		Log:             log,
		Sleep:           session.Sleep,
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = cfg.MaxIterations
	}
	if c.Pause <= 0 {
		c.Pause = cfg.Pause
	}

	return c.Run(ctx, &pageSource{page: session, scope: scope}, x.Extract)
}

// acquireSlot waits for a free session slot or for ctx to end
func (s *Scraper) acquireSlot(ctx context.Context) (func(), error) {
	select {
	case s.slots <- struct{}{}:
		return func() { <-s.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classify keeps typed errors and maps everything else onto the run-level taxonomy
func classify(err error) error {
	var typed *apperrors.Error
	switch {
	case errors.As(err, &typed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("collection deadline exceeded", err)
	default:
		return apperrors.Unknown("collection failed", err)
	}
}

// initLauncher reports untyped launch failures as resource_init errors
type initLauncher struct {
	browser.Launcher
}

func (l initLauncher) Acquire(ctx context.Context, opts browser.Options) (browser.Session, error) {
	session, err := l.Launcher.Acquire(ctx, opts)
	if err != nil {
		var typed *apperrors.Error
		if !errors.As(err, &typed) {
			err = apperrors.ResourceInit("failed to start browser", err)
		}
		return nil, err
	}
	return session, nil
}

// ResolveCredentials picks the login for a run: the configured pair first,
// then the default stored account. Nil means anonymous.
func ResolveCredentials(cfg *config.Config, accounts DefaultAccountSource) *models.Credentials {
	creds := &models.Credentials{Identifier: cfg.X.Username, Secret: cfg.X.Password}
	if creds.Complete() {
		return creds
	}
	if accounts == nil {
		return nil
	}
	account, err := accounts.RetrieveDefault()
	if err != nil {
		return nil
	}
	if creds := account.Credentials(); creds.Complete() {
		return creds
	}
	return nil
}

package x

import (
	"context"
	"fmt"
	"time"

	"xreposters/pkg/browser"
	apperrors "xreposters/pkg/errors"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
)

// State is a step of the login flow
type State int

const (
	StateStart State = iota
	StateIdentifierEntry
	StateSecretEntry
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateIdentifierEntry:
		return "identifier_entry"
	case StateSecretEntry:
		return "secret_entry"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// DefaultStepPause is the pause between submitting the identifier and looking for the secret field
const DefaultStepPause = time.Second

// LoginFlow signs a browser page in with an identifier/secret pair. It runs
// once per session and never retries.
type LoginFlow struct {
	page      browser.Page
	creds     *models.Credentials
	baseURL   string
	timeout   time.Duration
	stepPause time.Duration
	log       logger.Logger

	visited []State
}

// NewLoginFlow prepares a flow; timeout bounds every wait
func NewLoginFlow(page browser.Page, creds *models.Credentials, baseURL string, timeout time.Duration, log logger.Logger) *LoginFlow {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &LoginFlow{
		page:      page,
		creds:     creds,
		baseURL:   baseURL,
		timeout:   timeout,
		stepPause: DefaultStepPause,
		log:       log.WithField("component", "login"),
	}
}

// WithStepPause overrides the pause between the identifier and secret steps
func (f *LoginFlow) WithStepPause(d time.Duration) *LoginFlow {
	f.stepPause = d
	return f
}

// Transitions returns the states the last Run went through, in order
func (f *LoginFlow) Transitions() []State {
	return append([]State(nil), f.visited...)
}

func (f *LoginFlow) enter(s State) {
	f.visited = append(f.visited, s)
	f.log.Debug("Login state " + s.String())
}

// Run drives the flow. Incomplete credentials skip it and leave the session
// anonymous: the result is StateStart with a nil error.
func (f *LoginFlow) Run(ctx context.Context) (State, error) {
	f.visited = nil
	f.enter(StateStart)

	if !f.creds.Complete() {
		f.log.Info("No credentials, continuing anonymously")
		return StateStart, nil
	}

	if err := f.enterIdentifier(ctx); err != nil {
		return f.fail(ctx, "identifier step", err)
	}

	if err := f.page.Sleep(ctx, f.stepPause); err != nil {
		return f.fail(ctx, "identifier step", err)
	}

	if err := f.enterSecret(ctx); err != nil {
		return f.fail(ctx, "secret step", err)
	}

	if _, err := f.page.WaitAny(ctx, f.timeout, homeLandmarkSelector); err != nil {
		return f.fail(ctx, "home page never appeared", err)
	}

	f.enter(StateAuthenticated)
	f.log.WithField("account", f.creds.Identifier).Info("Logged in")
	return StateAuthenticated, nil
}

func (f *LoginFlow) enterIdentifier(ctx context.Context) error {
	f.enter(StateIdentifierEntry)

	if err := f.page.Navigate(ctx, LoginURL(f.baseURL)); err != nil {
		return err
	}
	if _, err := f.page.WaitAny(ctx, f.timeout, firstInputSelector); err != nil {
		return err
	}
	return f.page.TypeInto(ctx, firstInputSelector, 0, f.creds.Identifier)
}

// enterSecret submits the secret into the password field, or into the last
// input when the flow shows an intermediate page without one.
func (f *LoginFlow) enterSecret(ctx context.Context) error {
	f.enter(StateSecretEntry)

	_, err := f.page.WaitAny(ctx, f.timeout, passwordInputSelector)
	if err == nil {
		return f.page.TypeInto(ctx, passwordInputSelector, 0, f.creds.Secret)
	}
	if !apperrors.IsTimeout(err) {
		return err
	}

	n, countErr := f.page.Count(ctx, firstInputSelector)
	if countErr != nil {
		return countErr
	}
	if n == 0 {
		return fmt.Errorf("no password field or input to fall back to: %w", err)
	}
	f.log.Debug("Password field not found, using last input")
	return f.page.TypeInto(ctx, firstInputSelector, -1, f.creds.Secret)
}

// fail records the terminal state; cancellation passes through untyped
func (f *LoginFlow) fail(ctx context.Context, step string, err error) (State, error) {
	f.enter(StateFailed)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return StateFailed, ctxErr
	}
	f.log.WithError(err).Warn("Login failed at " + step)
	return StateFailed, apperrors.Authentication("login failed: "+step, err)
}

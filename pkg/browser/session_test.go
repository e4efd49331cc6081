package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xreposters/pkg/logger"
)

type countingSession struct {
	Page
	releases int
	err      error
}

func (s *countingSession) Release() error {
	s.releases++
	return s.err
}

type fakeLauncher struct {
	session *countingSession
	err     error
	calls   int
}

func (l *fakeLauncher) Acquire(ctx context.Context, opts Options) (Session, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func TestWithSessionReleasesOnSuccess(t *testing.T) {
	launcher := &fakeLauncher{session: &countingSession{}}

	err := WithSession(context.Background(), launcher, Options{}, func(Session) error { return nil }, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, launcher.session.releases)
}

func TestWithSessionReleasesOnError(t *testing.T) {
	launcher := &fakeLauncher{session: &countingSession{}}
	want := errors.New("login failed")

	err := WithSession(context.Background(), launcher, Options{}, func(Session) error { return want }, nil)

	assert.ErrorIs(t, err, want)
	assert.Equal(t, 1, launcher.session.releases)
}

func TestWithSessionReleasesOnPanic(t *testing.T) {
	launcher := &fakeLauncher{session: &countingSession{}}

	assert.Panics(t, func() {
		_ = WithSession(context.Background(), launcher, Options{}, func(Session) error { panic("boom") }, nil)
	})
	assert.Equal(t, 1, launcher.session.releases)
}

func TestWithSessionAcquireFailure(t *testing.T) {
	launcher := &fakeLauncher{err: errors.New("no chrome")}
	called := false

	err := WithSession(context.Background(), launcher, Options{}, func(Session) error {
		called = true
		return nil
	}, nil)

	assert.Error(t, err)
	assert.False(t, called)
}

func TestWithSessionReleaseErrorReported(t *testing.T) {
	launcher := &fakeLauncher{session: &countingSession{err: errors.New("stuck")}}
	var reported error

	err := WithSession(context.Background(), launcher, Options{}, func(Session) error { return nil }, func(err error) {
		reported = err
	})

	assert.NoError(t, err)
	assert.ErrorContains(t, reported, "stuck")
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestFindChromeOverride(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(bin, []byte{}, 0755))
	t.Setenv("CHROME_BIN", "")
	t.Setenv("GOOGLE_CHROME_BIN", "")

	path, err := FindChrome(bin)
	require.NoError(t, err)
	assert.Equal(t, bin, path)

	_, err = FindChrome(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFindChromeEnvironment(t *testing.T) {
	dir := t.TempDir()
	google := filepath.Join(dir, "google-chrome")
	require.NoError(t, os.WriteFile(google, []byte{}, 0755))

	t.Setenv("CHROME_BIN", "")
	t.Setenv("GOOGLE_CHROME_BIN", google)

	path, err := FindChrome("")
	require.NoError(t, err)
	assert.Equal(t, google, path)
}

func TestPick(t *testing.T) {
	nodes := []*cdp.Node{{NodeID: 1}, {NodeID: 2}, {NodeID: 3}}

	n, err := pick(nodes, 0)
	require.NoError(t, err)
	assert.Equal(t, cdp.NodeID(1), n.NodeID)

	n, err = pick(nodes, -1)
	require.NoError(t, err)
	assert.Equal(t, cdp.NodeID(3), n.NodeID)

	_, err = pick(nodes, 3)
	assert.Error(t, err)
	_, err = pick(nil, -1)
	assert.Error(t, err)
}

func TestJSValue(t *testing.T) {
	assert.Equal(t, `"[role=\"dialog\"]"`, jsValue(`[role="dialog"]`))
	assert.Equal(t, `["a","b"]`, jsValue([]string{"a", "b"}))
	assert.Equal(t, `""`, jsValue(""))
}

func TestStartWithinFastStartIsNotAborted(t *testing.T) {
	aborts := 0
	err := startWithin(20*time.Millisecond, func() { aborts++ }, func() error { return nil })
	require.NoError(t, err)

	// The session must outlive the startup bound.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, aborts)
}

func TestStartWithinPassesStartError(t *testing.T) {
	boom := errors.New("boom")
	err := startWithin(time.Second, func() {}, func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestStartWithinAbortsSlowStart(t *testing.T) {
	stopped := make(chan struct{})
	err := startWithin(20*time.Millisecond, func() { close(stopped) }, func() error {
		<-stopped
		return context.Canceled
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not start within")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSwitches(t *testing.T) {
	sw := switches(Options{
		Headless:     true,
		WindowWidth:  1280,
		WindowHeight: 1000,
		Languages:    []string{"ko-KR", "en"},
		UserAgent:    "agent/1.0",
	})

	assert.Equal(t, "new", sw["headless"])
	assert.Equal(t, false, sw["enable-automation"])
	assert.Equal(t, "AutomationControlled", sw["disable-blink-features"])
	assert.Equal(t, "1280,1000", sw["window-size"])
	assert.Equal(t, "ko-KR,en", sw["lang"])
	assert.Equal(t, "agent/1.0", sw["user-agent"])
	assert.NotContains(t, sw, "exclude-switches")

	assert.Equal(t, false, switches(Options{})["headless"])
}

func releasedMessages(log *logger.TestLogger) int {
	n := 0
	for _, m := range log.GetMessagesByLevel("DEBUG") {
		if m.Message == "Browser session released" {
			n++
		}
	}
	return n
}

func chromeOrSkip(t *testing.T) Options {
	t.Helper()
	path, err := FindChrome("")
	if err != nil || path == "" {
		t.Skip("no Chrome binary available")
	}
	return Options{Headless: true, ChromePath: path, WindowWidth: 800, WindowHeight: 600, Stealth: true}
}

func TestChromeSessionLifecycle(t *testing.T) {
	opts := chromeOrSkip(t)
	log := logger.NewTestLogger()

	session, err := Acquire(context.Background(), opts, log)
	require.NoError(t, err)

	// The browser is still running after Acquire returned.
	require.NoError(t, session.Navigate(context.Background(), "about:blank"))
	n, err := session.Count(context.Background(), "body")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	first := session.Release()
	second := session.Release()
	assert.Equal(t, first, second)
	assert.Equal(t, 1, releasedMessages(log))

	assert.Error(t, session.Navigate(context.Background(), "about:blank"))
}

func TestChromeSessionReleaseAfterCancel(t *testing.T) {
	opts := chromeOrSkip(t)
	log := logger.NewTestLogger()

	ctx, cancel := context.WithCancel(context.Background())
	session, err := Acquire(ctx, opts, log)
	require.NoError(t, err)
	cancel()

	done := make(chan error, 1)
	go func() { done <- session.Release() }()
	select {
	case err := <-done:
		assert.Equal(t, err, session.Release())
	case <-time.After(closeTimeout + 2*time.Second):
		t.Fatal("Release did not return after cancellation")
	}
	assert.Equal(t, 1, releasedMessages(log))
}

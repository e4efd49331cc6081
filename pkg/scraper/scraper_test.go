package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xreposters/pkg/auth"
	"xreposters/pkg/browser/browsertest"
	"xreposters/pkg/config"
	apperrors "xreposters/pkg/errors"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
)

const target = "https://x.com/alice/status/1"

func cell(handle string) string {
	return fmt.Sprintf(`<div data-testid="UserCell"><a href="/%s"><div dir="ltr"><span>%s</span></div></a></div>`,
		handle, strings.ToUpper(handle))
}

// postPage renders a post whose repost dialog opens and lists frames
func postPage(frames ...[]string) func() *browsertest.Page {
	return func() *browsertest.Page {
		page := browsertest.NewPage()
		page.Show(`[data-testid="tweetText"]`)
		page.Text[`a[role="link"], div[role="button"], span`] = []string{"1", "Reposts"}
		page.OnClick = func(p *browsertest.Page, c browsertest.Click) {
			p.Show(`[role="dialog"]`, `[role="dialog"] [data-testid="sheetDialog"], [role="dialog"] div[aria-modal="true"]`)
		}
		page.Frames = frames
		return page
	}
}

func newTestScraper(launcher *browsertest.Launcher, mutate func(*config.Config)) *Scraper {
	cfg := config.DefaultConfig()
	cfg.Collect.WaitTimeout = time.Second
	cfg.Collect.ListWaitTimeout = time.Second
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, launcher, logger.NewNopLogger())
}

func handles(users []models.CollectedEntity) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.Handle
	}
	return out
}

func TestCollectModal(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: postPage(
		[]string{cell("bob"), cell("carol")},
		[]string{cell("carol"), cell("dave")},
	)}
	s := newTestScraper(launcher, nil)

	users, err := s.Collect(context.Background(), Request{Target: target, Headless: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol", "dave"}, handles(users))
	assert.Equal(t, "BOB", users[0].DisplayName)

	require.Equal(t, 1, launcher.Acquired())
	session := launcher.Sessions[0]
	assert.Equal(t, 1, session.Releases())
	assert.Equal(t, []string{target}, session.Navigations)
	assert.Contains(t, session.Scopes[0], "dialog")
	assert.True(t, launcher.Options[0].Headless)
}

func TestCollectDirect(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := browsertest.NewPage()
		page.Show(`[data-testid="UserCell"]`)
		page.Frames = [][]string{{cell("bob")}}
		return page
	}}
	s := newTestScraper(launcher, func(c *config.Config) { c.Collect.Mode = config.ModeDirect })

	users, err := s.Collect(context.Background(), Request{Target: target})

	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, handles(users))
	session := launcher.Sessions[0]
	assert.Equal(t, []string{target + "/retweets"}, session.Navigations)
	assert.Equal(t, "", session.Scopes[0])
	assert.Empty(t, session.Clicks)
}

func TestCollectMissingTargetAcquiresNothing(t *testing.T) {
	launcher := &browsertest.Launcher{}
	s := newTestScraper(launcher, nil)

	_, err := s.Collect(context.Background(), Request{Target: "   "})

	assert.Equal(t, apperrors.ErrorTypeMissingInput, apperrors.TypeOf(err))
	assert.Equal(t, 0, launcher.Acquired())
	assert.Empty(t, launcher.Options)
}

func TestCollectAuthenticationFailureReleasesOnce(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := postPage([]string{cell("bob")})()
		page.Show("input", `input[name="password"]`)
		return page
	}}
	s := newTestScraper(launcher, nil)

	_, err := s.Collect(context.Background(), Request{
		Target:      target,
		Credentials: &models.Credentials{Identifier: "alice", Secret: "wrong"},
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsAuthentication(err))
	assert.Equal(t, 1, launcher.Sessions[0].Releases())
	assert.Len(t, launcher.Sessions[0].TypedInto, 2)
}

func TestCollectLogsInBeforeNavigating(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := postPage([]string{cell("bob")})()
		page.Show("input", `input[name="password"]`, `[data-testid="AppTabBar_Home_Link"]`)
		return page
	}}
	s := newTestScraper(launcher, nil)

	users, err := s.Collect(context.Background(), Request{
		Target:      target,
		Credentials: &models.Credentials{Identifier: "alice", Secret: "pw"},
	})

	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, []string{"https://x.com/i/flow/login", target}, launcher.Sessions[0].Navigations)
}

func TestCollectTargetNotFound(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := browsertest.NewPage()
		page.Show(`article`)
		return page
	}}
	s := newTestScraper(launcher, nil)

	_, err := s.Collect(context.Background(), Request{Target: target})

	assert.True(t, apperrors.IsTargetNotFound(err))
	assert.Equal(t, 1, launcher.Sessions[0].Releases())
}

func TestCollectLaunchFailure(t *testing.T) {
	launcher := &browsertest.Launcher{Err: errors.New("exec: \"google-chrome\": executable file not found")}
	s := newTestScraper(launcher, nil)

	_, err := s.Collect(context.Background(), Request{Target: target})

	assert.Equal(t, apperrors.ErrorTypeResourceInit, apperrors.TypeOf(err))
}

func TestCollectDeadline(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: postPage([]string{cell("bob")})}
	s := newTestScraper(launcher, nil)

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	_, err := s.Collect(ctx, Request{Target: target})

	assert.Equal(t, apperrors.ErrorTypeTimeout, apperrors.TypeOf(err))
	for _, session := range launcher.Sessions {
		assert.Equal(t, 1, session.Releases())
	}
}

func TestCollectWaitsForSessionSlot(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: postPage([]string{cell("bob")})}
	s := newTestScraper(launcher, func(c *config.Config) { c.Browser.MaxSessions = 1 })
	s.slots <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Collect(ctx, Request{Target: target})

	assert.True(t, apperrors.IsTimeout(err))
	assert.Equal(t, 0, launcher.Acquired())

	<-s.slots
	_, err = s.Collect(context.Background(), Request{Target: target})
	assert.NoError(t, err)
	assert.Len(t, s.slots, 0)
}

func TestCollectRequestOverrides(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: postPage([]string{cell("bob")}, []string{cell("carol")}, []string{cell("dave")})}
	s := newTestScraper(launcher, nil)

	users, err := s.Collect(context.Background(), Request{Target: target, MaxIterations: 2, Pause: 5 * time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, handles(users))
	assert.Contains(t, launcher.Sessions[0].Sleeps, 5*time.Millisecond)
}

func TestNewRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Headless = false
	req := NewRequest(cfg, target, nil)

	assert.Equal(t, target, req.Target)
	assert.False(t, req.Headless)
	assert.Equal(t, 50, req.MaxIterations)
	assert.Equal(t, 700*time.Millisecond, req.Pause)
}

func TestResolveCredentials(t *testing.T) {
	t.Setenv("X_USERNAME", "")
	t.Setenv("X_PASSWORD", "")

	cfg := config.DefaultConfig()
	assert.Nil(t, ResolveCredentials(cfg, nil))

	manager, store := auth.NewMockManager()
	assert.Nil(t, ResolveCredentials(cfg, manager))

	require.NoError(t, store.Store(&auth.Account{Username: "stored", Password: "pw", LastModified: time.Now()}))
	creds := ResolveCredentials(cfg, manager)
	require.NotNil(t, creds)
	assert.Equal(t, "stored", creds.Identifier)

	cfg.X.Username, cfg.X.Password = "configured", "pw"
	assert.Equal(t, "configured", ResolveCredentials(cfg, manager).Identifier)
}

package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xreposters/pkg/browser/browsertest"
	"xreposters/pkg/config"
	"xreposters/pkg/logger"
	"xreposters/pkg/models"
	"xreposters/pkg/scraper"
)

func userCell(handle, name string, following bool) string {
	button := `<div data-testid="1-follow" role="button"><span>Follow</span></div>`
	if following {
		button = `<div data-testid="1-unfollow" role="button"><span>Following</span></div>`
	}
	return fmt.Sprintf(`<div data-testid="UserCell"><a href="/%s"><div dir="ltr"><span>%s</span></div></a>%s</div>`,
		handle, name, button)
}

// TestCrawlThroughScraper drives the real orchestrator against a scripted page
func TestCrawlThroughScraper(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := browsertest.NewPage()
		page.Show(`[data-testid="tweetText"]`)
		page.Text[`a[role="link"], div[role="button"], span`] = []string{"12", "Reposts", "Quotes"}
		page.OnClick = func(p *browsertest.Page, c browsertest.Click) {
			p.Show(`[role="dialog"]`, `[role="dialog"] [data-testid="sheetDialog"], [role="dialog"] div[aria-modal="true"]`)
		}
		page.Frames = [][]string{
			{userCell("alice", "Alice", true), userCell("bob", "Bob", false)},
			{userCell("bob", "Bob", false), userCell("carol", "캐롤", false)},
		}
		return page
	}}

	cfg := config.DefaultConfig()
	cfg.Collect.WaitTimeout = time.Second
	cfg.Collect.ListWaitTimeout = time.Second
	cfg.Server.CrawlTimeout = 10 * time.Second
	log := logger.NewNopLogger()

	ts := httptest.NewServer(New(cfg, scraper.New(cfg, launcher, log), nil, log).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/crawl?url=x.com/alice/status/42")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.Result
	decode(t, resp, &result)
	require.Equal(t, 3, result.Count)
	assert.Equal(t, models.CollectedEntity{Handle: "alice", DisplayName: "Alice", RelationshipStatus: models.Following}, result.Users[0])
	assert.Equal(t, "carol", result.Users[2].Handle)
	assert.Equal(t, "캐롤", result.Users[2].DisplayName)

	require.Equal(t, 1, launcher.Acquired())
	assert.Equal(t, 1, launcher.Sessions[0].Releases())
	assert.Equal(t, []string{"https://x.com/alice/status/42"}, launcher.Sessions[0].Navigations)

	// Winners come back in the same shape they were sent
	payload := `{"users":[{"handle":"alice","displayName":"Alice","relationshipStatus":"following","bio":""}],"count":1}`
	resp, err = http.Post(ts.URL+"/api/draw", "application/json", strings.NewReader(payload))
	require.NoError(t, err)

	var drawn models.DrawResult
	decode(t, resp, &drawn)
	require.Equal(t, 1, drawn.Count)
	assert.Equal(t, result.Users[0], drawn.Winners[0])
}

// TestCrawlWithoutRepostControl surfaces target_not_found as 502
func TestCrawlWithoutRepostControl(t *testing.T) {
	launcher := &browsertest.Launcher{NewPage: func() *browsertest.Page {
		page := browsertest.NewPage()
		page.Show(`[data-testid="tweetText"]`)
		return page
	}}

	cfg := config.DefaultConfig()
	cfg.Collect.WaitTimeout = time.Second
	cfg.Collect.ListWaitTimeout = time.Second
	log := logger.NewNopLogger()

	ts := httptest.NewServer(New(cfg, scraper.New(cfg, launcher, log), nil, log).Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/crawl?url=https://x.com/alice/status/42")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, launcher.Sessions[0].Releases())
}

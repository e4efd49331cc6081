package x

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xreposters/pkg/models"
)

const followingCell = `
<div data-testid="UserCell">
  <div><a href="/alice" role="link"><img src="https://pbs.twimg.com/a.jpg"></a></div>
  <div>
    <a href="/alice" role="link"><div dir="ltr"><span>Alice Kim</span></div></a>
    <a href="/alice" role="link" tabindex="-1"><div dir="ltr"><span>@alice</span></div></a>
    <button data-testid="1234-unfollow" aria-label="Following @alice"><span>Following</span></button>
  </div>
  <div dir="auto" lang="en"><span>Coffee and code</span></div>
</div>`

const notFollowingCell = `
<div data-testid="UserCell">
  <a href="/bob/status/99">a post</a>
  <a href="/home">home</a>
  <a href="https://example.com/bob">elsewhere</a>
  <a href="https://twitter.com/bob_b/">
    <div dir="ltr"><span>Bob</span></div>
  </a>
  <button data-testid="5678-follow"><span>Follow</span></button>
</div>`

const koreanCell = `
<div data-testid="UserCell">
  <a href="https://x.com/minji"><div dir="ltr"><span>민지</span></div></a>
  <button data-testid="42-unfollow"><span>팔로잉</span></button>
  <div dir="auto" lang="ko">안녕하세요</div>
</div>`

const labelOnlyCell = `
<div data-testid="UserCell">
  <div><span>Carol</span><span>@carol_c</span></div>
  <a href="/i/lists/1">list</a>
</div>`

func TestExtractFollowing(t *testing.T) {
	e, err := Extract(followingCell)

	require.NoError(t, err)
	assert.Equal(t, models.CollectedEntity{
		Handle:             "alice",
		DisplayName:        "Alice Kim",
		RelationshipStatus: models.Following,
		Bio:                "Coffee and code",
	}, e)
}

func TestExtractSkipsNonProfileLinks(t *testing.T) {
	e, err := Extract(notFollowingCell)

	require.NoError(t, err)
	assert.Equal(t, "bob_b", e.Handle)
	assert.Equal(t, "Bob", e.DisplayName)
	assert.Equal(t, models.NotFollowing, e.RelationshipStatus)
	assert.Equal(t, "", e.Bio)
}

func TestExtractKoreanLabels(t *testing.T) {
	e, err := Extract(koreanCell)

	require.NoError(t, err)
	assert.Equal(t, "minji", e.Handle)
	assert.Equal(t, "민지", e.DisplayName)
	assert.Equal(t, models.Following, e.RelationshipStatus)
	assert.Equal(t, "안녕하세요", e.Bio)
}

func TestExtractFallsBackToAtLabel(t *testing.T) {
	e, err := Extract(labelOnlyCell)

	require.NoError(t, err)
	assert.Equal(t, "carol_c", e.Handle)
	assert.Equal(t, "Carol", e.DisplayName)
	assert.Equal(t, models.NotFollowing, e.RelationshipStatus)
}

func TestExtractNoHandle(t *testing.T) {
	e, err := Extract(`<div data-testid="UserCell"><span>Nobody here</span></div>`)

	require.NoError(t, err)
	assert.Equal(t, "", e.Handle)
	assert.Equal(t, "Nobody here", e.DisplayName)
}

func TestExtractEmpty(t *testing.T) {
	_, err := Extract("  ")
	assert.ErrorIs(t, err, ErrEmptyRecord)
}

func TestNormalizeHandle(t *testing.T) {
	tests := map[string]string{
		"@alice/":     "alice",
		" @alice ":    "alice",
		"/alice/":     "alice",
		"alice":       "alice",
		"@":           "",
		"":            "",
		"@@twice":     "@twice",
		"\t@bob_b/\n": "bob_b",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeHandle(in), "input %q", in)
	}
}

func TestProfileHandle(t *testing.T) {
	tests := []struct {
		href string
		want string
		ok   bool
	}{
		{"/alice", "alice", true},
		{"/alice/", "alice", true},
		{"https://x.com/alice", "alice", true},
		{"https://mobile.twitter.com/alice", "alice", true},
		{"/alice/status/1", "", false},
		{"/i/flow/login", "", false},
		{"/explore", "", false},
		{"/Search", "", false},
		{"https://example.com/alice", "", false},
		{"alice", "", false},
		{"/", "", false},
		{"/hash-tag", "", false},
	}
	for _, tt := range tests {
		got, ok := profileHandle(tt.href)
		assert.Equal(t, tt.ok, ok, tt.href)
		assert.Equal(t, tt.want, got, tt.href)
	}
}

func TestFirstOfRecoversPanics(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(followingCell))
	require.NoError(t, err)

	boom := func(*goquery.Selection) (string, bool) { panic("selector engine failure") }
	empty := func(*goquery.Selection) (string, bool) { return "", true }
	fixed := func(*goquery.Selection) (string, bool) { return "value", true }

	assert.Equal(t, "value", firstOf(doc.Selection, boom, empty, fixed))
	assert.Equal(t, "", firstOf(doc.Selection, boom))
	assert.Equal(t, "", firstOf(doc.Selection))
}

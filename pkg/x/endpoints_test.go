package x

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "xreposters/pkg/errors"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		mode Mode
		want string
	}{
		{"full url modal", "https://x.com/alice/status/123", ModeModal, "https://x.com/alice/status/123"},
		{"no scheme", "x.com/alice/status/123", ModeModal, "https://x.com/alice/status/123"},
		{"surrounding space", "  https://x.com/alice/status/123 \n", ModeModal, "https://x.com/alice/status/123"},
		{"relative path", "/alice/status/123", ModeModal, "https://x.com/alice/status/123"},
		{"direct appends list", "https://x.com/alice/status/123", ModeDirect, "https://x.com/alice/status/123/retweets"},
		{"direct trailing slash", "https://x.com/alice/status/123/", ModeDirect, "https://x.com/alice/status/123/retweets"},
		{"direct keeps retweets", "https://x.com/alice/status/123/retweets", ModeDirect, "https://x.com/alice/status/123/retweets"},
		{"direct keeps reposts", "https://x.com/alice/status/123/reposts/", ModeDirect, "https://x.com/alice/status/123/reposts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTarget(tt.raw, "https://x.com", tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTargetMissing(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		_, err := NormalizeTarget(raw, "https://x.com", ModeModal)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeMissingInput, apperrors.TypeOf(err))
	}
}

func TestNormalizeTargetInvalid(t *testing.T) {
	_, err := NormalizeTarget("https://", "https://x.com", ModeModal)
	assert.Equal(t, apperrors.ErrorTypeMissingInput, apperrors.TypeOf(err))
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "https://x.com/i/flow/login", LoginURL("https://x.com"))
	assert.Equal(t, "https://x.com/i/flow/login", LoginURL("https://x.com/"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeModal, m)

	m, err = ParseMode(" Direct ")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, m)

	_, err = ParseMode("popup")
	assert.Error(t, err)
}

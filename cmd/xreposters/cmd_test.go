package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xreposters/pkg/models"
	"xreposters/pkg/storage"
)

func TestCrawlFlagsOnlyChanged(t *testing.T) {
	require.NoError(t, crawlCmd.ParseFlags([]string{"--mode", "direct", "--pause", "1.5s", "--max-scroll", "80"}))
	t.Cleanup(func() {
		crawlMode, crawlPause, crawlScroll = "", 0, 0
	})

	flags := crawlFlags(crawlCmd)
	assert.Equal(t, "direct", flags["mode"])
	assert.Equal(t, 1500*time.Millisecond, flags["pause"])
	assert.Equal(t, 80, flags["max-scroll"])
	_, hasHeadless := flags["headless"]
	assert.False(t, hasHeadless)
	_, hasOut := flags["out"]
	assert.False(t, hasOut)
}

func TestDrawFromFile(t *testing.T) {
	dir := t.TempDir()
	users := []models.CollectedEntity{{Handle: "a"}, {Handle: "b"}, {Handle: "c"}}
	path, err := storage.NewManager(dir).SaveResult("r.json", models.NewResult(users))
	require.NoError(t, err)

	result, err := drawFromFile(path, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Winners, 2)
	assert.NotEqual(t, result.Winners[0].Handle, result.Winners[1].Handle)

	result, err = drawFromFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
}

func TestDrawFromEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"users":[],"count":0}`), 0644))

	_, err := drawFromFile(path, 1)
	assert.EqualError(t, err, "no users")
}

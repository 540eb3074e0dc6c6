package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/store"
)

const huntLog = `Session data: From 2024-01-15, 14:30:00 to 2024-01-15, 16:08:00
Session: 01:38h
XP Gain: 1,500,000
Loot: 450,000
Supplies: 120,000
Balance: 330,000
Killed Monsters:
12x Cliff Strider
Looted Items:
3x gold coin
`

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func testOptions() LoadOptions {
	return LoadOptions{Parser: parser.New(parser.WithLocation(time.UTC))}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Knight", "hunt.txt"), huntLog)
	writeFile(t, filepath.Join(dir, "notes.log"), "Experience: 100\n")
	writeFile(t, filepath.Join(dir, "image.png"), "not a log")

	var calls int
	res, err := Load(dir, testOptions(), func(current, total int) { calls++ })
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalFiles)
	assert.Equal(t, 2, res.ParsedFiles)
	assert.Equal(t, 1, res.Unclaimed)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 2, res.CharacterCount, "root-level logs count as one unnamed character")
	assert.Equal(t, 2, calls)
	require.Len(t, res.Sessions, 1)

	hs := res.Sessions[0]
	assert.Equal(t, "Knight", hs.Character)
	assert.Equal(t, int64(98), hs.DurationMinutes)
	assert.Equal(t, int64(330_000), hs.Balance)
	require.Len(t, hs.LootedItems, 1)
	require.NotNil(t, hs.LootedItems[0].Value)
	assert.Equal(t, int64(3), *hs.LootedItems[0].Value)
}

func TestLoad_MissingDir(t *testing.T) {
	res, err := Load(filepath.Join(t.TempDir(), "nope"), testOptions(), nil)
	require.NoError(t, err)
	assert.Zero(t, res.TotalFiles)
}

func TestLoadWithCache_SkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	huntPath := filepath.Join(dir, "Knight", "hunt.txt")
	writeFile(t, huntPath, huntLog)
	writeFile(t, filepath.Join(dir, "notes.log"), "Experience: 100\n")

	st, err := store.Open(filepath.Join(t.TempDir(), "huntlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	first, err := LoadWithCache(dir, testOptions(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Imported)
	assert.Equal(t, 1, first.Rejected)
	assert.Zero(t, first.Unchanged)
	require.Len(t, first.Sessions, 1)

	second, err := LoadWithCache(dir, testOptions(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Unchanged)
	assert.Zero(t, second.Imported)
	assert.Zero(t, second.Rejected)
	require.Len(t, second.Sessions, 1)
	assert.Equal(t, first.Sessions[0].ID, second.Sessions[0].ID)

	// Truncating the log drops its session on the next pass.
	writeFile(t, huntPath, "Session data: nothing here\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(huntPath, future, future))

	third, err := LoadWithCache(dir, testOptions(), st, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, third.Unchanged)
	assert.Equal(t, 1, third.Rejected)
	assert.Empty(t, third.Sessions)

	n, err := st.SessionCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDBPathHonoursXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "huntlog", "huntlog.db"), DBPath())
}

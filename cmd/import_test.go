package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/store"
)

const testHuntLog = `Session data: From 2024-01-15, 14:30:00 to 2024-01-15, 16:08:00
Session: 01:38h
XP Gain: 1,500,000
Loot: 450,000
Supplies: 120,000
Balance: 330,000
Killed Monsters:
12x Cliff Strider
`

func TestImportProgress_ConcurrentUpdates(t *testing.T) {
	var buf bytes.Buffer
	p := newImportProgress(&buf, false)

	const total = 200
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < total; i += 8 {
				p.update(i+1, total)
			}
		}(w)
	}
	wg.Wait()
	p.finish()

	assert.Equal(t, total, p.last)
}

func TestImportProgress_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := newImportProgress(&buf, true)
	p.update(1, 10)
	p.finish()
	assert.Nil(t, p.bar)
	assert.Empty(t, buf.String())
}

func TestRunImportDir_ManyLogs(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 64; i++ {
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		text := strings.Replace(testHuntLog, "2024-01-15", day.Format("2006-01-02"), 2)
		path := filepath.Join(dir, fmt.Sprintf("char%d", i%4), fmt.Sprintf("hunt-%03d.txt", i))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
	}

	dbFile := filepath.Join(t.TempDir(), "huntlog.db")
	prevCfg, prevDB := appCfg, flagDB
	appCfg, flagDB = config.DefaultConfig(), dbFile
	t.Cleanup(func() { appCfg, flagDB = prevCfg, prevDB })

	require.NoError(t, runImportDir(nil, []string{dir}))

	st, err := store.Open(dbFile)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()
	n, err := st.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 64, n)
}

func TestCharacterFromPath(t *testing.T) {
	assert.Equal(t, "Knight", characterFromPath(filepath.Join("logs", "Knight", "hunt.txt")))
	assert.Equal(t, "", characterFromPath("hunt.txt"))
}

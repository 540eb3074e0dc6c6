package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/huntlog/internal/daemon"
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

func newTestClient(t *testing.T, withStore bool) *Client {
	t.Helper()
	cfg := daemon.Config{
		Parser:        parser.New(parser.WithLocation(time.UTC)),
		MaxInputBytes: 4096,
	}
	if withStore {
		st, err := store.Open(filepath.Join(t.TempDir(), "huntlog.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		cfg.Store = st
	}
	srv := httptest.NewServer(daemon.New(cfg).Handler())
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestNew_Address(t *testing.T) {
	c, err := New("127.0.0.1:8787")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8787", c.base)

	c, err = New("https://hunts.example/")
	require.NoError(t, err)
	assert.Equal(t, "https://hunts.example", c.base)

	_, err = New("  ")
	assert.Error(t, err)
}

func TestClient_Parse(t *testing.T) {
	c := newTestClient(t, false)
	ctx := context.Background()

	pr, err := c.Parse(ctx, huntLog, true)
	require.NoError(t, err)
	assert.True(t, pr.Claimed)
	require.NotNil(t, pr.Fields)
	require.NotNil(t, pr.Fields.Balance)
	assert.Equal(t, 330000.0, *pr.Fields.Balance)

	pr, err = c.Parse(ctx, "Experience: 100", false)
	require.NoError(t, err)
	assert.False(t, pr.Claimed)

	_, err = c.Parse(ctx, "Experience: 100", true)
	assert.ErrorIs(t, err, ErrUnprocessable)

	_, err = c.Parse(ctx, strings.Repeat("x", 5000), false)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestClient_Sessions(t *testing.T) {
	c := newTestClient(t, true)
	ctx := context.Background()

	list, err := c.Sessions(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	hs, err := c.CreateSession(ctx, huntLog, "Knight", false)
	require.NoError(t, err)
	assert.Equal(t, "Knight", hs.Character)
	assert.EqualValues(t, 330000, hs.Balance)

	list, err = c.Sessions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, hs.ID, list[0].ID)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Summary.Sessions)
}

func TestClient_NoStore(t *testing.T) {
	c := newTestClient(t, false)
	_, err := c.CreateSession(context.Background(), huntLog, "", false)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStatusError(t *testing.T) {
	err := statusError(http.StatusInternalServerError, []byte(`{"error":"disk full"}`))
	assert.EqualError(t, err, "apiclient: HTTP 500: disk full")

	err = statusError(http.StatusNotFound, []byte("404 page not found"))
	assert.EqualError(t, err, "apiclient: HTTP 404: Not Found")
}

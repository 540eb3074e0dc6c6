package daemon

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/huntlog/internal/model"
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

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{
		Sessions:       10,
		Minutes:        600,
		TotalXPGain:    1_000_000,
		Balance:        200_000,
		MonstersKilled: 400,
	}
	curr := Snapshot{
		Sessions:       12,
		Minutes:        700,
		TotalXPGain:    1_250_000,
		Balance:        150_000,
		MonstersKilled: 460,
	}

	delta := diffSnapshots(prev, curr)
	if delta.Sessions != 2 {
		t.Fatalf("Sessions delta = %d, want 2", delta.Sessions)
	}
	if delta.Minutes != 100 {
		t.Fatalf("Minutes delta = %d, want 100", delta.Minutes)
	}
	if delta.TotalXPGain != 250_000 {
		t.Fatalf("XP delta = %d, want 250000", delta.TotalXPGain)
	}
	if delta.Balance != -50_000 {
		t.Fatalf("Balance delta = %d, want -50000", delta.Balance)
	}
	if delta.MonstersKilled != 60 {
		t.Fatalf("MonstersKilled delta = %d, want 60", delta.MonstersKilled)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "huntlog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return New(Config{
		Store:         st,
		Parser:        parser.New(parser.WithLocation(time.UTC)),
		MaxInputBytes: 4096,
	}), st
}

func TestParseEndpointMatchesLibrary(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/parse", "text/plain", strings.NewReader(huntLog))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got struct {
		Claimed bool            `json:"claimed"`
		Fields  json.RawMessage `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Claimed {
		t.Fatal("standard log not claimed")
	}

	want, _ := parser.New(parser.WithLocation(time.UTC)).Parse(huntLog)
	wantJSON, _ := json.Marshal(want)
	var a, b any
	_ = json.Unmarshal(wantJSON, &a)
	_ = json.Unmarshal(got.Fields, &b)
	if !jsonEqual(a, b) {
		t.Fatalf("fields differ:\n got %s\nwant %s", got.Fields, wantJSON)
	}
}

func jsonEqual(a, b any) bool {
	x, _ := json.Marshal(a)
	y, _ := json.Marshal(b)
	return bytes.Equal(x, y)
}

func TestParseEndpointErrors(t *testing.T) {
	s, _ := newTestService(t)
	h := s.Handler()

	tests := []struct {
		name   string
		url    string
		body   string
		status int
	}{
		{"too large", "/v1/parse", strings.Repeat("x", 5000), http.StatusRequestEntityTooLarge},
		{"invalid utf8", "/v1/parse", "Loot: \xff\x00\x01\x02", http.StatusBadRequest},
		{"strategy only", "/v1/parse?strategy_only=1", "Experience: 100", http.StatusUnprocessableEntity},
		{"fallback allowed", "/v1/parse", "Experience: 100", http.StatusOK},
		{"wrong method", "/v1/parse", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := http.MethodPost
			if tt.status == http.StatusMethodNotAllowed {
				method = http.MethodGet
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(method, tt.url, strings.NewReader(tt.body)))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestCreateSessionStoresAndPublishes(t *testing.T) {
	s, st := newTestService(t)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions?character=Knight", strings.NewReader(huntLog)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	var hs model.HuntSession
	if err := json.Unmarshal(rec.Body.Bytes(), &hs); err != nil {
		t.Fatal(err)
	}
	if hs.Character != "Knight" || hs.Balance != 330_000 || hs.DurationMinutes != 98 {
		t.Fatalf("unexpected session %+v", hs)
	}

	if n, _ := st.SessionCount(); n != 1 {
		t.Fatalf("stored sessions = %d, want 1", n)
	}

	status := s.snapshotStatus()
	if status.EventCount != 1 || status.PollCount != 1 {
		t.Fatalf("events=%d polls=%d, want 1/1", status.EventCount, status.PollCount)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sessions?limit=5", nil))
	var list []model.HuntSession
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != hs.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreateSessionWithoutTimestamps(t *testing.T) {
	s, _ := newTestService(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader("Experience: 100\n")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

// Package daemon provides the long-running import and stats service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/pipeline"
	"github.com/theirongolddev/huntlog/internal/source"
	"github.com/theirongolddev/huntlog/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	ImportDir       string
	Days            int
	MonsterFilter   string
	CharacterFilter string
	Interval        time.Duration
	Addr            string
	EventsBuffer    int
	MaxInputBytes   int64

	Store  *store.Store
	Parser *parser.Parser
	Items  *config.ItemValuer
	Log    zerolog.Logger
}

// Snapshot is a compact hunting state for status/event payloads.
type Snapshot struct {
	At             time.Time `json:"at"`
	Sessions       int       `json:"sessions"`
	Minutes        int64     `json:"minutes"`
	TotalXPGain    int64     `json:"total_xp_gain"`
	AvgXPPerHour   float64   `json:"avg_xp_per_hour"`
	LootValue      int64     `json:"loot_value"`
	SuppliesValue  int64     `json:"supplies_value"`
	Balance        int64     `json:"balance"`
	MonstersKilled int       `json:"monsters_killed"`
	BalancePerDay  float64   `json:"balance_per_day"`
	SessionsPerDay float64   `json:"sessions_per_day"`
}

// Delta captures snapshot deltas between polls.
type Delta struct {
	Sessions       int   `json:"sessions"`
	Minutes        int64 `json:"minutes"`
	TotalXPGain    int64 `json:"total_xp_gain"`
	Balance        int64 `json:"balance"`
	MonstersKilled int   `json:"monsters_killed"`
}

func (d Delta) isZero() bool {
	return d.Sessions == 0 &&
		d.Minutes == 0 &&
		d.TotalXPGain == 0 &&
		d.Balance == 0 &&
		d.MonstersKilled == 0
}

// Event is emitted whenever the hunting snapshot updates.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	ImportDir       string    `json:"import_dir,omitempty"`
	Days            int       `json:"days"`
	MonsterFilter   string    `json:"monster_filter,omitempty"`
	CharacterFilter string    `json:"character_filter,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// ParseResponse is served by POST /v1/parse.
type ParseResponse struct {
	Claimed bool           `json:"claimed"`
	Fields  *parser.Fields `json:"fields"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config

	// pollMu serializes polls; the ticker and POST /v1/sessions both poll.
	pollMu sync.Mutex

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.MaxInputBytes == 0 {
		cfg.MaxInputBytes = config.DefaultMaxInputBytes
	}
	if cfg.Parser == nil {
		cfg.Parser = parser.New(parser.WithLogger(cfg.Log))
	}

	return &Service{
		cfg:       cfg,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("POST /v1/parse", s.handleParse)
	mux.HandleFunc("POST /v1/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce() {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	sessions, err := s.loadSessions()
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.cfg.Log.Error().Err(err).Msg("daemon: poll failed")
		return
	}

	now := time.Now()
	var since time.Time
	if s.cfg.Days > 0 {
		since = now.AddDate(0, 0, -s.cfg.Days)
	}

	filtered := pipeline.FilterByMonster(sessions, s.cfg.MonsterFilter)
	filtered = pipeline.FilterByCharacter(filtered, s.cfg.CharacterFilter)

	stats := pipeline.Aggregate(filtered, since, now.Add(time.Minute))
	snap := snapshotFromSummary(stats, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "hunt_delta",
			Timestamp: now,
			Snapshot:  snap,
			Delta:     delta,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

// loadSessions imports new logs from the import dir, when one is set, and
// returns every stored session.
func (s *Service) loadSessions() ([]model.HuntSession, error) {
	if s.cfg.Store == nil {
		return nil, errors.New("no session store configured")
	}
	if s.cfg.ImportDir != "" {
		cr, err := pipeline.LoadWithCache(s.cfg.ImportDir, s.loadOptions(), s.cfg.Store, nil)
		if err != nil {
			return nil, err
		}
		if cr.Imported > 0 {
			s.cfg.Log.Info().Int("imported", cr.Imported).Str("dir", s.cfg.ImportDir).Msg("daemon: imported logs")
		}
	}
	return s.cfg.Store.LoadAllSessions()
}

func (s *Service) loadOptions() pipeline.LoadOptions {
	return pipeline.LoadOptions{
		Parser:        s.cfg.Parser,
		Items:         s.cfg.Items,
		MaxInputBytes: s.cfg.MaxInputBytes,
		Log:           s.cfg.Log,
	}
}

func snapshotFromSummary(stats model.SummaryStats, at time.Time) Snapshot {
	return Snapshot{
		At:             at,
		Sessions:       stats.TotalSessions,
		Minutes:        stats.TotalMinutes,
		TotalXPGain:    stats.TotalXPGain,
		AvgXPPerHour:   stats.AvgXPPerHour,
		LootValue:      stats.LootValue,
		SuppliesValue:  stats.SuppliesValue,
		Balance:        stats.Balance,
		MonstersKilled: stats.MonstersKilled,
		BalancePerDay:  stats.BalancePerDay,
		SessionsPerDay: stats.SessionsPerDay,
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Sessions:       curr.Sessions - prev.Sessions,
		Minutes:        curr.Minutes - prev.Minutes,
		TotalXPGain:    curr.TotalXPGain - prev.TotalXPGain,
		Balance:        curr.Balance - prev.Balance,
		MonstersKilled: curr.MonstersKilled - prev.MonstersKilled,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		ImportDir:       s.cfg.ImportDir,
		Days:            s.cfg.Days,
		MonsterFilter:   s.cfg.MonsterFilter,
		CharacterFilter: s.cfg.CharacterFilter,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

// readFields parses the request body as a session log. With
// ?strategy_only=1 unrecognised layouts are rejected instead of extracted.
func (s *Service) readFields(w http.ResponseWriter, r *http.Request) (*parser.Fields, bool, bool) {
	text, err := source.ReadLog(r.Body, s.cfg.MaxInputBytes)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, source.ErrInputTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, err)
		return nil, false, false
	}

	if strategyOnly, _ := strconv.ParseBool(r.URL.Query().Get("strategy_only")); strategyOnly {
		fields, ok := s.cfg.Parser.Parse(text)
		if !ok {
			writeError(w, http.StatusUnprocessableEntity, errors.New("no parsing strategy recognises this log"))
			return nil, false, false
		}
		return fields, true, true
	}

	fields, claimed, err := s.cfg.Parser.ParseStrict(text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil, false, false
	}
	return fields, claimed, true
}

func (s *Service) handleParse(w http.ResponseWriter, r *http.Request) {
	fields, claimed, ok := s.readFields(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{Claimed: claimed, Fields: fields})
}

func (s *Service) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no session store configured"))
		return
	}
	fields, _, ok := s.readFields(w, r)
	if !ok {
		return
	}

	hs, err := pipeline.Assemble(fields, pipeline.AssembleOptions{
		Character: r.URL.Query().Get("character"),
		Items:     s.cfg.Items,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.cfg.Store.SaveSession(hs, 0, 0); err != nil {
		s.cfg.Log.Error().Err(err).Str("session", hs.ID).Msg("daemon: saving session")
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.pollOnce()
	writeJSON(w, http.StatusCreated, hs)
}

func (s *Service) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no session store configured"))
		return
	}
	sessions, err := s.cfg.Store.LoadAllSessions()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		sessions = pipeline.Top(sessions, limit)
	}
	if sessions == nil {
		sessions = []model.HuntSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

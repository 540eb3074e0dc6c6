// Package store persists imported hunting sessions in SQLite or PostgreSQL.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	_ "modernc.org/sqlite"             // register sqlite driver

	"github.com/theirongolddev/huntlog/internal/model"
)

// ErrNotFound is returned when no session matches an ID.
var ErrNotFound = errors.New("session not found")

// ErrAmbiguous is returned when an ID prefix matches several sessions.
var ErrAmbiguous = errors.New("session id prefix is ambiguous")

// Store provides session persistence.
type Store struct {
	db       *sql.DB
	postgres bool
}

// Open opens or creates the database. dsn is either a SQLite file path or a
// postgres:// URL.
func Open(dsn string) (*Store, error) {
	if isPostgresDSN(dsn) {
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres db: %w", err)
		}
		return initStore(db, true)
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	return initStore(db, false)
}

func initStore(db *sql.DB, postgres bool) (*Store, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db, postgres: postgres}, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect names the backing database.
func (s *Store) Dialect() string {
	if s.postgres {
		return "postgres"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders as $1, $2, ... for PostgreSQL.
func (s *Store) rebind(q string) string {
	if !s.postgres {
		return q
	}
	return rebindDollar(q)
}

func rebindDollar(q string) string {
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) exec(e execer, q string, args ...any) (sql.Result, error) {
	return e.Exec(s.rebind(q), args...)
}

// FileInfo holds the tracked mtime and size for a file.
type FileInfo struct {
	MtimeNs   int64
	SizeBytes int64
}

// GetTrackedFiles returns a map of file_path -> FileInfo for all tracked files.
func (s *Store) GetTrackedFiles() (map[string]FileInfo, error) {
	rows, err := s.db.Query("SELECT file_path, mtime_ns, size_bytes FROM file_tracker")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]FileInfo)
	for rows.Next() {
		var path string
		var fi FileInfo
		if err := rows.Scan(&path, &fi.MtimeNs, &fi.SizeBytes); err != nil {
			return nil, err
		}
		result[path] = fi
	}
	return result, rows.Err()
}

// TrackFile records a file as processed without storing a session, so a
// log that was rejected is not retried until it changes.
func (s *Store) TrackFile(path string, mtimeNs, sizeBytes int64) error {
	_, err := s.exec(s.db, upsertTrackerSQL, path, mtimeNs, sizeBytes)
	return err
}

const upsertTrackerSQL = `INSERT INTO file_tracker (file_path, mtime_ns, size_bytes)
	VALUES (?, ?, ?)
	ON CONFLICT (file_path) DO UPDATE SET mtime_ns = excluded.mtime_ns, size_bytes = excluded.size_bytes`

// SaveSession stores a session with its monsters and items. When the session
// came from a file, the file's tracking info is updated in the same
// transaction and older sessions imported from that file are replaced.
func (s *Store) SaveSession(hs model.HuntSession, mtimeNs, sizeBytes int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if hs.SourcePath != "" {
		if _, err := s.exec(tx, "DELETE FROM sessions WHERE source_path = ? AND id <> ?", hs.SourcePath, hs.ID); err != nil {
			return err
		}
	}

	importedAt := hs.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now()
	}

	_, err = s.exec(tx, `INSERT INTO sessions
		(id, source_path, character_name, strategy, start_time, end_time, duration_minutes,
		 raw_xp_gain, total_xp_gain, raw_xp_per_hour, total_xp_per_hour,
		 loot_value, supplies_value, balance,
		 damage_dealt, damage_per_hour, healing_done, healing_per_hour, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
		 source_path = excluded.source_path, character_name = excluded.character_name,
		 strategy = excluded.strategy, start_time = excluded.start_time, end_time = excluded.end_time,
		 duration_minutes = excluded.duration_minutes,
		 raw_xp_gain = excluded.raw_xp_gain, total_xp_gain = excluded.total_xp_gain,
		 raw_xp_per_hour = excluded.raw_xp_per_hour, total_xp_per_hour = excluded.total_xp_per_hour,
		 loot_value = excluded.loot_value, supplies_value = excluded.supplies_value, balance = excluded.balance,
		 damage_dealt = excluded.damage_dealt, damage_per_hour = excluded.damage_per_hour,
		 healing_done = excluded.healing_done, healing_per_hour = excluded.healing_per_hour,
		 imported_at = excluded.imported_at`,
		hs.ID, hs.SourcePath, hs.Character, hs.Strategy,
		formatTime(hs.StartTime), formatTime(hs.EndTime), hs.DurationMinutes,
		hs.RawXPGain, hs.TotalXPGain, hs.RawXPPerHour, hs.TotalXPPerHour,
		hs.LootValue, hs.SuppliesValue, hs.Balance,
		hs.DamageDealt, hs.DamagePerHour, hs.HealingDone, hs.HealingPerHour,
		formatTime(importedAt),
	)
	if err != nil {
		return err
	}

	if _, err := s.exec(tx, "DELETE FROM session_monsters WHERE session_id = ?", hs.ID); err != nil {
		return err
	}
	for i, m := range hs.KilledMonsters {
		_, err = s.exec(tx, `INSERT INTO session_monsters (session_id, seq, name, amount)
			VALUES (?, ?, ?, ?)`, hs.ID, i, m.Name, m.Count)
		if err != nil {
			return err
		}
	}

	if _, err := s.exec(tx, "DELETE FROM session_items WHERE session_id = ?", hs.ID); err != nil {
		return err
	}
	for i, it := range hs.LootedItems {
		var value sql.NullInt64
		if it.Value != nil {
			value = sql.NullInt64{Int64: *it.Value, Valid: true}
		}
		_, err = s.exec(tx, `INSERT INTO session_items (session_id, seq, name, amount, gold_value)
			VALUES (?, ?, ?, ?, ?)`, hs.ID, i, it.Name, it.Count, value)
		if err != nil {
			return err
		}
	}

	if hs.SourcePath != "" {
		if _, err := s.exec(tx, upsertTrackerSQL, hs.SourcePath, mtimeNs, sizeBytes); err != nil {
			return err
		}
	}

	return tx.Commit()
}

const sessionColumns = `id, source_path, character_name, strategy, start_time, end_time, duration_minutes,
	raw_xp_gain, total_xp_gain, raw_xp_per_hour, total_xp_per_hour,
	loot_value, supplies_value, balance,
	damage_dealt, damage_per_hour, healing_done, healing_per_hour, imported_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (model.HuntSession, error) {
	var hs model.HuntSession
	var start, end, imported string
	err := row.Scan(
		&hs.ID, &hs.SourcePath, &hs.Character, &hs.Strategy, &start, &end, &hs.DurationMinutes,
		&hs.RawXPGain, &hs.TotalXPGain, &hs.RawXPPerHour, &hs.TotalXPPerHour,
		&hs.LootValue, &hs.SuppliesValue, &hs.Balance,
		&hs.DamageDealt, &hs.DamagePerHour, &hs.HealingDone, &hs.HealingPerHour, &imported,
	)
	if err != nil {
		return hs, err
	}
	hs.StartTime = parseTime(start)
	hs.EndTime = parseTime(end)
	hs.ImportedAt = parseTime(imported)
	hs.KilledMonsters = []model.KilledMonster{}
	hs.LootedItems = []model.LootedItem{}
	return hs, nil
}

// LoadAllSessions reads all sessions ordered by start time.
func (s *Store) LoadAllSessions() ([]model.HuntSession, error) {
	rows, err := s.db.Query("SELECT " + sessionColumns + " FROM sessions ORDER BY start_time, id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var sessions []model.HuntSession
	for rows.Next() {
		hs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, hs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(sessions))
	for i, hs := range sessions {
		idx[hs.ID] = i
	}
	if err := s.loadLists(idx, sessions, "", nil); err != nil {
		return nil, err
	}
	return sessions, nil
}

// loadLists batch-loads monsters and items into sessions. where and args
// optionally restrict the rows by session_id.
func (s *Store) loadLists(idx map[string]int, sessions []model.HuntSession, where string, args []any) error {
	monsterRows, err := s.db.Query(s.rebind("SELECT session_id, name, amount FROM session_monsters"+where+" ORDER BY session_id, seq"), args...)
	if err != nil {
		return err
	}
	defer func() { _ = monsterRows.Close() }()
	for monsterRows.Next() {
		var sid string
		var m model.KilledMonster
		if err := monsterRows.Scan(&sid, &m.Name, &m.Count); err != nil {
			return err
		}
		if i, ok := idx[sid]; ok {
			sessions[i].KilledMonsters = append(sessions[i].KilledMonsters, m)
		}
	}
	if err := monsterRows.Err(); err != nil {
		return err
	}

	itemRows, err := s.db.Query(s.rebind("SELECT session_id, name, amount, gold_value FROM session_items"+where+" ORDER BY session_id, seq"), args...)
	if err != nil {
		return err
	}
	defer func() { _ = itemRows.Close() }()
	for itemRows.Next() {
		var sid string
		var it model.LootedItem
		var value sql.NullInt64
		if err := itemRows.Scan(&sid, &it.Name, &it.Count, &value); err != nil {
			return err
		}
		if value.Valid {
			v := value.Int64
			it.Value = &v
		}
		if i, ok := idx[sid]; ok {
			sessions[i].LootedItems = append(sessions[i].LootedItems, it)
		}
	}
	return itemRows.Err()
}

// GetSession returns the session whose ID equals or starts with id.
func (s *Store) GetSession(id string) (model.HuntSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.HuntSession{}, ErrNotFound
	}
	fullID, err := s.resolveID(id)
	if err != nil {
		return model.HuntSession{}, err
	}

	row := s.db.QueryRow(s.rebind("SELECT "+sessionColumns+" FROM sessions WHERE id = ?"), fullID)
	hs, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return hs, ErrNotFound
	}
	if err != nil {
		return hs, err
	}

	sessions := []model.HuntSession{hs}
	if err := s.loadLists(map[string]int{hs.ID: 0}, sessions, " WHERE session_id = ?", []any{hs.ID}); err != nil {
		return hs, err
	}
	return sessions[0], nil
}

func (s *Store) resolveID(prefix string) (string, error) {
	rows, err := s.db.Query(s.rebind("SELECT id FROM sessions WHERE id LIKE ? LIMIT 2"), escapeLike(prefix)+"%")
	if err != nil {
		return "", err
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		if id == prefix {
			return id, nil
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", ErrNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguous
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

// DeleteSession removes a session and its monsters and items.
func (s *Store) DeleteSession(id string) error {
	fullID, err := s.resolveID(strings.TrimSpace(id))
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Explicit child deletes; foreign_keys may be off on an old SQLite file.
	for _, q := range []string{
		"DELETE FROM session_monsters WHERE session_id = ?",
		"DELETE FROM session_items WHERE session_id = ?",
		"DELETE FROM sessions WHERE id = ?",
	} {
		if _, err := s.exec(tx, q, fullID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteFileTracker removes a file tracking entry.
func (s *Store) DeleteFileTracker(filePath string) error {
	_, err := s.exec(s.db, "DELETE FROM file_tracker WHERE file_path = ?", filePath)
	return err
}

// DeleteSessionsFromSource removes every session imported from path.
func (s *Store) DeleteSessionsFromSource(path string) error {
	_, err := s.exec(s.db, "DELETE FROM sessions WHERE source_path = ?", path)
	return err
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

package pipeline

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/huntlog/internal/config"
	"github.com/theirongolddev/huntlog/internal/model"
	"github.com/theirongolddev/huntlog/internal/parser"
)

// ErrMissingTimestamps is returned when a parsed log does not say when the
// session started and ended.
var ErrMissingTimestamps = errors.New("cannot identify session start/end")

// sessionNamespace seeds deterministic session IDs so that importing the
// same hunt twice updates one row.
var sessionNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/theirongolddev/huntlog/session"))

// AssembleOptions carries what the log itself cannot tell.
type AssembleOptions struct {
	SourcePath string
	Character  string
	Items      *config.ItemValuer
	ImportedAt time.Time
}

// Assemble turns parsed fields into a storable session. Absent numbers
// become zero, a missing duration is taken from the timestamps, and looted
// items are valued from the item table.
func Assemble(f *parser.Fields, opts AssembleOptions) (model.HuntSession, error) {
	if f == nil || f.StartTime == nil || f.EndTime == nil {
		return model.HuntSession{}, ErrMissingTimestamps
	}

	start, end := *f.StartTime, *f.EndTime
	hs := model.HuntSession{
		ID:         SessionID(opts.Character, start, end),
		SourcePath: opts.SourcePath,
		Character:  opts.Character,
		Strategy:   f.Strategy,
		ImportedAt: opts.ImportedAt,
		StartTime:  start,
		EndTime:    end,

		RawXPGain:      toInt(f.RawXPGain),
		TotalXPGain:    toInt(f.TotalXPGain),
		RawXPPerHour:   toInt(f.RawXPPerHour),
		TotalXPPerHour: toInt(f.TotalXPPerHour),
		LootValue:      toInt(f.LootValue),
		SuppliesValue:  toInt(f.SuppliesValue),
		Balance:        toInt(f.Balance),
		DamageDealt:    toInt(f.DamageDealt),
		DamagePerHour:  toInt(f.DamagePerHour),
		HealingDone:    toInt(f.HealingDone),
		HealingPerHour: toInt(f.HealingPerHour),
	}
	if hs.ImportedAt.IsZero() {
		hs.ImportedAt = time.Now()
	}

	if f.DurationMinutes != nil {
		hs.DurationMinutes = int64(*f.DurationMinutes)
	} else {
		hs.DurationMinutes = int64(math.Floor(float64(end.Sub(start).Milliseconds())/60000 + 0.5))
	}

	hs.KilledMonsters = make([]model.KilledMonster, 0, len(f.KilledMonsters))
	for _, e := range f.KilledMonsters {
		hs.KilledMonsters = append(hs.KilledMonsters, model.KilledMonster{Name: e.Name, Count: e.Count})
	}

	hs.LootedItems = make([]model.LootedItem, 0, len(f.LootedItems))
	for _, e := range f.LootedItems {
		it := model.LootedItem{Name: e.Name, Count: e.Count}
		if unit, ok := opts.Items.UnitValueAt(e.Name, start); ok {
			v := unit * int64(e.Count)
			it.Value = &v
		}
		hs.LootedItems = append(hs.LootedItems, it)
	}

	return hs, nil
}

// SessionID derives the stable ID of a hunt from who hunted and when.
func SessionID(character string, start, end time.Time) string {
	key := character + "|" + start.UTC().Format(time.RFC3339) + "|" + end.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(sessionNamespace, []byte(key)).String()
}

func toInt(v *float64) int64 {
	if v == nil {
		return 0
	}
	return int64(math.Floor(*v + 0.5))
}

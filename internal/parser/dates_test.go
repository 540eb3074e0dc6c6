package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"01:38h", 98, true},
		{"1:05", 65, true},
		{"02:00:00", 120, true},
		{"2h 15m", 135, true},
		{"2H15M", 135, true},
		{"2h", 120, true},
		{"45min", 45, true},
		{"45 m", 45, true},
		{"", 0, false},
		{"h", 0, false},
		{"soon", 0, false},
		{"1:75h", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDuration(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateTime(t *testing.T) {
	want := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-15, 14:30:00", "15/01/2024, 14:30", "15.01.2024 14:30", "Jan 15 2024 14:30"} {
		got, ok := parseDateTime(in, time.UTC)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseDateTime("yesterday", time.UTC)
	assert.False(t, ok)
}

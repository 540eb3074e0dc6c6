package cli

import (
	"strings"
	"testing"
)

func TestFormatGold(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{9_999, "9,999"},
		{12_500, "12.5k"},
		{3_400_000, "3.40kk"},
		{-250_000, "-250.0k"},
		{2_000_000_000, "2.00kkk"},
	}
	for _, tt := range tests {
		if got := FormatGold(tt.in); got != tt.want {
			t.Errorf("FormatGold(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int64]string{
		0:   "0m",
		-5:  "0m",
		45:  "45m",
		98:  "1h 38m",
		605: "10h 05m",
	}
	for in, want := range tests {
		if got := FormatMinutes(in); got != want {
			t.Errorf("FormatMinutes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[int64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		1234567:   "1,234,567",
		-1234567:  "-1,234,567",
		100000000: "100,000,000",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	if got := FormatCompact(1_500_000); got != "1.5M" {
		t.Errorf("got %q", got)
	}
	if got := FormatCompact(999); got != "999" {
		t.Errorf("got %q", got)
	}
}

func TestFormatDelta(t *testing.T) {
	if got := FormatDelta(150_000, 100_000); got != "+50.0k" {
		t.Errorf("got %q", got)
	}
	if got := FormatDelta(100, 300); got != "-200" {
		t.Errorf("got %q", got)
	}
}

func TestRenderTable_WideRunes(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Monster", "Kills"},
		Rows: [][]string{
			{"Dragão", "10"},
			{"Dragon Lord", "2"},
		},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(out, "Dragão") {
		t.Errorf("missing row:\n%s", out)
	}
}

func TestRenderSparkline(t *testing.T) {
	if got := RenderSparkline([]float64{0, 1}); got != "▁█" {
		t.Errorf("got %q", got)
	}
	if RenderSparkline(nil) != "" {
		t.Error("expected empty sparkline")
	}
}

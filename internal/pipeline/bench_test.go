package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/huntlog/internal/parser"
	"github.com/theirongolddev/huntlog/internal/source"
	"github.com/theirongolddev/huntlog/internal/store"
)

// benchDir writes n hunting logs spread over a few characters.
func benchDir(b *testing.B, n int) string {
	b.Helper()
	dir := b.TempDir()
	for i := 0; i < n; i++ {
		day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		text := strings.Replace(huntLog, "2024-01-15", day.Format("2006-01-02"), 2)
		path := filepath.Join(dir, fmt.Sprintf("char%d", i%4), fmt.Sprintf("hunt-%03d.txt", i))
		writeFile(b, path, text)
	}
	return dir
}

func BenchmarkLoad(b *testing.B) {
	dir := benchDir(b, 200)
	opts := LoadOptions{Parser: parser.New()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result, err := Load(dir, opts, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = result
	}
}

func BenchmarkParseFile(b *testing.B) {
	dir := benchDir(b, 1)
	files, err := source.ScanDir(dir)
	if err != nil || len(files) == 0 {
		b.Fatal("no files", err)
	}
	p := parser.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := source.ParseFile(p, files[0], 0)
		if result.Err != nil {
			b.Fatal(result.Err)
		}
	}
}

func BenchmarkLoadWithCache(b *testing.B) {
	dir := benchDir(b, 200)
	st, err := store.Open(filepath.Join(b.TempDir(), "huntlog.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer func() { _ = st.Close() }()
	opts := LoadOptions{Parser: parser.New()}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cr, err := LoadWithCache(dir, opts, st, nil)
		if err != nil {
			b.Fatal(err)
		}
		_ = cr
	}
}

package logs

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	entries []ParsedLog
}

func (r *recorder) PublishLog(e ParsedLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func TestParseLine(t *testing.T) {
	raw := "[2024-01-20T10:00:00.000Z] [WARN] [WebSocket] connection timeout after 30s"
	entry, ok := ParseLine(raw)
	require.True(t, ok)
	assert.Equal(t, ParsedLog{
		Time:    "2024-01-20T10:00:00.000Z",
		Level:   "WARN",
		Module:  "WebSocket",
		Message: "connection timeout after 30s",
		Raw:     raw,
	}, entry)

	_, ok = ParseLine("    at continuation line")
	assert.False(t, ok)
	_, ok = ParseLine("[t] [TRACE] [m] msg")
	assert.False(t, ok)
}

func TestFormatLine_RoundTrips(t *testing.T) {
	ts := time.Date(2024, 1, 20, 10, 0, 0, 5e6, time.FixedZone("CST", 8*3600))
	line := FormatLine(ts, LevelInfo, "Order", "order received")
	assert.Equal(t, "[2024-01-20T02:00:00.005Z] [INFO] [Order] order received", line)

	entry, ok := ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, "Order", entry.Module)
}

func TestNormalizeLevel(t *testing.T) {
	l, err := NormalizeLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, l)

	l, err = NormalizeLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelAll, l)

	_, err = NormalizeLevel("trace")
	assert.Error(t, err)
}

func TestHandler_WritesAndPublishes(t *testing.T) {
	var buf bytes.Buffer
	pub := &recorder{}
	logger := slog.New(NewHandler(&buf, pub, slog.LevelInfo))

	logger.Debug("hidden")
	logger.With("module", "Account").Info("heartbeat received", "account", "a1", "note", "two words")
	logger.WithGroup("req").Warn("slow", "ms", 1500)
	logger.Error("multi\nline")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	first, ok := ParseLine(lines[0])
	require.True(t, ok)
	assert.Equal(t, "INFO", first.Level)
	assert.Equal(t, "Account", first.Module)
	assert.Equal(t, `heartbeat received account=a1 note="two words"`, first.Message)

	second, ok := ParseLine(lines[1])
	require.True(t, ok)
	assert.Equal(t, "app", second.Module)
	assert.Equal(t, "slow req.ms=1500", second.Message)

	third, ok := ParseLine(lines[2])
	require.True(t, ok)
	assert.Equal(t, `multi\nline`, third.Message)

	require.Len(t, pub.entries, 3)
	assert.Equal(t, first, pub.entries[0])
}

func writeLog(t *testing.T, dir, name string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "app-2024-01-18.log", "x")
	writeLog(t, dir, "app-2024-01-20.log", "x")
	writeLog(t, dir, "notes.txt", "x")

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "app-2024-01-20.log", files[0].Name)
	assert.Equal(t, int64(2), files[0].Size)

	files, err = ListFiles(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRead_Filters(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "app-2024-01-20.log",
		"[2024-01-20T10:00:00.000Z] [INFO] [Server] started",
		"[2024-01-20T10:00:01.000Z] [ERROR] [Order] failed to deliver order 1",
		"[2024-01-20T10:00:02.000Z] [INFO] [Order] order 2 received",
		"[2024-01-20T10:00:03.000Z] [ERROR] [Account] failed to refresh token",
	)

	all, err := Read(dir, Query{Date: "2024-01-20"})
	require.NoError(t, err)
	assert.Len(t, all.Lines, 4)
	assert.Equal(t, 4, all.Total)
	assert.False(t, all.Filtered)
	assert.Equal(t, "app-2024-01-20.log", all.File)
	assert.Equal(t, "2024-01-20", all.Date)

	errs, err := Read(dir, Query{File: "app-2024-01-20.log", Level: "error"})
	require.NoError(t, err)
	assert.Equal(t, 2, errs.Total)
	assert.True(t, errs.Filtered)

	orders, err := Read(dir, Query{Date: "2024-01-20", Keyword: "ORDER 2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"[2024-01-20T10:00:02.000Z] [INFO] [Order] order 2 received"}, orders.Lines)

	last, err := Read(dir, Query{Date: "2024-01-20", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, last.Total)
	require.Len(t, last.Lines, 1)
	assert.Contains(t, last.Lines[0], "refresh token")
}

func TestRead_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(dir, Query{File: "../etc/passwd"})
	assert.ErrorIs(t, err, ErrInvalidLogFile)

	_, err = Read(dir, Query{Date: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidLogFile)

	_, err = Read(dir, Query{Date: "2024-01-01"})
	assert.ErrorIs(t, err, ErrLogFileNotFound)

	_, err = Read(dir, Query{Level: "verbose"})
	assert.Error(t, err)
}

func TestRead_OversizedLineIsTruncated(t *testing.T) {
	dir := t.TempDir()
	huge := "[2024-01-20T10:00:01.000Z] [ERROR] [Order] payload " + strings.Repeat("x", 2*MaxLineBytes)
	writeLog(t, dir, "app-2024-01-20.log",
		"[2024-01-20T10:00:00.000Z] [INFO] [Server] started",
		huge,
		"[2024-01-20T10:00:02.000Z] [ERROR] [Order] order 2 failed",
	)

	res, err := Read(dir, Query{Date: "2024-01-20"})
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)
	assert.Equal(t, "[2024-01-20T10:00:00.000Z] [INFO] [Server] started", res.Lines[0])
	assert.Equal(t, huge[:MaxLineBytes]+TruncatedSuffix, res.Lines[1])
	assert.Equal(t, "[2024-01-20T10:00:02.000Z] [ERROR] [Order] order 2 failed", res.Lines[2])

	errs, err := Read(dir, Query{Date: "2024-01-20", Level: "error"})
	require.NoError(t, err)
	assert.Equal(t, 2, errs.Total)
}

func TestEachLine_Boundaries(t *testing.T) {
	collect := func(in string, max int) []string {
		var out []string
		require.NoError(t, eachLine(strings.NewReader(in), max, func(l string) { out = append(out, l) }))
		return out
	}

	assert.Equal(t, []string{"abcd", "ef"}, collect("abcd\nef", 4))
	assert.Equal(t, []string{"abcd", "abcd" + TruncatedSuffix}, collect("abcd\r\nabcde\n", 4))
	assert.Nil(t, collect("", 4))
}

func TestDailyWriter_Rotates(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDailyWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	day := time.Date(2024, 1, 20, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }
	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	first, err := os.ReadFile(filepath.Join(dir, "app-2024-01-20.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))

	second, err := os.ReadFile(filepath.Join(dir, "app-2024-01-21.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))
}

package logs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"resale-console/pkg/models"
)

const (
	DefaultLimit = 500
	MaxLimit     = 5000

	// MaxLineBytes bounds a single line returned by Read. Longer lines are
	// cut and marked with TruncatedSuffix.
	MaxLineBytes    = 1024 * 1024
	TruncatedSuffix = " [truncated]"
)

var (
	ErrLogFileNotFound = errors.New("log file not found")
	ErrInvalidLogFile  = errors.New("invalid log file name")
)

// Query selects lines from one daily file. File takes precedence over Date;
// with neither, today's file is read.
type Query struct {
	File    string
	Date    string
	Level   string
	Keyword string
	Limit   int
}

// ListFiles returns the daily log files in dir, newest first.
func ListFiles(dir string) ([]models.LogFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.LogFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list log directory: %w", err)
	}

	files := []models.LogFile{}
	for _, e := range entries {
		if e.IsDir() || !fileNameRE.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, models.LogFile{
			Name:  e.Name(),
			Size:  info.Size(),
			MTime: info.ModTime().UnixMilli(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// ResolveFile returns the path of the file selected by name or date.
func ResolveFile(dir, name, date string, now time.Time) (string, string, error) {
	switch {
	case name != "":
		if !fileNameRE.MatchString(name) {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidLogFile, name)
		}
	case date != "":
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return "", "", fmt.Errorf("%w: bad date %q", ErrInvalidLogFile, date)
		}
		name = FileName(d)
	default:
		name = FileName(now)
	}

	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("%w: %s", ErrLogFileNotFound, name)
		}
		return "", "", err
	}
	return path, name, nil
}

// Read returns the last q.Limit lines of the selected file that match the
// level and keyword filters. Total counts all matching lines.
func Read(dir string, q Query) (models.LogContentResponse, error) {
	level, err := NormalizeLevel(q.Level)
	if err != nil {
		return models.LogContentResponse{}, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	path, name, err := ResolveFile(dir, q.File, q.Date, time.Now())
	if err != nil {
		return models.LogContentResponse{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return models.LogContentResponse{}, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	keyword := strings.ToLower(q.Keyword)
	var matched []string
	err = eachLine(f, MaxLineBytes, func(line string) {
		if line == "" {
			return
		}
		if level != LevelAll {
			entry, ok := ParseLine(line)
			if !ok || entry.Level != level {
				return
			}
		}
		if keyword != "" && !strings.Contains(strings.ToLower(line), keyword) {
			return
		}
		matched = append(matched, line)
	})
	if err != nil {
		return models.LogContentResponse{}, fmt.Errorf("failed to read log file: %w", err)
	}

	total := len(matched)
	if total > limit {
		matched = matched[total-limit:]
	}
	if matched == nil {
		matched = []string{}
	}

	date := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	return models.LogContentResponse{
		Lines:    matched,
		Total:    total,
		Filtered: level != LevelAll || keyword != "",
		File:     name,
		Date:     date,
	}, nil
}

// eachLine calls fn for every line of r without its line ending. Lines longer
// than limit bytes are truncated rather than failing the read.
func eachLine(r io.Reader, limit int, fn func(string)) error {
	br := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 0, 64*1024)
	total := 0
	for {
		chunk, err := br.ReadSlice('\n')
		total += len(chunk)
		if room := limit + 1 - len(buf); room > 0 {
			buf = append(buf, chunk[:min(len(chunk), room)]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		if total > 0 {
			size := total
			switch {
			case bytes.HasSuffix(chunk, []byte("\r\n")):
				size -= 2
			case err == nil:
				size--
			}
			line := strings.TrimRight(string(buf), "\r\n")
			if size > limit {
				line = strings.ToValidUTF8(string(buf[:limit]), "") + TruncatedSuffix
			}
			fn(line)
		}
		if err != nil {
			return nil
		}
		buf, total = buf[:0], 0
	}
}

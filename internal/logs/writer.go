package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const (
	filePrefix = "app-"
	fileSuffix = ".log"
	dateLayout = "2006-01-02"
)

var fileNameRE = regexp.MustCompile(`^app-(\d{4}-\d{2}-\d{2})\.log$`)

// FileName returns the log file name for the UTC day of t.
func FileName(t time.Time) string {
	return filePrefix + t.UTC().Format(dateLayout) + fileSuffix
}

// DailyWriter appends to dir/app-YYYY-MM-DD.log, switching files when the
// UTC date changes.
type DailyWriter struct {
	dir string
	now func() time.Time

	mu   sync.Mutex
	date string
	file *os.File
}

func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

func (w *DailyWriter) Dir() string {
	return w.dir
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	date := w.now().UTC().Format(dateLayout)
	if w.file == nil || date != w.date {
		if err := w.rotate(date); err != nil {
			return 0, err
		}
	}
	return w.file.Write(p)
}

func (w *DailyWriter) rotate(date string) error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}
	path := filepath.Join(w.dir, filePrefix+date+fileSuffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	w.file = f
	w.date = date
	return nil
}

func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

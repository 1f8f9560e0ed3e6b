package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"igfollow/pkg/models"
)

// Header is the column layout written to new CSV ledgers
var Header = []string{"school", "follower_url", "abbreviation", "result", "timestamp"}

// column aliases accepted when reading
var columnAliases = map[string]string{
	"school":       "school",
	"subject":      "school",
	"follower_url": "follower_url",
	"follower":     "follower_url",
	"abbreviation": "abbreviation",
	"tokens":       "abbreviation",
	"result":       "result",
	"timestamp":    "timestamp",
}

// CSVStore keeps the ledger in an append-only CSV file
type CSVStore struct {
	path string
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// NewCSVStore creates a CSV store at path. The file is created lazily on
// the first append.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string {
	return s.path
}

// Scan reads every row in file order. A missing file is an empty ledger.
// Rows whose result or timestamp cannot be parsed are still returned with
// their reference so they keep counting as processed. A final row cut off
// inside a quoted field is dropped; any other quoting error fails the scan.
func (s *CSVStore) Scan(fn func(models.Entry) error) error {
	f, err := os.Open(s.path)
	if err != nil {
		// A file standing where the directory should be also means no ledger yet
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return nil
		}
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	var cols map[string]int
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if tornTail(r, err) {
				return nil
			}
			return fmt.Errorf("failed to read ledger line %d: %w", line, err)
		}

		if cols == nil {
			if c, ok := headerColumns(record); ok {
				cols = c
				continue
			}
			cols = headerIndex(Header)
		}

		entry, ok := entryFromRecord(record, cols)
		if !ok {
			continue
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
}

// Append writes e as one row and flushes it to disk
func (s *CSVStore) Append(e models.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.w == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	row := []string{
		e.Subject,
		e.Ref,
		e.Tokens,
		e.Decision.String(),
		e.Timestamp.Local().Format(models.TimestampLayout),
	}
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	return s.flush()
}

func (s *CSVStore) open() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger for append: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat ledger: %w", err)
	}
	size, err := sealTail(f, info.Size())
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to repair ledger tail: %w", err)
	}

	s.file = f
	s.w = csv.NewWriter(f)
	if size == 0 {
		if err := s.w.Write(Header); err != nil {
			return fmt.Errorf("failed to write ledger header: %w", err)
		}
	}
	return nil
}

// sealTail makes sure the next row starts on a line of its own. A last line
// without a newline is terminated, unless it stops inside a quoted field:
// that row was cut short and is truncated so it cannot swallow later rows.
// Returns the resulting file size.
func sealTail(f *os.File, size int64) (int64, error) {
	if size == 0 {
		return 0, nil
	}

	start := max(size-tailWindow, 0)
	buf := make([]byte, size-start)
	if _, err := f.ReadAt(buf, start); err != nil && err != io.EOF {
		return size, err
	}
	if buf[len(buf)-1] == '\n' {
		return size, nil
	}

	tail := buf[bytes.LastIndexByte(buf, '\n')+1:]
	if bytes.Count(tail, []byte{'"'})%2 == 1 {
		size -= int64(len(tail))
		return size, f.Truncate(size)
	}
	if _, err := f.Write([]byte{'\n'}); err != nil {
		return size, err
	}
	return size + 1, nil
}

// tailWindow bounds how much of the file end sealTail inspects
const tailWindow = 4096

// tornTail reports whether err is an open quoted field on the last line of
// the file, which is what an interrupted append leaves behind.
func tornTail(r *csv.Reader, err error) bool {
	var pe *csv.ParseError
	if !errors.As(err, &pe) || !errors.Is(err, csv.ErrQuote) || pe.Line-pe.StartLine > 1 {
		return false
	}
	_, next := r.Read()
	return next == io.EOF
}

func (s *CSVStore) flush() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	return nil
}

func (s *CSVStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	err := errors.Join(s.w.Error(), s.file.Close())
	s.file, s.w = nil, nil
	return err
}

// headerColumns recognizes a header row by its reference column
func headerColumns(record []string) (map[string]int, bool) {
	cols := headerIndex(record)
	_, ok := cols["follower_url"]
	return cols, ok
}

func headerIndex(record []string) map[string]int {
	cols := make(map[string]int, len(record))
	for i, name := range record {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if canonical, ok := columnAliases[key]; ok {
			if _, seen := cols[canonical]; !seen {
				cols[canonical] = i
			}
		}
	}
	return cols
}

func entryFromRecord(record []string, cols map[string]int) (models.Entry, bool) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	ref := get("follower_url")
	if ref == "" {
		return models.Entry{}, false
	}

	e := models.Entry{
		Subject: get("school"),
		Ref:     ref,
		Tokens:  get("abbreviation"),
	}
	if d, err := models.ParseDecision(get("result")); err == nil {
		e.Decision = d
	}
	if ts, err := time.ParseInLocation(models.TimestampLayout, get("timestamp"), time.Local); err == nil {
		e.Timestamp = ts
	}
	return e, true
}

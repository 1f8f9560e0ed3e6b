// Package roster loads the subject roster: one spreadsheet row per managed
// account, with its target handles, bio tokens, follow cap and bot
// credentials.
package roster

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"igfollow/pkg/errors"
	"igfollow/pkg/instagram"
	"igfollow/pkg/logger"
	"igfollow/pkg/models"
)

// Column names after normalization
const (
	ColName      = "school name"
	ColHandles   = "instagram id"
	ColTokens    = "abbreviation"
	ColMaxFollow = "max follow per school"
	ColUsername  = "bot username"
	ColPassword  = "bot password"
)

var columnAliases = map[string]string{
	"school name":           ColName,
	"school":                ColName,
	"subject":               ColName,
	"name":                  ColName,
	"instagram id":          ColHandles,
	"instagram ids":         ColHandles,
	"instagram":             ColHandles,
	"handles":               ColHandles,
	"abbreviation":          ColTokens,
	"abbreviations":         ColTokens,
	"tokens":                ColTokens,
	"max follow per school": ColMaxFollow,
	"max follow":            ColMaxFollow,
	"max follows":           ColMaxFollow,
	"bot username":          ColUsername,
	"username":              ColUsername,
	"bot password":          ColPassword,
	"password":              ColPassword,
}

var (
	// ErrMissingCredentials marks a row without a usable credential pair
	ErrMissingCredentials = stderrors.New("no bot credentials")

	// ErrNoHandles marks a row without target handles
	ErrNoHandles = stderrors.New("no target handles")

	// ErrNoTokens marks a row without bio tokens
	ErrNoTokens = stderrors.New("no abbreviation tokens")
)

// Resolver completes a partial credential pair
type Resolver interface {
	Resolve(username, password string) (string, string, error)
}

// Options control how a roster is read
type Options struct {
	// Sheet selects the worksheet; empty means the first one
	Sheet string
	// DefaultMaxFollow applies to rows without a cap
	DefaultMaxFollow int
	// Credentials fills in passwords missing from the sheet
	Credentials Resolver
	// Only keeps subjects whose name matches one of these, case-insensitively
	Only []string
}

// RowError is a problem with one roster row. It skips the row, not the run.
type RowError struct {
	Row     int
	Subject string
	Err     error
}

func (e *RowError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("row %d (%s): %v", e.Row, e.Subject, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Roster is the parsed subject list
type Roster struct {
	Path     string
	Subjects []models.Subject
	Skipped  []*RowError
}

// Load reads and validates the roster at path. An unreadable file is a
// fatal input error; invalid rows are collected in Skipped.
func Load(path string, opts Options) (*Roster, error) {
	rows, err := readRows(path, opts.Sheet)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInput, "read roster "+path, err)
	}

	r, err := Parse(rows, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeInput, "parse roster "+path, err)
	}
	r.Path = path

	log := logger.GetLogger().WithField("component", "roster")
	for _, skipped := range r.Skipped {
		log.WarnWithFields("Skipping roster row", map[string]interface{}{
			"row":     skipped.Row,
			"subject": skipped.Subject,
			"reason":  skipped.Err.Error(),
		})
	}
	log.InfoWithFields("Roster loaded", map[string]interface{}{
		"path":     path,
		"subjects": len(r.Subjects),
		"skipped":  len(r.Skipped),
	})
	return r, nil
}

func readRows(path, sheet string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readXLSX(path, sheet)
	default:
		return nil, fmt.Errorf("unsupported roster format %q", filepath.Ext(path))
	}
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

// Parse turns raw rows into subjects. The first row must be the header.
func Parse(rows [][]string, opts Options) (*Roster, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("roster is empty")
	}

	cols := headerColumns(rows[0])
	for _, required := range []string{ColName, ColHandles} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	defaultMax := opts.DefaultMaxFollow
	if defaultMax <= 0 {
		defaultMax = 50
	}

	r := &Roster{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}

		s, err := parseRow(row, cols, rowNum, defaultMax, opts.Credentials)
		if err != nil {
			r.Skipped = append(r.Skipped, &RowError{Row: rowNum, Subject: s.Name, Err: err})
			continue
		}
		if !selected(s.Name, opts.Only) {
			continue
		}
		r.Subjects = append(r.Subjects, s)
	}
	return r, nil
}

func parseRow(row []string, cols map[string]int, rowNum, defaultMax int, creds Resolver) (models.Subject, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	s := models.Subject{
		Name:     get(ColName),
		Handles:  ParseHandles(get(ColHandles)),
		Tokens:   ParseTokens(get(ColTokens)),
		Username: get(ColUsername),
		Password: get(ColPassword),
		Row:      rowNum,
	}
	if s.Name == "" {
		return s, fmt.Errorf("subject name is empty")
	}

	maxFollow, err := ParseMaxFollow(get(ColMaxFollow), defaultMax)
	if err != nil {
		return s, err
	}
	s.MaxFollow = maxFollow

	if len(s.Handles) == 0 {
		return s, ErrNoHandles
	}
	if len(s.Tokens) == 0 {
		return s, ErrNoTokens
	}

	if !s.HasCredentials() && creds != nil {
		if user, pass, err := creds.Resolve(s.Username, s.Password); err == nil {
			s.Username, s.Password = user, pass
		}
	}
	if !s.HasCredentials() {
		return s, ErrMissingCredentials
	}
	return s, nil
}

// ParseHandles splits a comma or semicolon separated handle list. Leading @
// signs and profile URL prefixes are removed; duplicates are dropped.
func ParseHandles(cell string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range splitList(cell) {
		h := instagram.SanitizeUsername(part)
		key := strings.ToLower(h)
		if h == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

// ParseTokens splits a comma or semicolon separated token list and
// lower-cases every token
func ParseTokens(cell string) []string {
	var out []string
	for _, part := range splitList(cell) {
		out = append(out, strings.ToLower(part))
	}
	return out
}

// MaxFollowLimit is the largest per-subject cap a roster row may ask for
const MaxFollowLimit = 10000

// ParseMaxFollow reads a per-subject cap. Empty and zero cells fall back to
// def. Spreadsheet numbers such as "50.0" are accepted.
func ParseMaxFollow(cell string, def int) (int, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return def, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil {
		f, ferr := strconv.ParseFloat(cell, 64)
		if ferr != nil || f < 0 || f > MaxFollowLimit || f != float64(int(f)) {
			return 0, fmt.Errorf("invalid max follow %q", cell)
		}
		n = int(f)
	}
	switch {
	case n < 0:
		return 0, fmt.Errorf("invalid max follow %q", cell)
	case n > MaxFollowLimit:
		return 0, fmt.Errorf("max follow %q above %d", cell, MaxFollowLimit)
	case n == 0:
		return def, nil
	default:
		return n, nil
	}
}

func splitList(cell string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeHeader lower-cases a column name and folds underscores, dashes
// and repeated spaces into single spaces
func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(name))
	return strings.Join(strings.Fields(name), " ")
}

func headerColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if canonical, ok := columnAliases[normalizeHeader(name)]; ok {
			if _, seen := cols[canonical]; !seen {
				cols[canonical] = i
			}
		}
	}
	return cols
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func selected(name string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if strings.EqualFold(strings.TrimSpace(o), name) {
			return true
		}
	}
	return false
}

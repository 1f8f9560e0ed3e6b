// Package ledger records every processed candidate and its decision.
//
// The ledger is append-only and is the single source of truth for which
// candidates have been processed. At startup the whole store is scanned
// into memory; afterwards Record appends and flushes one entry at a time,
// so an interrupted run loses at most the entry being written.
//
// Two backends are available:
//   - csv: the bot_progress.csv layout (school, follower_url, abbreviation,
//     result, timestamp), readable by spreadsheets
//   - sqlite: the same columns plus the run id that wrote each row
package ledger

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"igfollow/pkg/config"
	"igfollow/pkg/errors"
	"igfollow/pkg/instagram"
	"igfollow/pkg/logger"
	"igfollow/pkg/models"
)

// Store persists ledger entries
type Store interface {
	// Scan calls fn for every stored entry in write order
	Scan(fn func(models.Entry) error) error
	// Append durably stores e
	Append(e models.Entry) error
	Path() string
	Close() error
}

// Ledger is the in-memory view of a Store
type Ledger struct {
	mu        sync.RWMutex
	store     Store
	processed map[string]struct{}
	entries   []models.Entry
	now       func() time.Time
	logger    logger.Logger
}

// Open opens the backend selected by cfg and loads it
func Open(cfg config.LedgerConfig, runID string) (*Ledger, error) {
	var store Store
	switch cfg.Backend {
	case "", "csv":
		store = NewCSVStore(cfg.Path)
	case "sqlite":
		s, err := OpenSQLiteStore(SQLitePath(cfg.Path), runID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeLedger, "open ledger", err)
		}
		store = s
	default:
		return nil, errors.New(errors.ErrorTypeLedger, "unknown ledger backend "+cfg.Backend)
	}

	l, err := New(store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return l, nil
}

// SQLitePath maps a .csv ledger path onto its database file
func SQLitePath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	return path
}

// New loads every entry of store into a Ledger
func New(store Store) (*Ledger, error) {
	l := &Ledger{
		store:     store,
		processed: make(map[string]struct{}),
		now:       time.Now,
		logger:    logger.GetLogger().WithField("component", "ledger"),
	}

	err := store.Scan(func(e models.Entry) error {
		l.add(e)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeLedger, "load ledger", err)
	}

	l.logger.InfoWithFields("Ledger loaded", map[string]interface{}{
		"path":      store.Path(),
		"entries":   len(l.entries),
		"processed": len(l.processed),
	})
	return l, nil
}

// Key normalizes a candidate reference so that equivalent profile links
// compare equal
func Key(ref string) string {
	if canonical, ok := instagram.CanonicalProfileURL(ref); ok {
		return canonical
	}
	return strings.TrimSpace(ref)
}

func (l *Ledger) add(e models.Entry) {
	l.processed[Key(e.Ref)] = struct{}{}
	l.entries = append(l.entries, e)
}

// HasProcessed reports whether ref was recorded by any subject
func (l *Ledger) HasProcessed(ref string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.processed[Key(ref)]
	return ok
}

// Lookup returns the entry recorded for ref
func (l *Ledger) Lookup(ref string) (models.Entry, bool) {
	key := Key(ref)
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if Key(l.entries[i].Ref) == key {
			return l.entries[i], true
		}
	}
	return models.Entry{}, false
}

// Record appends a decision. The candidate counts as processed only once
// the entry is durably stored.
func (l *Ledger) Record(subject, ref, tokens string, d models.Decision) error {
	e := models.Entry{
		Subject:   subject,
		Ref:       ref,
		Tokens:    tokens,
		Decision:  d,
		Timestamp: l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Append(e); err != nil {
		return errors.Wrap(errors.ErrorTypeLedger, "record "+ref, err)
	}
	l.add(e)
	return nil
}

// Len returns the number of entries
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// FollowedSince counts follows recorded at or after t
func (l *Ledger) FollowedSince(t time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if e.Decision.Followed() && !e.Timestamp.Before(t) {
			n++
		}
	}
	return n
}

// Stats summarizes the ledger per subject, sorted by subject name
func (l *Ledger) Stats() []SubjectStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bySubject := make(map[string]*SubjectStats)
	for _, e := range l.entries {
		s, ok := bySubject[e.Subject]
		if !ok {
			s = &SubjectStats{Subject: e.Subject}
			bySubject[e.Subject] = s
		}
		s.add(e)
	}

	out := make([]SubjectStats, 0, len(bySubject))
	for _, s := range bySubject {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out
}

// Path returns the location of the backing store
func (l *Ledger) Path() string {
	return l.store.Path()
}

// Close closes the backing store
func (l *Ledger) Close() error {
	return l.store.Close()
}

// StartOfDay returns local midnight of t's day
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Local().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

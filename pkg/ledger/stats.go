package ledger

import (
	"time"

	"igfollow/pkg/models"
)

// SubjectStats counts the decisions recorded for one subject
type SubjectStats struct {
	Subject         string
	Evaluated       int
	Matched         int
	Followed        int
	NoAction        int
	ProfileLoadFail int
	Unreadable      int
	LastActivity    time.Time
}

func (s *SubjectStats) add(e models.Entry) {
	s.Evaluated++
	if e.Decision.Matched {
		s.Matched++
	}
	switch e.Decision.Action {
	case models.ActionFollowed:
		s.Followed++
	case models.ActionNoAction:
		s.NoAction++
	case models.ActionProfileLoadFail:
		s.ProfileLoadFail++
	default:
		s.Unreadable++
	}
	if e.Timestamp.After(s.LastActivity) {
		s.LastActivity = e.Timestamp
	}
}

// MatchRate is the share of loaded profiles whose bio matched
func (s SubjectStats) MatchRate() float64 {
	loaded := s.Evaluated - s.ProfileLoadFail - s.Unreadable
	if loaded <= 0 {
		return 0
	}
	return float64(s.Matched) / float64(loaded)
}

// Totals sums stats across subjects
func Totals(stats []SubjectStats) SubjectStats {
	var t SubjectStats
	for _, s := range stats {
		t.Evaluated += s.Evaluated
		t.Matched += s.Matched
		t.Followed += s.Followed
		t.NoAction += s.NoAction
		t.ProfileLoadFail += s.ProfileLoadFail
		t.Unreadable += s.Unreadable
		if s.LastActivity.After(t.LastActivity) {
			t.LastActivity = s.LastActivity
		}
	}
	return t
}

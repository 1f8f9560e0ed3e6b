package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Subject is one managed crawl unit: an account with its own credentials,
// target accounts, token set and follow cap.
type Subject struct {
	Name      string
	Handles   []string
	Tokens    []string
	MaxFollow int
	Username  string
	Password  string
	// Row is the 1-based roster row the subject was parsed from.
	Row int
}

// HasCredentials reports whether both halves of the bot credential pair are set.
func (s Subject) HasCredentials() bool {
	return s.Username != "" && s.Password != ""
}

// TokenString joins the token set the way it is stored in the ledger.
func (s Subject) TokenString() string {
	return strings.Join(s.Tokens, ";")
}

// Relationship is the bot account's follow state towards a candidate.
type Relationship int

const (
	RelationshipUnknown Relationship = iota
	RelationshipNone
	RelationshipFollowing
	RelationshipRequested
)

func (r Relationship) String() string {
	switch r {
	case RelationshipNone:
		return "none"
	case RelationshipFollowing:
		return "following"
	case RelationshipRequested:
		return "requested"
	default:
		return "unknown"
	}
}

// Candidate is a discovered follower awaiting evaluation.
type Candidate struct {
	Ref          string
	Bio          string
	Relationship Relationship
}

// Action is what the evaluator did with a candidate.
type Action string

const (
	ActionFollowed        Action = "followed"
	ActionNoAction        Action = "no_action"
	ActionProfileLoadFail Action = "profile_load_fail"
)

// Decision is the outcome of evaluating one candidate against one subject.
type Decision struct {
	Matched bool
	Action  Action
	// Token is the first token that matched, empty when Matched is false.
	Token string
}

// Followed reports whether the decision consumed follow quota.
func (d Decision) Followed() bool {
	return d.Matched && d.Action == ActionFollowed
}

// String encodes the decision as "<matched>|<action>".
func (d Decision) String() string {
	return strconv.FormatBool(d.Matched) + "|" + string(d.Action)
}

// ParseDecision decodes a ledger result column. Python-style booleans
// ("True", "False") are accepted.
func ParseDecision(s string) (Decision, error) {
	matched, action, ok := strings.Cut(strings.TrimSpace(s), "|")
	if !ok {
		return Decision{}, fmt.Errorf("malformed decision %q", s)
	}
	m, err := strconv.ParseBool(matched)
	if err != nil {
		return Decision{}, fmt.Errorf("malformed decision %q: %w", s, err)
	}
	switch a := Action(action); a {
	case ActionFollowed, ActionNoAction, ActionProfileLoadFail:
		return Decision{Matched: m, Action: a}, nil
	default:
		return Decision{}, fmt.Errorf("unknown action %q", action)
	}
}

// TimestampLayout is the ledger's timestamp format, in local time.
const TimestampLayout = "2006-01-02 15:04:05"

// Entry is one ledger row.
type Entry struct {
	Subject   string
	Ref       string
	Tokens    string
	Decision  Decision
	Timestamp time.Time
}

// Quota holds the run's follow counters. It is owned by the orchestrator.
type Quota struct {
	DailyCap      int
	TotalFollowed int
}

// Exhausted reports whether the daily cap has been reached.
func (q *Quota) Exhausted() bool {
	return q.TotalFollowed >= q.DailyCap
}

// Remaining returns how many follows are left today.
func (q *Quota) Remaining() int {
	if r := q.DailyCap - q.TotalFollowed; r > 0 {
		return r
	}
	return 0
}

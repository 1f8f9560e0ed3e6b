package ui

import (
	"igfollow/pkg/crawler"
	"igfollow/pkg/models"
)

// Multi fans every crawl event out to each reporter in order
type Multi []crawler.Reporter

// Tee combines reporters, dropping nil ones
func Tee(reporters ...crawler.Reporter) crawler.Reporter {
	var m Multi
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m Multi) SubjectStarted(subject models.Subject, index, total int) {
	for _, r := range m {
		r.SubjectStarted(subject, index, total)
	}
}

func (m Multi) HandleStarted(subject, handle string, candidates int) {
	for _, r := range m {
		r.HandleStarted(subject, handle, candidates)
	}
}

func (m Multi) Decided(subject string, c models.Candidate, d models.Decision, quota models.Quota) {
	for _, r := range m {
		r.Decided(subject, c, d, quota)
	}
}

func (m Multi) SubjectFinished(result crawler.SubjectResult) {
	for _, r := range m {
		r.SubjectFinished(result)
	}
}

func (m Multi) Challenge(subject, username string) {
	for _, r := range m {
		r.Challenge(subject, username)
	}
}

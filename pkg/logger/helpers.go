package logger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"igfollow/pkg/models"
)

// LogDecision logs the outcome of one candidate evaluation
func LogDecision(subject, ref string, d models.Decision) {
	fields := map[string]interface{}{
		"subject": subject,
		"ref":     ref,
		"matched": d.Matched,
		"action":  string(d.Action),
	}
	if d.Token != "" {
		fields["token"] = d.Token
	}

	switch d.Action {
	case models.ActionFollowed:
		GetLogger().InfoWithFields("Followed candidate", fields)
	case models.ActionProfileLoadFail:
		GetLogger().WarnWithFields("Candidate profile failed to load", fields)
	default:
		GetLogger().DebugWithFields("Candidate evaluated", fields)
	}
}

// LogSubjectStart logs the start of a subject's crawl
func LogSubjectStart(subject string, handles, maxFollow, sampleSize int) {
	GetLogger().WithFields(map[string]interface{}{
		"subject":     subject,
		"handles":     handles,
		"max_follow":  maxFollow,
		"sample_size": sampleSize,
	}).Info("Processing subject")
}

// LogSubjectDone logs a finished subject with its counters
func LogSubjectDone(subject string, followed, evaluated int, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"subject":   subject,
		"followed":  followed,
		"evaluated": evaluated,
		"reason":    reason,
	}).Info("Finished subject")
}

// LogQuota logs daily cap consumption
func LogQuota(q *models.Quota) {
	percentage := 0.0
	if q.DailyCap > 0 {
		percentage = float64(q.TotalFollowed) / float64(q.DailyCap) * 100
	}

	GetLogger().WithFields(map[string]interface{}{
		"followed":   q.TotalFollowed,
		"daily_cap":  q.DailyCap,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Daily quota")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	logger := GetLogger().WithField("component", component)
	
	if len(config) > 0 {
		logger = logger.WithFields(config)
	}
	
	logger.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// LogMetrics logs performance metrics
func LogMetrics(operation string, metrics map[string]interface{}) {
	fields := map[string]interface{}{
		"operation": operation,
		"type":      "metrics",
	}
	
	// Merge metrics into fields
	for k, v := range metrics {
		fields[k] = v
	}
	
	GetLogger().InfoWithFields("Performance metrics", fields)
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing (useful for testing)
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                             {}
func (n *nopLogger) Info(msg string)                                              {}
func (n *nopLogger) Warn(msg string)                                              {}
func (n *nopLogger) Error(msg string)                                             {}
func (n *nopLogger) Fatal(msg string)                                             {}
func (n *nopLogger) WithField(key string, value interface{}) Logger               { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger              { return n }
func (n *nopLogger) WithError(err error) Logger                                   { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                       { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{})    {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})     {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})     {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{})    {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{})    {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                                  { return nil }
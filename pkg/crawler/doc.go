// Package crawler drives the follow bot over a roster of subjects.
//
// The Crawler works through subjects one at a time. For every subject it:
//   - starts a fresh browser session and logs in with the subject's bot
//     credentials, skipping the subject when login fails
//   - samples the followers of each target handle, MaxFollow times the
//     oversample factor deep
//   - evaluates every candidate the ledger has not seen yet and records the
//     decision before moving on
//   - logs out and closes the session, then pauses before the next subject
//
// Usage:
//
//	quota := &models.Quota{DailyCap: cfg.Quota.DailyCap}
//	if cfg.Quota.CountLedgerToday {
//	    crawler.SeedQuota(quota, ledger, time.Now())
//	}
//
//	c := crawler.New(cfg, chrome.NewFactory(cfg.Browser), ledger)
//	summary, err := c.Run(ctx, roster.Subjects, quota)
//
// Caps:
//
// The daily cap is shared by all subjects and checked before every handle
// and before every candidate, so a candidate is never opened once the cap is
// spent. A subject's own MaxFollow is checked the same way. Only ledger
// write failures abort a run; every other problem skips a subject, a handle
// or a candidate.
package crawler

// Package pacing keeps the bot's activity human-paced.
//
// Pacer draws uniformly random delays from the configured ranges:
//   - Action: default pause between page interactions
//   - Input: between typing the username and the password
//   - AfterFollow: after clicking follow
//   - Candidate: between two candidate evaluations
//   - Subject: between two subjects
//   - Scroll: settle time for lazily loaded follower items
//
// Limiter caps follows per hour on top of the daily cap:
//
//	limiter := pacing.NewHourlyLimiter(cfg.Quota.FollowsPerHour)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
// A zero budget yields Unlimited, which never blocks.
package pacing

package instagram

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// LoginPath is the path of the login form
	LoginPath = "/accounts/login/"

	// LogoutPath ends the current web session
	LogoutPath = "/accounts/logout/"

	// MaxUsernameLength is the longest handle Instagram accepts
	MaxUsernameLength = 30
)

// reservedSegments are first path segments that never name a profile.
var reservedSegments = map[string]bool{
	"p":        true,
	"reel":     true,
	"reels":    true,
	"explore":  true,
	"stories":  true,
	"accounts": true,
	"direct":   true,
	"tv":       true,
}

// LoginURL returns the login form URL
func LoginURL() string {
	return BaseURL + LoginPath
}

// LogoutURL returns the logout URL
func LogoutURL() string {
	return BaseURL + LogoutPath
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	username = SanitizeUsername(username)
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > MaxUsernameLength {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @, surrounding whitespace and trailing
// slashes. A full profile URL is reduced to its handle.
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}

	if strings.Contains(username, "instagram.com") {
		if handle, ok := HandleFromURL(username); ok {
			return handle
		}
	}

	username = strings.TrimPrefix(username, "@")
	username = strings.TrimRight(username, "/ ")

	return username
}

// HandleFromURL extracts the handle from a profile link. Relative links are
// resolved against BaseURL. Links to posts, reels and other non-profile
// pages are rejected.
func HandleFromURL(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	base, _ := url.Parse(BaseURL)
	if !strings.Contains(href, "://") && strings.HasPrefix(href, "www.") {
		href = "https://" + href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "instagram.com" {
		return "", false
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	if len(segments) != 1 {
		return "", false
	}

	handle := segments[0]
	if reservedSegments[strings.ToLower(handle)] || !IsValidUsername(handle) {
		return "", false
	}

	return handle, true
}

// CanonicalProfileURL normalizes a profile link to
// https://www.instagram.com/<handle>/. Handles are case-insensitive, so the
// handle is lower-cased.
func CanonicalProfileURL(href string) (string, bool) {
	handle, ok := HandleFromURL(href)
	if !ok {
		return "", false
	}
	return GetUserProfileURL(strings.ToLower(handle)), true
}

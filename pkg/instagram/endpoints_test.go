package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"igfollow/pkg/session"
)

func TestGetUserProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{"simple", "testuser", "https://www.instagram.com/testuser/"},
		{"with at sign", "@test.user", "https://www.instagram.com/test.user/"},
		{"trailing slash", "test_user/ ", "https://www.instagram.com/test_user/"},
		{"full url", "https://www.instagram.com/testuser/", "https://www.instagram.com/testuser/"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetUserProfileURL(tt.username))
		})
	}
}

func TestLoginLogoutURL(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/accounts/login/", LoginURL())
	assert.Equal(t, "https://www.instagram.com/accounts/logout/", LogoutURL())
}

func TestIsValidUsername(t *testing.T) {
	assert.True(t, IsValidUsername("user.name_1"))
	assert.False(t, IsValidUsername(""))
	assert.False(t, IsValidUsername("has space"))
	assert.False(t, IsValidUsername("has-dash"))
	assert.False(t, IsValidUsername("abcdefghijklmnopqrstuvwxyz12345"))
}

func TestCanonicalProfileURL(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
		ok   bool
	}{
		{"relative", "/alice/", "https://www.instagram.com/alice/", true},
		{"relative without trailing slash", "/alice", "https://www.instagram.com/alice/", true},
		{"absolute", "https://www.instagram.com/bob.smith/", "https://www.instagram.com/bob.smith/", true},
		{"bare host", "https://instagram.com/carol", "https://www.instagram.com/carol/", true},
		{"query string", "/dave/?hl=en", "https://www.instagram.com/dave/", true},
		{"mixed case", "https://www.instagram.com/Erin_Smith/", "https://www.instagram.com/erin_smith/", true},
		{"post link", "/p/Cx12ab/", "", false},
		{"reel link", "/reel/Cx12ab/", "", false},
		{"explore", "/explore/", "", false},
		{"nested path", "/alice/followers/", "", false},
		{"other host", "https://example.com/alice/", "", false},
		{"root", "/", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalProfileURL(tt.href)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectorsMerge(t *testing.T) {
	defaults := DefaultSelectors()

	var custom Selectors
	err := yaml.Unmarshal([]byte(`
follow_button: "//button[text()='Follow']"
bio:
  - query: "div.bio"
    by: css
`), &custom)
	assert.NoError(t, err)

	merged := custom.Merge(defaults)
	assert.Equal(t, session.XPath(`//button[text()='Follow']`), merged.FollowButton)
	assert.Equal(t, []session.Locator{session.CSS("div.bio")}, merged.Bio)
	assert.Equal(t, defaults.FollowerList, merged.FollowerList)
	assert.Equal(t, defaults.FollowersLink, merged.FollowersLink)
	assert.Equal(t, defaults.FollowingLabel, merged.FollowingLabel)
}

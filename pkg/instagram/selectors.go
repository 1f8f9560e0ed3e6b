package instagram

import "igfollow/pkg/session"

// Selectors holds every page locator the crawl engine uses. Entries with
// several locators are fallback strategies tried in order.
type Selectors struct {
	LoginUsername  session.Locator   `yaml:"login_username"`
	LoginPassword  session.Locator   `yaml:"login_password"`
	LoggedInMarker session.Locator   `yaml:"logged_in_marker"`
	ProfileHeader  session.Locator   `yaml:"profile_header"`
	FollowersLink  []session.Locator `yaml:"followers_link"`
	PrivateMarker  session.Locator   `yaml:"private_marker"`
	FollowerList   session.Locator   `yaml:"follower_list"`
	FollowerItems  session.Locator   `yaml:"follower_items"`
	Bio            []session.Locator `yaml:"bio"`
	FollowButton   session.Locator   `yaml:"follow_button"`
	FollowingLabel []string          `yaml:"following_label"`
	RequestedLabel []string          `yaml:"requested_label"`
}

// DefaultSelectors returns the locators matching the current web layout.
func DefaultSelectors() Selectors {
	return Selectors{
		LoginUsername:  session.CSS(`input[name="username"]`),
		LoginPassword:  session.CSS(`input[name="password"]`),
		LoggedInMarker: session.XPath(`//nav`),
		ProfileHeader:  session.CSS(`header`),
		FollowersLink: []session.Locator{
			session.XPath(`//a[contains(@href,'/followers') and .//span]`),
			session.XPath(`//ul/li[2]/a[contains(@href,'/followers')]`),
		},
		PrivateMarker: session.XPath(`//*[contains(text(), 'This Account is Private')]`),
		FollowerList:  session.XPath(`//div[@role='dialog']//ul`),
		FollowerItems: session.XPath(`//div[@role='dialog']//ul//li//a[contains(@href, '/')]`),
		Bio: []session.Locator{
			session.XPath(`//div[@data-testid='user-bio']`),
			session.XPath(`//div[@class='-vDIg']/span`),
		},
		FollowButton:   session.XPath(`//header//button[contains(., 'Follow')]`),
		FollowingLabel: []string{"Following"},
		RequestedLabel: []string{"Requested"},
	}
}

// Merge fills every unset field of s from defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	pick := func(a, b session.Locator) session.Locator {
		if a.IsZero() {
			return b
		}
		return a
	}
	pickAll := func(a, b []session.Locator) []session.Locator {
		if len(a) == 0 {
			return b
		}
		return a
	}
	pickLabels := func(a, b []string) []string {
		if len(a) == 0 {
			return b
		}
		return a
	}

	return Selectors{
		LoginUsername:  pick(s.LoginUsername, defaults.LoginUsername),
		LoginPassword:  pick(s.LoginPassword, defaults.LoginPassword),
		LoggedInMarker: pick(s.LoggedInMarker, defaults.LoggedInMarker),
		ProfileHeader:  pick(s.ProfileHeader, defaults.ProfileHeader),
		FollowersLink:  pickAll(s.FollowersLink, defaults.FollowersLink),
		PrivateMarker:  pick(s.PrivateMarker, defaults.PrivateMarker),
		FollowerList:   pick(s.FollowerList, defaults.FollowerList),
		FollowerItems:  pick(s.FollowerItems, defaults.FollowerItems),
		Bio:            pickAll(s.Bio, defaults.Bio),
		FollowButton:   pick(s.FollowButton, defaults.FollowButton),
		FollowingLabel: pickLabels(s.FollowingLabel, defaults.FollowingLabel),
		RequestedLabel: pickLabels(s.RequestedLabel, defaults.RequestedLabel),
	}
}

package chrome

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"igfollow/pkg/config"
	"igfollow/pkg/session"
)

func TestElementsJS(t *testing.T) {
	css := elementsJS(session.CSS(`a[href*="/p/"]`))
	assert.Equal(t, `Array.from(document.querySelectorAll("a[href*=\"/p/\"]"))`, css)

	xpath := elementsJS(session.XPath(`//div[@role="dialog"]//a`))
	assert.Contains(t, xpath, `document.evaluate("//div[@role=\"dialog\"]//a"`)
	assert.Contains(t, xpath, "ORDERED_NODE_SNAPSHOT_TYPE")
}

func TestQueryOpts(t *testing.T) {
	assert.Len(t, queryOpts(session.CSS("header")), 1)
	assert.Len(t, queryOpts(session.XPath("//header")), 1)
	assert.Len(t, queryOpts(session.Locator{Query: "//header"}), 1)
}

func TestOptionsAddsConfiguredFlags(t *testing.T) {
	base := Options(config.BrowserConfig{})
	full := Options(config.BrowserConfig{
		Headless:     true,
		ExecPath:     "/usr/bin/chromium",
		UserAgent:    "Mozilla/5.0",
		Lang:         "en-US",
		WindowWidth:  1280,
		WindowHeight: 900,
	})
	assert.Len(t, full, len(base)+4)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"href"`, quote("href"))
	assert.Equal(t, `"it's \"quoted\""`, quote(`it's "quoted"`))
}

package session

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Strategy selects how a Locator's query is interpreted.
type Strategy string

const (
	ByXPath Strategy = "xpath"
	ByCSS   Strategy = "css"
)

// Locator identifies an element in the rendered page.
type Locator struct {
	Query string   `yaml:"query" json:"query"`
	By    Strategy `yaml:"by,omitempty" json:"by,omitempty"`
}

// XPath returns an XPath locator.
func XPath(query string) Locator {
	return Locator{Query: query, By: ByXPath}
}

// CSS returns a CSS selector locator.
func CSS(query string) Locator {
	return Locator{Query: query, By: ByCSS}
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool {
	return l.Query == ""
}

func (l Locator) String() string {
	by := l.By
	if by == "" {
		by = ByXPath
	}
	return fmt.Sprintf("%s(%s)", by, l.Query)
}

// UnmarshalYAML accepts either a bare string, read as XPath, or a mapping.
func (l *Locator) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = XPath(node.Value)
		return nil
	}
	type plain Locator
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.By == "" {
		p.By = ByXPath
	}
	if p.By != ByXPath && p.By != ByCSS {
		return fmt.Errorf("unknown locator strategy %q", p.By)
	}
	*l = Locator(p)
	return nil
}

// TabID identifies a browsing context within a session.
type TabID string

// Session is the automation capability set the crawl engine consumes.
//
// Expected absence is never an error: lookups report found/not-found through
// their boolean results. Errors are reserved for transport failures such as
// a navigation that could not be issued or a tab that could not be created.
type Session interface {
	// Navigate loads url in the active tab.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until loc is present or timeout elapses.
	WaitFor(ctx context.Context, loc Locator, timeout time.Duration) bool
	// Exists checks for loc without waiting.
	Exists(ctx context.Context, loc Locator) bool
	// Text returns the visible text of the first element matching loc.
	Text(ctx context.Context, loc Locator) (string, bool)
	// Attrs returns the named attribute of every element matching loc, in
	// document order. Elements without the attribute are skipped.
	Attrs(ctx context.Context, loc Locator, name string) []string
	// Click clicks the first element matching loc.
	Click(ctx context.Context, loc Locator) bool
	// Type sends text to the first element matching loc.
	Type(ctx context.Context, loc Locator, text string) bool
	// Submit presses Enter in the first element matching loc.
	Submit(ctx context.Context, loc Locator) bool
	// Scroll scrolls the scrollable container holding the first element
	// matching loc to its end, triggering lazy loading.
	Scroll(ctx context.Context, loc Locator) bool

	// CurrentTab returns the active tab.
	CurrentTab() TabID
	// Tabs lists all open tabs.
	Tabs() []TabID
	// OpenTab opens a blank tab and makes it active.
	OpenTab(ctx context.Context) (TabID, error)
	// SwitchTab makes id the active tab.
	SwitchTab(ctx context.Context, id TabID) error
	// CloseTab closes id. Closing the active tab leaves no tab active until
	// SwitchTab is called.
	CloseTab(ctx context.Context, id TabID) error

	// Close tears down the whole session.
	Close() error
}

// Factory creates one fresh session per subject.
type Factory interface {
	NewSession(ctx context.Context) (Session, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context) (Session, error)

// NewSession calls f.
func (f FactoryFunc) NewSession(ctx context.Context) (Session, error) {
	return f(ctx)
}

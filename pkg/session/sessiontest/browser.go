// Package sessiontest provides a scripted in-memory session.Session for
// exercising the crawl engine without a real browser.
package sessiontest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"igfollow/pkg/session"
)

// ErrNoActiveTab is returned by operations that need an active tab.
var ErrNoActiveTab = errors.New("no active tab")

// Page describes what a URL renders.
type Page struct {
	// Elements lists queries present on the page.
	Elements []string
	// Texts maps queries to their visible text. Listed queries are present.
	Texts map[string]string
	// Attrs maps queries to attribute batches. Batch i becomes visible after
	// i scrolls, and rendered values accumulate like a lazily-loaded list.
	Attrs map[string][][]string
	// OnClick and OnSubmit run when the keyed query is clicked or submitted.
	OnClick  map[string]func(t *Tab)
	OnSubmit map[string]func(t *Tab)
	// NavigateErr fails navigation to this page.
	NavigateErr error
}

// Tab is one browsing context of a Browser.
type Tab struct {
	ID       session.TabID
	URL      string
	scrolls  int
	elements map[string]bool
	texts    map[string]string
	browser  *Browser
}

// Goto switches the tab to url without recording a navigation.
func (t *Tab) Goto(url string) {
	t.URL = url
	t.scrolls = 0
	t.elements = map[string]bool{}
	t.texts = map[string]string{}
}

// SetElement overrides the presence of query on the tab's current page.
func (t *Tab) SetElement(query string, present bool) {
	t.elements[query] = present
}

// SetText overrides the text of query on the tab's current page.
func (t *Tab) SetText(query, text string) {
	t.texts[query] = text
	t.elements[query] = true
}

func (t *Tab) page() *Page {
	if p, ok := t.browser.pages[t.URL]; ok {
		return p
	}
	return &Page{}
}

func (t *Tab) present(query string) bool {
	if v, ok := t.elements[query]; ok {
		return v
	}
	p := t.page()
	for _, e := range p.Elements {
		if e == query {
			return true
		}
	}
	if _, ok := p.Texts[query]; ok {
		return true
	}
	return len(t.attrs(query)) > 0
}

func (t *Tab) text(query string) (string, bool) {
	if v, ok := t.texts[query]; ok {
		return v, true
	}
	if !t.present(query) {
		return "", false
	}
	v, ok := t.page().Texts[query]
	return v, ok
}

func (t *Tab) attrs(query string) []string {
	batches := t.page().Attrs[query]
	var out []string
	for i := 0; i < len(batches) && i <= t.scrolls; i++ {
		out = append(out, batches[i]...)
	}
	return out
}

// Browser is a scripted session.Session.
type Browser struct {
	mu     sync.Mutex
	pages  map[string]*Page
	tabs   []*Tab
	active *Tab
	nextID int

	// OpenTabErr makes OpenTab fail.
	OpenTabErr error

	Navigations []string
	Clicks      []string
	Typed       map[string]string
	ScrollCount int
	PeakTabs    int
	Closed      bool
}

// New creates a browser with one blank tab.
func New(pages map[string]*Page) *Browser {
	if pages == nil {
		pages = map[string]*Page{}
	}
	b := &Browser{pages: pages, Typed: map[string]string{}}
	b.active = b.newTab()
	return b
}

// AddPage registers p under url.
func (b *Browser) AddPage(url string, p *Page) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[url] = p
}

// Active returns the active tab, or nil.
func (b *Browser) Active() *Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Browser) newTab() *Tab {
	b.nextID++
	t := &Tab{ID: session.TabID(fmt.Sprintf("tab-%d", b.nextID)), browser: b}
	t.Goto("about:blank")
	b.tabs = append(b.tabs, t)
	if len(b.tabs) > b.PeakTabs {
		b.PeakTabs = len(b.tabs)
	}
	return t
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return ErrNoActiveTab
	}
	b.Navigations = append(b.Navigations, url)
	if p, ok := b.pages[url]; ok && p.NavigateErr != nil {
		return p.NavigateErr
	}
	b.active.Goto(url)
	return nil
}

func (b *Browser) WaitFor(ctx context.Context, loc session.Locator, timeout time.Duration) bool {
	return b.Exists(ctx, loc)
}

func (b *Browser) Exists(ctx context.Context, loc session.Locator) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active != nil && b.active.present(loc.Query)
}

func (b *Browser) Text(ctx context.Context, loc session.Locator) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return "", false
	}
	return b.active.text(loc.Query)
}

func (b *Browser) Attrs(ctx context.Context, loc session.Locator, name string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return nil
	}
	return b.active.attrs(loc.Query)
}

func (b *Browser) Click(ctx context.Context, loc session.Locator) bool {
	return b.trigger(loc, func(p *Page) func(*Tab) { return p.OnClick[loc.Query] }, true)
}

func (b *Browser) Submit(ctx context.Context, loc session.Locator) bool {
	return b.trigger(loc, func(p *Page) func(*Tab) { return p.OnSubmit[loc.Query] }, false)
}

func (b *Browser) trigger(loc session.Locator, hook func(*Page) func(*Tab), click bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil || !b.active.present(loc.Query) {
		return false
	}
	if click {
		b.Clicks = append(b.Clicks, b.active.URL+" "+loc.Query)
	}
	if fn := hook(b.active.page()); fn != nil {
		fn(b.active)
	}
	return true
}

func (b *Browser) Type(ctx context.Context, loc session.Locator, text string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil || !b.active.present(loc.Query) {
		return false
	}
	b.Typed[loc.Query] = text
	return true
}

func (b *Browser) Scroll(ctx context.Context, loc session.Locator) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil || !b.active.present(loc.Query) {
		return false
	}
	b.active.scrolls++
	b.ScrollCount++
	return true
}

func (b *Browser) CurrentTab() session.TabID {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == nil {
		return ""
	}
	return b.active.ID
}

func (b *Browser) Tabs() []session.TabID {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]session.TabID, 0, len(b.tabs))
	for _, t := range b.tabs {
		ids = append(ids, t.ID)
	}
	return ids
}

func (b *Browser) OpenTab(ctx context.Context) (session.TabID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OpenTabErr != nil {
		return "", b.OpenTabErr
	}
	b.active = b.newTab()
	return b.active.ID, nil
}

func (b *Browser) SwitchTab(ctx context.Context, id session.TabID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tabs {
		if t.ID == id {
			b.active = t
			return nil
		}
	}
	return fmt.Errorf("unknown tab %s", id)
}

func (b *Browser) CloseTab(ctx context.Context, id session.TabID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, t := range b.tabs {
		if t.ID == id {
			b.tabs = append(b.tabs[:i], b.tabs[i+1:]...)
			if b.active == t {
				b.active = nil
			}
			return nil
		}
	}
	return fmt.Errorf("unknown tab %s", id)
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	b.tabs = nil
	b.active = nil
	return nil
}

// Factory hands out a fresh Browser over a shared page set for every session.
type Factory struct {
	mu       sync.Mutex
	pages    map[string]*Page
	Sessions []*Browser
	// Err makes NewSession fail.
	Err error
}

// NewFactory creates a factory over pages.
func NewFactory(pages map[string]*Page) *Factory {
	return &Factory{pages: pages}
}

func (f *Factory) NewSession(ctx context.Context) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	b := New(f.pages)
	f.Sessions = append(f.Sessions, b)
	return b, nil
}

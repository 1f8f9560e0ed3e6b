// Package chrome implements session.Session on a real Chrome instance
// driven through the DevTools protocol.
package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"igfollow/pkg/config"
	"igfollow/pkg/logger"
	"igfollow/pkg/session"
)

type tab struct {
	id     session.TabID
	ctx    context.Context
	cancel context.CancelFunc
}

// Session is one Chrome process with its tabs
type Session struct {
	cfg config.BrowserConfig

	mu          sync.Mutex
	allocCancel context.CancelFunc
	root        *tab
	tabs        map[session.TabID]*tab
	order       []session.TabID
	active      session.TabID
	closed      bool
}

// Options builds the Chrome command line for cfg
func Options(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.NoSandbox,
	)
	if cfg.Lang != "" {
		opts = append(opts, chromedp.Flag("lang", cfg.Lang))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	return opts
}

// Launch starts Chrome, retrying with exponential backoff when the process
// fails to come up.
func Launch(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	log := logger.GetLogger().WithField("component", "chrome")

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 2 * time.Second
	expBackoff.MaxElapsedTime = 2 * time.Minute

	var s *Session
	operation := func() error {
		var err error
		s, err = start(cfg)
		if err != nil {
			log.WithError(err).Warn("Failed to start browser, will retry")
			return err
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(cfg.LaunchRetries)), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, fmt.Errorf("failed to start browser after retries: %w", err)
	}
	return s, nil
}

func start(cfg config.BrowserConfig) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), Options(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts the process and is bound to browserCtx for the
	// browser's whole lifetime, so it cannot carry a timeout itself.
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(browserCtx) }()

	select {
	case err := <-done:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, err
		}
	case <-time.After(cfg.LaunchTimeout):
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("browser did not start within %s", cfg.LaunchTimeout)
	}

	root := &tab{id: targetID(browserCtx), ctx: browserCtx, cancel: browserCancel}
	return &Session{
		cfg:         cfg,
		allocCancel: allocCancel,
		root:        root,
		tabs:        map[session.TabID]*tab{root.id: root},
		order:       []session.TabID{root.id},
		active:      root.id,
	}, nil
}

func targetID(ctx context.Context) session.TabID {
	if c := chromedp.FromContext(ctx); c != nil && c.Target != nil {
		return session.TabID(c.Target.TargetID)
	}
	return ""
}

// current returns the active tab
func (s *Session) current() (*tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("session closed")
	}
	t, ok := s.tabs[s.active]
	if !ok {
		return nil, fmt.Errorf("no active tab")
	}
	return t, nil
}

// run executes actions on the active tab, bounded by timeout and ctx
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	t, err := s.current()
	if err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}

func queryOpts(loc session.Locator) []chromedp.QueryOption {
	if loc.By == session.ByCSS {
		return []chromedp.QueryOption{chromedp.ByQuery}
	}
	return []chromedp.QueryOption{chromedp.BySearch}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.NavigationTimeout, chromedp.Navigate(url))
}

func (s *Session) WaitFor(ctx context.Context, loc session.Locator, timeout time.Duration) bool {
	return s.run(ctx, timeout, chromedp.WaitReady(loc.Query, queryOpts(loc)...)) == nil
}

func (s *Session) Exists(ctx context.Context, loc session.Locator) bool {
	var found bool
	err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(elementsJS(loc)+".length > 0", &found))
	return err == nil && found
}

type textResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (s *Session) Text(ctx context.Context, loc session.Locator) (string, bool) {
	var res textResult
	js := fmt.Sprintf(`(() => {
		const el = %s[0];
		return el ? {found: true, text: el.innerText || el.textContent || ""} : {found: false, text: ""};
	})()`, elementsJS(loc))
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(js, &res)); err != nil {
		return "", false
	}
	return res.Text, res.Found
}

func (s *Session) Attrs(ctx context.Context, loc session.Locator, name string) []string {
	var values []string
	js := fmt.Sprintf(`%s.map(el => el.getAttribute(%s)).filter(v => v)`, elementsJS(loc), quote(name))
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(js, &values)); err != nil {
		return nil
	}
	return values
}

func (s *Session) Click(ctx context.Context, loc session.Locator) bool {
	return s.run(ctx, s.cfg.ActionTimeout, chromedp.Click(loc.Query, queryOpts(loc)...)) == nil
}

func (s *Session) Type(ctx context.Context, loc session.Locator, text string) bool {
	return s.run(ctx, s.cfg.ActionTimeout, chromedp.SendKeys(loc.Query, text, queryOpts(loc)...)) == nil
}

func (s *Session) Submit(ctx context.Context, loc session.Locator) bool {
	return s.run(ctx, s.cfg.ActionTimeout, chromedp.SendKeys(loc.Query, kb.Enter, queryOpts(loc)...)) == nil
}

// Scroll moves the nearest scrollable ancestor of the element to its end
func (s *Session) Scroll(ctx context.Context, loc session.Locator) bool {
	var ok bool
	js := fmt.Sprintf(`(() => {
		const el = %s[0];
		if (!el) return false;
		let box = el.parentNode;
		for (let n = el.parentElement; n; n = n.parentElement) {
			if (n.scrollHeight > n.clientHeight) { box = n; break; }
		}
		box.scrollTop = box.scrollHeight;
		return true;
	})()`, elementsJS(loc))
	err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Evaluate(js, &ok))
	return err == nil && ok
}

func (s *Session) CurrentTab() session.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tabs[s.active]; !ok {
		return ""
	}
	return s.active
}

func (s *Session) Tabs() []session.TabID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]session.TabID(nil), s.order...)
}

func (s *Session) OpenTab(ctx context.Context) (session.TabID, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", fmt.Errorf("session closed")
	}
	parent := s.root.ctx
	s.mu.Unlock()

	tabCtx, cancel := chromedp.NewContext(parent)
	opCtx, opCancel := context.WithTimeout(tabCtx, s.cfg.ActionTimeout)
	defer opCancel()
	if err := chromedp.Run(opCtx, page.BringToFront()); err != nil {
		cancel()
		return "", fmt.Errorf("failed to open tab: %w", err)
	}

	t := &tab{id: targetID(tabCtx), ctx: tabCtx, cancel: cancel}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[t.id] = t
	s.order = append(s.order, t.id)
	s.active = t.id
	return t.id, nil
}

func (s *Session) SwitchTab(ctx context.Context, id session.TabID) error {
	s.mu.Lock()
	t, ok := s.tabs[id]
	if ok {
		s.active = id
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown tab %s", id)
	}

	opCtx, cancel := context.WithTimeout(t.ctx, s.cfg.ActionTimeout)
	defer cancel()
	if err := chromedp.Run(opCtx, page.BringToFront()); err != nil {
		logger.GetLogger().WithError(err).Debug("Failed to bring tab to front")
	}
	return nil
}

func (s *Session) CloseTab(ctx context.Context, id session.TabID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[id]
	if !ok {
		return fmt.Errorf("unknown tab %s", id)
	}
	if t == s.root {
		return fmt.Errorf("the first tab lives as long as the session")
	}

	t.cancel()
	delete(s.tabs, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.active == id {
		s.active = ""
	}
	return nil
}

// Close shuts down every tab and the browser process
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, t := range s.tabs {
		if t != s.root {
			t.cancel()
		}
	}
	s.root.cancel()
	s.allocCancel()
	s.tabs = nil
	s.order = nil
	s.active = ""
	return nil
}

// elementsJS returns a JS expression evaluating to the array of elements
// matching loc
func elementsJS(loc session.Locator) string {
	if loc.By == session.ByCSS {
		return fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, quote(loc.Query))
	}
	return fmt.Sprintf(`(() => {
		const r = document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const out = [];
		for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
		return out;
	})()`, quote(loc.Query))
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Factory launches one browser per session
type Factory struct {
	cfg config.BrowserConfig
}

// NewFactory creates a Factory for cfg
func NewFactory(cfg config.BrowserConfig) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) NewSession(ctx context.Context) (session.Session, error) {
	s, err := Launch(ctx, f.cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}

package tabs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/spigell/career-compass/internal/session"
	"go.uber.org/zap"
)

const defaultBrowserTimeout = 30 * time.Second

// BrowserOptions configures the Chrome instance driven through CDP.
type BrowserOptions struct {
	Headless bool          `mapstructure:"headless"`
	StartURL string        `mapstructure:"start-url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Browser is a Chrome window controlled with chromedp. Its first tab is the
// active tab; Open adds more tabs to the same window.
type Browser struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  *zap.Logger

	mu   sync.Mutex
	tabs []context.CancelFunc
}

// NewBrowser starts Chrome and loads opts.StartURL in the first tab.
// Requires Chrome/Chromium to be installed on the system.
func NewBrowser(ctx context.Context, opts BrowserOptions, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultBrowserTimeout
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", opts.Headless),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	b := &Browser{
		ctx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: opts.Timeout,
		logger:  logger,
	}

	actions := []chromedp.Action{}
	if opts.StartURL != "" {
		actions = append(actions, chromedp.Navigate(opts.StartURL))
	}

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		b.cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	logger.Info("browser started", zap.String("start_url", opts.StartURL), zap.Bool("headless", opts.Headless))

	return b, nil
}

func (b *Browser) Active(ctx context.Context) (Tab, error) {
	var url string
	if err := b.run(ctx, b.ctx, chromedp.Location(&url)); err != nil {
		return nil, err
	}

	if url == "" || url == "about:blank" {
		return nil, nil
	}

	id := ""
	if c := chromedp.FromContext(b.ctx); c != nil && c.Target != nil {
		id = string(c.Target.TargetID)
	}

	return &browserTab{browser: b, id: id, url: url}, nil
}

func (b *Browser) Open(ctx context.Context, url string) error {
	tabCtx, cancel := chromedp.NewContext(b.ctx)

	// The tab lives as long as the first context it is run with, so it is
	// created before any timeout is attached.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return fmt.Errorf("creating tab: %w", err)
	}

	if err := b.run(ctx, tabCtx, chromedp.Navigate(url)); err != nil {
		cancel()
		return fmt.Errorf("opening %s: %w", url, err)
	}

	b.mu.Lock()
	b.tabs = append(b.tabs, cancel)
	b.mu.Unlock()

	b.logger.Debug("opened tab", zap.String("url", url))
	return nil
}

// Cookies returns a session store reading the named cookie from this browser.
func (b *Browser) Cookies(origin, name string) session.Store {
	if origin == "" {
		origin = session.DefaultOrigin
	}
	if name == "" {
		name = session.DefaultName
	}
	return &browserCookies{browser: b, origin: origin, name: name}
}

// Close closes every tab and stops the browser.
func (b *Browser) Close() {
	b.mu.Lock()
	for _, cancel := range b.tabs {
		cancel()
	}
	b.tabs = nil
	b.mu.Unlock()

	b.cancel()
}

// run executes actions in the chromedp context target, bounded by the
// browser timeout and cancelled together with ctx.
func (b *Browser) run(ctx, target context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(target, b.timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

type browserTab struct {
	browser *Browser
	id      string
	url     string
}

func (t *browserTab) ID() string  { return t.id }
func (t *browserTab) URL() string { return t.url }

func (t *browserTab) HTML(ctx context.Context) (string, error) {
	var html string
	if err := t.browser.run(ctx, t.browser.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	return html, nil
}

type browserCookies struct {
	browser *Browser
	origin  string
	name    string
}

func (c *browserCookies) Get(ctx context.Context) (*session.Cookie, error) {
	var found *session.Cookie

	err := c.browser.run(ctx, c.browser.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().WithURLs([]string{c.origin}).Do(ctx)
		if err != nil {
			return err
		}
		for _, cookie := range cookies {
			if cookie.Name == c.name && cookie.Value != "" {
				found = &session.Cookie{Origin: c.origin, Name: c.name, Value: cookie.Value}
				return nil
			}
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("reading browser cookies: %w", err)
	}

	return found, nil
}

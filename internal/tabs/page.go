package tabs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/spigell/career-compass/internal/utils"
	"go.uber.org/zap"
)

const DefaultUserAgent = "Mozilla/5.0 (compatible; career-compass)"

// PageHost models a window with a single tab whose document is downloaded
// over HTTP. Opened tabs are handed to OpenFunc, which by default only logs
// the URL so the user can follow it.
type PageHost struct {
	HTTPClient *http.Client
	UserAgent  string
	OpenFunc   func(ctx context.Context, url string) error

	mu     sync.RWMutex
	url    string
	seq    int
	logger *zap.Logger
}

func NewPageHost(url string, logger *zap.Logger) *PageHost {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &PageHost{
		HTTPClient: &http.Client{},
		UserAgent:  DefaultUserAgent,
		logger:     logger,
	}
	h.Navigate(url)

	return h
}

// Navigate replaces the page shown in the active tab. An empty url closes it.
func (h *PageHost) Navigate(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.url = url
	h.seq++
}

func (h *PageHost) Active(_ context.Context) (Tab, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.url == "" {
		return nil, nil
	}

	return &pageTab{
		id:        fmt.Sprintf("page-%d", h.seq),
		url:       h.url,
		userAgent: h.UserAgent,
		client:    h.HTTPClient,
		logger:    h.logger,
	}, nil
}

func (h *PageHost) Open(ctx context.Context, url string) error {
	if h.OpenFunc != nil {
		return h.OpenFunc(ctx, url)
	}

	h.logger.Info("open this page in your browser", zap.String("url", url))
	return nil
}

type pageTab struct {
	id        string
	url       string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

func (t *pageTab) ID() string  { return t.id }
func (t *pageTab) URL() string { return t.url }

func (t *pageTab) HTML(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		t.logger.Debug("page download failed",
			zap.String("url", t.url),
			zap.Int("status", resp.StatusCode),
			zap.String("body_preview", utils.BodyPreview(string(data), 200)),
		)
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	return string(data), nil
}

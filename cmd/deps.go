package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/career-compass/internal/auth"
	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/coordinator"
	"github.com/spigell/career-compass/internal/resume"
	"github.com/spigell/career-compass/internal/scraper"
	"github.com/spigell/career-compass/internal/secrets"
	"github.com/spigell/career-compass/internal/session"
	"github.com/spigell/career-compass/internal/tabs"
	"go.uber.org/zap"
)

// runtime holds the wired components shared by the panel and the bridge.
type runtime struct {
	coordinator *coordinator.Coordinator
	cookies     session.Store
	host        tabs.Host
	// page is set when tabs are served over plain HTTP instead of a browser.
	page *tabs.PageHost

	close func()
}

func buildRuntime(ctx context.Context, config *Config, logger *zap.Logger) (*runtime, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "identity api key",
		Value: config.Identity.APIKey,
		File:  config.Identity.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set identity.api-key, identity.api-key-file or CC_IDENTITY_API_KEY_FILE)", err)
	}

	client := backend.New(backend.Endpoints{
		IdentityURL: config.Identity.URL,
		ResumeURL:   config.Resume.URL,
		MatchURL:    config.Match.URL,
	}, apiKey, logger.With(zap.String("component", "backend")))
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	content, err := scraper.New(config.Scraper, logger.With(zap.String("component", "scraper")))
	if err != nil {
		return nil, fmt.Errorf("building scraper: %w", err)
	}

	rt := &runtime{close: func() {}}

	if config.Browser.Enabled {
		browser, err := tabs.NewBrowser(ctx, config.Browser.BrowserOptions, logger.With(zap.String("component", "browser")))
		if err != nil {
			return nil, err
		}
		rt.host = browser
		rt.close = browser.Close

		if config.Session.Browser {
			rt.cookies = browser.Cookies(config.Session.Origin, config.Session.Name)
		}
	} else {
		rt.page = tabs.NewPageHost(config.PageURL, logger.With(zap.String("component", "page")))
		if config.UserAgent != "" {
			rt.page.UserAgent = config.UserAgent
		}
		rt.host = rt.page
	}

	if rt.cookies == nil {
		rt.cookies = cookieStore(config.Session, logger)
	}

	verifier := auth.NewVerifier(rt.cookies, client, logger.With(zap.String("component", "auth")))

	rt.coordinator = coordinator.New(coordinator.Deps{
		Verifier: verifier,
		Resumes:  resume.NewFetcher(rt.cookies, client, logger.With(zap.String("component", "resume"))),
		Matcher:  client,
		Tabs:     rt.host,
		Content:  content,
	}, config.LoginURL, logger)

	return rt, nil
}

func cookieStore(cfg SessionConfig, logger *zap.Logger) session.Store {
	path := strings.TrimSpace(cfg.CookieFile)
	if path == "" {
		logger.Warn("no session cookie source configured, every session will be treated as signed out",
			zap.String("hint", "set session.cookie-file or CC_COOKIE_FILE"),
		)
		return session.NewStatic("")
	}

	return session.NewFileStore(path, cfg.Origin, cfg.Name, logger.With(zap.String("component", "session")))
}

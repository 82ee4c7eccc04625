// Package scraper extracts job listings from the document of a page. It plays
// the part of the content script attached to the page: it only answers
// SCRAPE_JOBS requests and never talks to the network.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spigell/career-compass/internal/messaging"
	"go.uber.org/zap"
)

const (
	NoTitle   = "No Title"
	NoCompany = "No Company"
)

// Selectors describes where listings live on a page.
type Selectors struct {
	Container string `mapstructure:"container"`
	Title     string `mapstructure:"title"`
	Company   string `mapstructure:"company"`
	// Origin resolves relative links.
	Origin string `mapstructure:"origin"`
}

// DefaultSelectors matches the internship listing pages of internshala.com.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: ".individual_internship",
		Title:     "h3.job-internship-name a.job-title-href",
		Company:   "p.company-name",
		Origin:    "https://internshala.com",
	}
}

// Document is the page a scrape runs against.
type Document interface {
	HTML(ctx context.Context) (string, error)
}

type Scraper struct {
	selectors Selectors
	origin    *url.URL
	logger    *zap.Logger
}

// New returns a scraper. Empty selector fields fall back to DefaultSelectors.
func New(selectors Selectors, logger *zap.Logger) (*Scraper, error) {
	defaults := DefaultSelectors()
	if selectors.Container == "" {
		selectors.Container = defaults.Container
	}
	if selectors.Title == "" {
		selectors.Title = defaults.Title
	}
	if selectors.Company == "" {
		selectors.Company = defaults.Company
	}
	if selectors.Origin == "" {
		selectors.Origin = defaults.Origin
	}

	origin, err := url.Parse(selectors.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid origin %q: must have scheme and host", selectors.Origin)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scraper{selectors: selectors, origin: origin, logger: logger}, nil
}

// Scrape parses an HTML document and returns every listing in document order.
// A page without listings yields an empty, non-nil slice.
func (s *Scraper) Scrape(r io.Reader) ([]messaging.Job, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	jobs := make([]messaging.Job, 0)
	doc.Find(s.selectors.Container).Each(func(i int, container *goquery.Selection) {
		anchor := container.Find(s.selectors.Title).First()
		href, _ := anchor.Attr("href")

		jobs = append(jobs, messaging.Job{
			ID:      i,
			Title:   textOr(anchor, NoTitle),
			Company: textOr(container.Find(s.selectors.Company).First(), NoCompany),
			URL:     s.resolve(href),
		})
	})

	s.logger.Debug("jobs scraped", zap.Int("count", len(jobs)))

	return jobs, nil
}

// HandleMessage answers a content-context request against doc. Requests
// other than SCRAPE_JOBS get no response (nil, nil).
func (s *Scraper) HandleMessage(ctx context.Context, doc Document, msg messaging.Message) (*messaging.JobList, error) {
	if msg.Action != messaging.ScrapeJobs {
		return nil, nil
	}

	html, err := doc.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page document: %w", err)
	}

	jobs, err := s.Scrape(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	list := messaging.NewJobList(jobs)
	return &list, nil
}

func (s *Scraper) resolve(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return s.selectors.Origin + href
	}

	return s.origin.ResolveReference(ref).String()
}

func textOr(sel *goquery.Selection, fallback string) string {
	if sel.Length() == 0 {
		return fallback
	}
	if text := strings.TrimSpace(sel.Text()); text != "" {
		return text
	}
	return fallback
}

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spigell/career-compass/internal/filtering"
	"github.com/spigell/career-compass/internal/messaging"
	"github.com/spigell/career-compass/internal/tabs"
	"go.uber.org/zap"
)

const (
	PromptScrape      = "Scrape jobs"
	PromptUpload      = "Upload resume (PDF)"
	PromptFetchResume = "Use stored resume"
	PromptSend        = "Send to backend"
	PromptPage        = "Set page URL"
	PromptOpenLogin   = "Open login"
	PromptCheckAgain  = "Check again"
	PromptQuit        = "Quit"

	StatusChecking      = "Checking login…"
	StatusReady         = "Ready"
	StatusLoginRequired = "Login required"
	StatusNeedInputs    = "Upload + scrape first"
)

var errExit = errors.New("exit requested")

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Open the interactive job matcher panel",
	Run: func(cmd *cobra.Command, _ []string) {
		runPanel(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(panelCmd)

	panelCmd.Flags().StringP("exclude-file", "e", "", "file with already submitted jobs. Default is unset.")
	panelCmd.Flags().String("page-url", "", "page to scrape when no browser is used")

	viper.BindPFlag("exclude-file", panelCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("page-url", panelCmd.Flags().Lookup("page-url"))
}

func runPanel(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger("panel")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the panel")

	rt, err := buildRuntime(ctx, config, logger)
	if err != nil {
		logger.Fatal("building components", zap.Error(err))
	}
	defer rt.close()

	p := newPanel(rt.coordinator, rt.host, config, os.Stdout, logger)
	p.page = rt.page

	var dirty atomic.Bool
	stop, err := watchSession(rt.cookies, logger, func() { dirty.Store(true) })
	if err != nil {
		logger.Warn("session changes will not be observed", zap.Error(err))
		stop = func() {}
	}
	defer stop()

	p.checkAuth(ctx)

	for {
		if dirty.Swap(false) {
			p.checkAuth(ctx)
		}

		p.render()

		sel := promptui.Select{
			Label: "Career Compass",
			Items: p.items(),
		}

		_, action, err := sel.Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}

		if err := p.handle(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				break
			}
			logger.Error("panel action failed", zap.String("action", action), zap.Error(err))
		}
	}

	rt.coordinator.Wait()
}

type dispatcher interface {
	Handle(ctx context.Context, msg messaging.Message) (messaging.Response, error)
}

type panelResume struct {
	data []byte
	name string
}

// panel mirrors the state of the side panel UI.
type panel struct {
	dispatcher  dispatcher
	host        tabs.Host
	page        *tabs.PageHost
	loginURL    string
	excludeFile string
	filters     []filtering.Filter
	out         io.Writer
	logger      *zap.Logger

	checked       bool
	authenticated bool
	email         string
	status        string
	jobs          []messaging.Job
	resume        *panelResume
	result        json.RawMessage
}

func newPanel(d dispatcher, host tabs.Host, config *Config, out io.Writer, logger *zap.Logger) *panel {
	excludeFile := strings.TrimSpace(config.ExcludeFile)

	filters := filtering.Default(excludeFile, filtering.DefaultLimit)
	if excludeFile == "" {
		filtering.DisableByName(filters, "exclude_file", "exclude-file is not set")
	}

	return &panel{
		dispatcher:  d,
		host:        host,
		loginURL:    config.LoginURL,
		excludeFile: excludeFile,
		filters:     filters,
		out:         out,
		logger:      logger,
		status:      StatusChecking,
	}
}

func (p *panel) items() []string {
	if !p.authenticated {
		return []string{PromptOpenLogin, PromptCheckAgain, PromptQuit}
	}

	items := []string{PromptScrape, PromptUpload, PromptFetchResume, PromptSend}
	if p.page != nil {
		items = append(items, PromptPage)
	}
	return append(items, PromptQuit)
}

func (p *panel) handle(ctx context.Context, action string) error {
	switch action {
	case PromptOpenLogin:
		return p.openLogin(ctx)
	case PromptCheckAgain:
		p.checkAuth(ctx)
	case PromptScrape:
		p.scrape(ctx)
	case PromptUpload:
		path, err := (&promptui.Prompt{Label: "Path to PDF", Validate: fileExists}).Run()
		if err != nil {
			return err
		}
		p.upload(strings.TrimSpace(path))
	case PromptFetchResume:
		p.fetchResume(ctx)
	case PromptSend:
		p.send(ctx)
	case PromptPage:
		raw, err := (&promptui.Prompt{Label: "Page URL", Validate: absoluteURL}).Run()
		if err != nil {
			return err
		}
		p.page.Navigate(strings.TrimSpace(raw))
		p.status = StatusReady
	case PromptQuit:
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	return nil
}

func (p *panel) checkAuth(ctx context.Context) {
	resp, err := p.dispatcher.Handle(ctx, messaging.Message{Action: messaging.CheckAuth})
	status, ok := resp.(messaging.AuthStatus)
	if err != nil || !ok {
		status = messaging.AuthStatus{}
	}

	p.checked = true
	p.authenticated = status.Authenticated
	p.email = status.Email
	if p.authenticated {
		p.status = StatusReady
	} else {
		p.status = StatusLoginRequired
	}
}

func (p *panel) openLogin(ctx context.Context) error {
	target := strings.TrimRight(p.loginURL, "/") + "/login"
	if err := p.host.Open(ctx, target); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}
	return nil
}

func (p *panel) scrape(ctx context.Context) {
	p.status = "Scraping…"

	resp, err := p.dispatcher.Handle(ctx, messaging.Message{Action: messaging.StartJobAnalysis})
	list, ok := resp.(messaging.JobList)
	if err != nil || !ok || len(list.Jobs) == 0 {
		p.status = "No jobs found"
		return
	}

	p.jobs = list.Jobs
	p.status = fmt.Sprintf("Found %d job(s)", len(list.Jobs))
}

func (p *panel) upload(path string) {
	data, err := os.ReadFile(path)
	if err != nil || http.DetectContentType(data) != "application/pdf" {
		p.status = "Please upload a PDF"
		return
	}

	p.resume = &panelResume{data: data, name: filepath.Base(path)}
	p.status = "Uploaded: " + p.resume.name
}

func (p *panel) fetchResume(ctx context.Context) {
	resp, err := p.dispatcher.Handle(ctx, messaging.Message{Action: messaging.FetchResume})
	result, ok := resp.(messaging.ResumeResult)
	if err != nil || !ok || !result.Success {
		p.status = "No stored resume"
		if ok && result.Error != "" {
			p.status = "Error: " + result.Error
		}
		return
	}

	p.resume = &panelResume{data: result.ResumeBuffer, name: result.ResumeName}
	p.status = "Loaded: " + result.DisplayName
}

func (p *panel) send(ctx context.Context) {
	if p.resume == nil || len(p.jobs) == 0 {
		p.status = StatusNeedInputs
		return
	}

	selected, err := filtering.Run(ctx, p.logger, p.filters, p.jobs)
	if err != nil {
		p.status = "Error: " + err.Error()
		return
	}
	if len(selected) == 0 {
		p.status = "All scraped jobs were already submitted"
		return
	}

	p.status = "Sending…"

	resp, err := p.dispatcher.Handle(ctx, messaging.Message{
		Action:       messaging.SendToBackend,
		ResumeBuffer: p.resume.data,
		ResumeName:   p.resume.name,
		URLs:         messaging.URLs(selected, 0),
	})
	result, ok := resp.(messaging.BackendResult)
	if err != nil || !ok || !result.Success {
		reason := result.Error
		if err != nil {
			reason = err.Error()
		}
		p.status = "Error: " + reason
		p.authenticated = false
		return
	}

	p.result = result.Data
	p.status = "Done"

	if p.excludeFile != "" {
		if err := filtering.RecordSubmitted(p.excludeFile, selected, time.Now()); err != nil {
			p.logger.Warn("recording submitted jobs", zap.String("path", p.excludeFile), zap.Error(err))
		}
	}
}

func (p *panel) render() {
	if !p.checked {
		fmt.Fprintln(p.out, "Loading…")
		return
	}

	if !p.authenticated {
		fmt.Fprintln(p.out, "\nLogin Required")
		fmt.Fprintln(p.out, "Please log in on Career Compass.")
		fmt.Fprintf(p.out, "Status: %s\n", p.status)
		return
	}

	fmt.Fprintln(p.out, "\nAI Job Matcher")
	if p.email != "" {
		fmt.Fprintf(p.out, "Logged in as: %s\n", p.email)
	}
	if p.resume != nil {
		fmt.Fprintf(p.out, "Resume: %s\n", p.resume.name)
	}
	fmt.Fprintf(p.out, "Status: %s\n", p.status)
	fmt.Fprintf(p.out, "Filters: %s\n", describeFilters(p.filters))

	if len(p.jobs) > 0 {
		fmt.Fprintln(p.out, "\nScraped Jobs:")
		for _, job := range p.jobs {
			fmt.Fprintf(p.out, "  %d. %s / %s / %s\n", job.ID, job.Title, job.Company, job.URL)
		}
	}

	if len(p.result) > 0 {
		fmt.Fprintln(p.out, "\nAI Results:")
		pretty, err := json.MarshalIndent(p.result, "", "  ")
		if err != nil {
			pretty = p.result
		}
		fmt.Fprintln(p.out, string(pretty))
	}
}

func describeFilters(steps []filtering.Filter) string {
	parts := make([]string, 0, len(steps))
	for _, status := range filtering.Describe(steps) {
		part := status.Name
		if !status.Enabled {
			part += " (off: " + status.Reason + ")"
		} else if len(status.Details) > 0 {
			keys := make([]string, 0, len(status.Details))
			for key := range status.Details {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			details := make([]string, 0, len(keys))
			for _, key := range keys {
				details = append(details, key+"="+status.Details[key])
			}
			part += " (" + strings.Join(details, ", ") + ")"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func fileExists(path string) error {
	info, err := os.Stat(strings.TrimSpace(path))
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func absoluteURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return errors.New("url must have scheme and host")
	}
	return nil
}

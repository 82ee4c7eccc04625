package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spigell/career-compass/internal/auth"
	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/messaging"
	"github.com/spigell/career-compass/internal/resume"
	"github.com/spigell/career-compass/internal/scraper"
	"github.com/spigell/career-compass/internal/session"
	"github.com/spigell/career-compass/internal/tabs"
	"go.uber.org/zap"
)

type fakeVerifier struct {
	authenticated atomic.Bool
	calls         atomic.Int32
}

func (f *fakeVerifier) Check(context.Context) auth.Identity {
	f.calls.Add(1)
	if !f.authenticated.Load() {
		return auth.Identity{}
	}
	return auth.Identity{Authenticated: true, Email: "me@example.com"}
}

type fakeFetcher struct {
	artifact *resume.Artifact
	calls    atomic.Int32
}

func (f *fakeFetcher) Fetch(context.Context) *resume.Artifact {
	f.calls.Add(1)
	return f.artifact
}

type fakeMatcher struct {
	data  backend.MatchResult
	err   error
	calls atomic.Int32

	mu       sync.Mutex
	lastName string
	lastURLs []string
	lastPDF  []byte
}

func (f *fakeMatcher) MatchJobs(_ context.Context, pdf []byte, name string, urls []string) (backend.MatchResult, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastPDF, f.lastName, f.lastURLs = pdf, name, urls
	f.mu.Unlock()
	return f.data, f.err
}

type fakeTab struct{ html string }

func (t fakeTab) ID() string { return "tab-1" }
func (t fakeTab) URL() string { return "https://internshala.com/internships" }
func (t fakeTab) HTML(context.Context) (string, error) { return t.html, nil }

type fakeHost struct {
	tab     tabs.Tab
	err     error
	openErr error

	mu     sync.Mutex
	opened []string
}

func (h *fakeHost) Active(context.Context) (tabs.Tab, error) {
	return h.tab, h.err
}

func (h *fakeHost) Open(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, url)
	return h.openErr
}

type fakeContent struct {
	resp  *messaging.JobList
	err   error
	panic bool
}

func (f *fakeContent) HandleMessage(context.Context, scraper.Document, messaging.Message) (*messaging.JobList, error) {
	if f.panic {
		panic("content script crashed")
	}
	return f.resp, f.err
}

type fixture struct {
	verifier *fakeVerifier
	fetcher  *fakeFetcher
	matcher  *fakeMatcher
	host     *fakeHost
	content  *fakeContent
	c        *Coordinator
}

func newFixture(authenticated bool) *fixture {
	f := &fixture{
		verifier: &fakeVerifier{},
		fetcher:  &fakeFetcher{},
		matcher:  &fakeMatcher{},
		host:     &fakeHost{},
		content:  &fakeContent{},
	}
	f.verifier.authenticated.Store(authenticated)

	f.c = New(Deps{
		Verifier: f.verifier,
		Resumes:  f.fetcher,
		Matcher:  f.matcher,
		Tabs:     f.host,
		Content:  f.content,
	}, "http://localhost:5173", zap.NewNop())

	return f
}

func handle(t *testing.T, c *Coordinator, msg messaging.Message) messaging.Response {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Handle(ctx, msg)
	if err != nil {
		t.Fatalf("action %s was never answered: %v", msg.Action, err)
	}
	return resp
}

func validSend() messaging.Message {
	return messaging.Message{
		Action:       messaging.SendToBackend,
		ResumeBuffer: messaging.Buffer("%PDF-1.4"),
		ResumeName:   "Resume.pdf",
		URLs:         []string{"https://internshala.com/a", "https://internshala.com/b"},
	}
}

func TestCheckAuth(t *testing.T) {
	f := newFixture(true)
	resp := handle(t, f.c, messaging.Message{Action: messaging.CheckAuth}).(messaging.AuthStatus)
	if !resp.Authenticated || resp.Email != "me@example.com" {
		t.Fatalf("unexpected status: %+v", resp)
	}

	f = newFixture(false)
	resp = handle(t, f.c, messaging.Message{Action: messaging.CheckAuth}).(messaging.AuthStatus)
	if resp.Authenticated || resp.Email != "" {
		t.Fatalf("unexpected status: %+v", resp)
	}
}

func TestEnsureAuth(t *testing.T) {
	f := newFixture(false)
	resp := handle(t, f.c, messaging.Message{Action: messaging.EnsureAuth}).(messaging.Ack)
	if !resp.OK {
		t.Fatalf("expected ok ack")
	}
	if len(f.host.opened) != 1 || f.host.opened[0] != "http://localhost:5173" {
		t.Fatalf("expected login page to be opened, got %v", f.host.opened)
	}

	f = newFixture(true)
	handle(t, f.c, messaging.Message{Action: messaging.EnsureAuth})
	if len(f.host.opened) != 0 {
		t.Fatalf("did not expect login page for a signed-in user, got %v", f.host.opened)
	}

	f = newFixture(false)
	f.host.openErr = errors.New("browser gone")
	if resp := handle(t, f.c, messaging.Message{Action: messaging.EnsureAuth}).(messaging.Ack); !resp.OK {
		t.Fatalf("expected ok ack even when the tab could not be opened")
	}
}

func TestStartJobAnalysis(t *testing.T) {
	jobs := []messaging.Job{{ID: 0, Title: "Go Intern", Company: "Acme", URL: "https://internshala.com/a"}}

	tests := []struct {
		name    string
		tab     tabs.Tab
		hostErr error
		content *fakeContent
		expect  int
	}{
		{name: "no active tab", content: &fakeContent{}, expect: 0},
		{name: "host error", hostErr: errors.New("no window"), content: &fakeContent{}, expect: 0},
		{name: "jobs relayed", tab: fakeTab{}, content: &fakeContent{resp: &messaging.JobList{Jobs: jobs}}, expect: 1},
		{name: "no response", tab: fakeTab{}, content: &fakeContent{}, expect: 0},
		{name: "content error", tab: fakeTab{}, content: &fakeContent{err: errors.New("detached")}, expect: 0},
		{name: "content panic", tab: fakeTab{}, content: &fakeContent{panic: true}, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.host.tab = tt.tab
			f.host.err = tt.hostErr
			*f.content = *tt.content

			resp := handle(t, f.c, messaging.Message{Action: messaging.StartJobAnalysis}).(messaging.JobList)
			if resp.Jobs == nil {
				t.Fatalf("expected non-nil job list")
			}
			if len(resp.Jobs) != tt.expect {
				t.Fatalf("expected %d jobs, got %d", tt.expect, len(resp.Jobs))
			}
			if tt.expect > 0 && resp.Jobs[0] != jobs[0] {
				t.Fatalf("expected jobs to be relayed verbatim, got %+v", resp.Jobs[0])
			}
		})
	}
}

func TestStartJobAnalysisWithScraper(t *testing.T) {
	f := newFixture(false)

	s, err := scraper.New(scraper.Selectors{}, nil)
	if err != nil {
		t.Fatalf("scraper: %v", err)
	}
	f.c.deps.Content = s
	f.host.tab = fakeTab{html: `<div class="individual_internship"><h3 class="job-internship-name"><a class="job-title-href" href="/i/1">Go</a></h3></div>`}

	resp := handle(t, f.c, messaging.Message{Action: messaging.StartJobAnalysis}).(messaging.JobList)
	if len(resp.Jobs) != 1 || resp.Jobs[0].URL != "https://internshala.com/i/1" || resp.Jobs[0].Company != scraper.NoCompany {
		t.Fatalf("unexpected jobs: %+v", resp.Jobs)
	}
}

func TestFetchResume(t *testing.T) {
	f := newFixture(false)
	f.fetcher.artifact = &resume.Artifact{Bytes: []byte("%PDF"), StoredName: "Resume.pdf", DisplayName: "Resume (PDF)"}

	resp := handle(t, f.c, messaging.Message{Action: messaging.FetchResume}).(messaging.ResumeResult)
	if resp.Success || resp.Error != messaging.LoginRequired {
		t.Fatalf("expected login required, got %+v", resp)
	}
	if f.fetcher.calls.Load() != 0 {
		t.Fatalf("resume must not be fetched without a session")
	}

	f.verifier.authenticated.Store(true)
	resp = handle(t, f.c, messaging.Message{Action: messaging.FetchResume}).(messaging.ResumeResult)
	if !resp.Success || string(resp.ResumeBuffer) != "%PDF" || resp.ResumeName != "Resume.pdf" || resp.DisplayName != "Resume (PDF)" {
		t.Fatalf("unexpected resume result: %+v", resp)
	}

	f.fetcher.artifact = nil
	resp = handle(t, f.c, messaging.Message{Action: messaging.FetchResume}).(messaging.ResumeResult)
	if resp.Success || resp.Error != "" {
		t.Fatalf("expected plain failure, got %+v", resp)
	}
}

func TestSendToBackendRequiresLogin(t *testing.T) {
	f := newFixture(false)

	resp := handle(t, f.c, validSend()).(messaging.BackendResult)
	if resp.Success || resp.Error != messaging.LoginRequired {
		t.Fatalf("unexpected result: %+v", resp)
	}
	if f.matcher.calls.Load() != 0 {
		t.Fatalf("matching service must not be called, got %d calls", f.matcher.calls.Load())
	}
}

// The gate is checked against the real identity and matching clients so the
// call count is taken on the network layer.
func TestSendToBackendGateOnNetwork(t *testing.T) {
	var identityCalls, matchCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lookup":
			identityCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		case "/match":
			matchCalls.Add(1)
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := backend.New(backend.Endpoints{
		IdentityURL: server.URL + "/lookup",
		MatchURL:    server.URL + "/match",
	}, "key", zap.NewNop())

	for _, cookie := range []string{"", "expired-token"} {
		c := New(Deps{
			Verifier: auth.NewVerifier(session.NewStatic(cookie), client, nil),
			Matcher:  client,
			Tabs:     &fakeHost{},
			Content:  &fakeContent{},
			Resumes:  &fakeFetcher{},
		}, "", nil)

		resp := handle(t, c, validSend()).(messaging.BackendResult)
		if resp.Success || resp.Error != messaging.LoginRequired {
			t.Fatalf("unexpected result for cookie %q: %+v", cookie, resp)
		}
	}

	if matchCalls.Load() != 0 {
		t.Fatalf("expected no matching calls, got %d", matchCalls.Load())
	}
	if identityCalls.Load() != 1 {
		t.Fatalf("expected one identity call for the present cookie, got %d", identityCalls.Load())
	}
}

func TestSendToBackend(t *testing.T) {
	f := newFixture(true)
	f.matcher.data = backend.MatchResult(`{"profile":{"skills":["go"]},"matches":[]}`)

	msg := validSend()
	resp := handle(t, f.c, msg).(messaging.BackendResult)
	if !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp)
	}
	if string(resp.Data) != string(f.matcher.data) {
		t.Fatalf("expected data to be passed through, got %s", resp.Data)
	}
	if f.matcher.lastName != "Resume.pdf" || string(f.matcher.lastPDF) != "%PDF-1.4" || len(f.matcher.lastURLs) != 2 {
		t.Fatalf("unexpected submission: %q %q %v", f.matcher.lastName, f.matcher.lastPDF, f.matcher.lastURLs)
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(encoded), `"data":{"profile"`) {
		t.Fatalf("unexpected encoding: %s", encoded)
	}
}

func TestSendToBackendFailures(t *testing.T) {
	f := newFixture(true)
	f.matcher.err = &backend.StatusError{StatusCode: http.StatusBadGateway, Body: "upstream down"}

	resp := handle(t, f.c, validSend()).(messaging.BackendResult)
	if resp.Success || resp.Error != "HTTP 502: upstream down" {
		t.Fatalf("unexpected result: %+v", resp)
	}

	invalid := []messaging.Message{
		{Action: messaging.SendToBackend, ResumeName: "cv.pdf"},
		{Action: messaging.SendToBackend, ResumeBuffer: messaging.Buffer("x")},
	}

	calls := f.matcher.calls.Load()
	for _, msg := range invalid {
		resp := handle(t, f.c, msg).(messaging.BackendResult)
		if resp.Success || !strings.HasPrefix(resp.Error, "invalid request") {
			t.Fatalf("expected validation failure, got %+v", resp)
		}
	}
	if f.matcher.calls.Load() != calls {
		t.Fatalf("invalid requests must not reach the matching service")
	}
}

func TestSendToBackendForwardsScrapedLinks(t *testing.T) {
	f := newFixture(true)
	f.matcher.data = backend.MatchResult(`{}`)

	s, err := scraper.New(scraper.Selectors{}, nil)
	if err != nil {
		t.Fatalf("scraper: %v", err)
	}
	f.c.deps.Content = s
	f.host.tab = fakeTab{html: `
		<div class="individual_internship"><h3 class="job-internship-name"><a class="job-title-href" href="/internship/a%zz">Broken</a></h3></div>
		<div class="individual_internship"><h3 class="job-internship-name"><a class="job-title-href" href="/internship/b">Fine</a></h3></div>`}

	list := handle(t, f.c, messaging.Message{Action: messaging.StartJobAnalysis}).(messaging.JobList)
	if len(list.Jobs) != 2 || list.Jobs[0].URL != "https://internshala.com/internship/a%zz" {
		t.Fatalf("unexpected jobs: %+v", list.Jobs)
	}

	msg := validSend()
	msg.URLs = messaging.URLs(list.Jobs, 3)

	resp := handle(t, f.c, msg).(messaging.BackendResult)
	if !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp)
	}
	if f.matcher.calls.Load() != 1 {
		t.Fatalf("expected one matching call, got %d", f.matcher.calls.Load())
	}
	if strings.Join(f.matcher.lastURLs, ",") != "https://internshala.com/internship/a%zz,https://internshala.com/internship/b" {
		t.Fatalf("expected links to be forwarded as scraped, got %v", f.matcher.lastURLs)
	}
}

func TestSendToBackendRechecksSession(t *testing.T) {
	f := newFixture(true)
	f.matcher.data = backend.MatchResult(`{}`)

	if resp := handle(t, f.c, validSend()).(messaging.BackendResult); !resp.Success {
		t.Fatalf("unexpected failure: %+v", resp)
	}

	f.verifier.authenticated.Store(false)
	if resp := handle(t, f.c, validSend()).(messaging.BackendResult); resp.Error != messaging.LoginRequired {
		t.Fatalf("expected revoked session to be observed, got %+v", resp)
	}

	if f.verifier.calls.Load() != 2 {
		t.Fatalf("expected a verification per call, got %d", f.verifier.calls.Load())
	}
}

func TestUnsupportedAction(t *testing.T) {
	f := newFixture(true)

	resp := handle(t, f.c, messaging.Message{Action: "DELETE_EVERYTHING"}).(messaging.Unsupported)
	if resp.Success || resp.Error != "unsupported action: DELETE_EVERYTHING" {
		t.Fatalf("unexpected reply: %+v", resp)
	}
}

func TestDispatchDoesNotBlock(t *testing.T) {
	f := newFixture(true)
	f.matcher.data = backend.MatchResult(`{}`)

	actions := []messaging.Action{
		messaging.CheckAuth,
		messaging.EnsureAuth,
		messaging.StartJobAnalysis,
		messaging.FetchResume,
		messaging.SendToBackend,
		"UNKNOWN",
	}

	var futures []*messaging.Future
	for i := 0; i < 20; i++ {
		for _, action := range actions {
			msg := validSend()
			msg.Action = action
			futures = append(futures, f.c.Dispatch(context.Background(), msg))
		}
	}

	f.c.Wait()

	for _, future := range futures {
		if !future.Resolved() {
			t.Fatalf("expected every future to be resolved")
		}
	}
}

func TestDispatchIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(true)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	future := f.c.Dispatch(ctx, messaging.Message{Action: messaging.CheckAuth})
	f.c.Wait()

	resp, err := future.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.(messaging.AuthStatus).Authenticated {
		t.Fatalf("expected the action to run to completion")
	}
}

// Package coordinator routes named actions from the panel to the components
// that serve them. It is the only place where the auth gate is enforced and
// it owns no state beyond the lifetime of a single request.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spigell/career-compass/internal/auth"
	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/logger"
	"github.com/spigell/career-compass/internal/messaging"
	"github.com/spigell/career-compass/internal/resume"
	"github.com/spigell/career-compass/internal/scraper"
	"github.com/spigell/career-compass/internal/session"
	"github.com/spigell/career-compass/internal/tabs"
	"go.uber.org/zap"
)

const DefaultLoginURL = session.DefaultOrigin

type Verifier interface {
	Check(ctx context.Context) auth.Identity
}

type ResumeFetcher interface {
	Fetch(ctx context.Context) *resume.Artifact
}

type Matcher interface {
	MatchJobs(ctx context.Context, resume []byte, resumeName string, urls []string) (backend.MatchResult, error)
}

// ContentScript answers requests sent into a tab's content context.
type ContentScript interface {
	HandleMessage(ctx context.Context, doc scraper.Document, msg messaging.Message) (*messaging.JobList, error)
}

// Deps are the components the coordinator delegates to.
type Deps struct {
	Verifier Verifier
	Resumes  ResumeFetcher
	Matcher  Matcher
	Tabs     tabs.Host
	Content  ContentScript
}

type Coordinator struct {
	deps     Deps
	loginURL string
	validate *validator.Validate
	logger   *zap.Logger

	inflight sync.WaitGroup
}

func New(deps Deps, loginURL string, log *zap.Logger) *Coordinator {
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Coordinator{
		deps:     deps,
		loginURL: loginURL,
		validate: validator.New(),
		logger:   log,
	}
}

// Dispatch starts handling msg and returns immediately. The returned future
// is resolved exactly once on every path, including handler panics.
//
// Cancelling ctx does not abort the action; it runs to completion and the
// caller is free to stop waiting.
func (c *Coordinator) Dispatch(ctx context.Context, msg messaging.Message) *messaging.Future {
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}

	future := messaging.NewFuture(msg.Action)
	reqLogger := logger.WithFields(c.logger, logger.RequestFields(string(msg.Action), msg.RequestID)...)
	ctx = context.WithoutCancel(ctx)

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			reqLogger.Error("action handler panicked", zap.Any("panic", r))
			if !future.Resolved() {
				future.Resolve(messaging.Failure(msg.Action, fmt.Sprint(r)))
			}
		}()

		reqLogger.Debug("handling action")

		resp := c.route(ctx, reqLogger, msg)
		if resp == nil {
			reqLogger.DPanic("action handler returned no response")
			resp = messaging.Failure(msg.Action, "no response")
		}

		future.Resolve(resp)
	}()

	return future
}

// Handle dispatches msg and waits for its reply.
func (c *Coordinator) Handle(ctx context.Context, msg messaging.Message) (messaging.Response, error) {
	return c.Dispatch(ctx, msg).Wait(ctx)
}

// Wait blocks until every dispatched action has finished.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) route(ctx context.Context, log *zap.Logger, msg messaging.Message) messaging.Response {
	switch msg.Action {
	case messaging.CheckAuth:
		return c.checkAuth(ctx)
	case messaging.EnsureAuth:
		return c.ensureAuth(ctx, log)
	case messaging.StartJobAnalysis:
		return c.startJobAnalysis(ctx, log)
	case messaging.FetchResume:
		return c.fetchResume(ctx, log)
	case messaging.SendToBackend:
		return c.sendToBackend(ctx, log, msg)
	default:
		log.Warn("unsupported action")
		return messaging.Failure(msg.Action, "")
	}
}

// authorized re-verifies the session right before a privileged call.
func (c *Coordinator) authorized(ctx context.Context, log *zap.Logger) bool {
	if c.deps.Verifier.Check(ctx).Authenticated {
		return true
	}

	log.Info("rejecting action", zap.String("reason", "not authenticated"))
	return false
}

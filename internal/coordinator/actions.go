package coordinator

import (
	"context"
	"fmt"

	"github.com/spigell/career-compass/internal/messaging"
	"go.uber.org/zap"
)

func (c *Coordinator) checkAuth(ctx context.Context) messaging.Response {
	identity := c.deps.Verifier.Check(ctx)

	return messaging.AuthStatus{
		Authenticated: identity.Authenticated,
		Email:         identity.Email,
	}
}

func (c *Coordinator) ensureAuth(ctx context.Context, log *zap.Logger) messaging.Response {
	if !c.deps.Verifier.Check(ctx).Authenticated {
		if err := c.deps.Tabs.Open(ctx, c.loginURL); err != nil {
			log.Warn("opening login page", zap.String("url", c.loginURL), zap.Error(err))
		}
	}

	return messaging.Ack{OK: true}
}

func (c *Coordinator) startJobAnalysis(ctx context.Context, log *zap.Logger) messaging.Response {
	tab, err := c.deps.Tabs.Active(ctx)
	if err != nil {
		log.Warn("looking up active tab", zap.Error(err))
		return messaging.NewJobList(nil)
	}
	if tab == nil {
		log.Info("no active tab")
		return messaging.NewJobList(nil)
	}

	resp, err := c.deps.Content.HandleMessage(ctx, tab, messaging.Message{Action: messaging.ScrapeJobs})
	if err != nil {
		log.Warn("scraping active tab", zap.String("tab_id", tab.ID()), zap.String("url", tab.URL()), zap.Error(err))
		return messaging.NewJobList(nil)
	}
	if resp == nil {
		return messaging.NewJobList(nil)
	}

	log.Info("jobs scraped", zap.String("url", tab.URL()), zap.Int("count", len(resp.Jobs)))

	return messaging.NewJobList(resp.Jobs)
}

func (c *Coordinator) fetchResume(ctx context.Context, log *zap.Logger) messaging.Response {
	if !c.authorized(ctx, log) {
		return messaging.ResumeResult{Error: messaging.LoginRequired}
	}

	artifact := c.deps.Resumes.Fetch(ctx)
	if artifact == nil {
		return messaging.ResumeResult{}
	}

	return messaging.ResumeResult{
		Success:      true,
		ResumeBuffer: messaging.Buffer(artifact.Bytes),
		ResumeName:   artifact.StoredName,
		DisplayName:  artifact.DisplayName,
	}
}

func (c *Coordinator) sendToBackend(ctx context.Context, log *zap.Logger, msg messaging.Message) messaging.Response {
	if !c.authorized(ctx, log) {
		return messaging.BackendResult{Error: messaging.LoginRequired}
	}

	if err := c.validate.Struct(msg); err != nil {
		return messaging.BackendResult{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	data, err := c.deps.Matcher.MatchJobs(ctx, msg.ResumeBuffer, msg.ResumeName, msg.URLs)
	if err != nil {
		log.Error("SEND_TO_BACKEND failed", zap.Error(err))
		return messaging.BackendResult{Error: err.Error()}
	}

	log.Info("matching finished", zap.Int("urls", len(msg.URLs)))

	return messaging.BackendResult{Success: true, Data: data}
}

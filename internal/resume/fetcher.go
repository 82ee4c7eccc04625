// Package resume retrieves the resume the signed-in user uploaded earlier.
package resume

import (
	"context"

	"github.com/spigell/career-compass/internal/auth"
	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/session"
	"go.uber.org/zap"
)

// Artifact is a decoded resume held in memory for one request.
type Artifact struct {
	Bytes       []byte
	StoredName  string
	DisplayName string
}

type resumeStore interface {
	FirstResume(ctx context.Context, userID string) (*backend.StoredResume, error)
}

type Fetcher struct {
	store   session.Store
	resumes resumeStore
	logger  *zap.Logger
}

func NewFetcher(store session.Store, resumes resumeStore, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		store:   store,
		resumes: resumes,
		logger:  logger,
	}
}

// Fetch returns the first stored resume of the session owner, or nil when
// there is no session, no resume, or any step fails. Failures are logged.
func (f *Fetcher) Fetch(ctx context.Context) *Artifact {
	cookie, err := f.store.Get(ctx)
	if err != nil {
		f.logger.Warn("reading session cookie", zap.Error(err))
		return nil
	}
	if cookie == nil {
		return nil
	}

	userID, err := auth.Subject(cookie.Value)
	if err != nil {
		f.logger.Warn("extracting user id from token", zap.Error(err))
		return nil
	}

	stored, err := f.resumes.FirstResume(ctx, userID)
	if err != nil {
		f.logger.Error("fetching resume from backend", zap.Error(err))
		return nil
	}

	data, err := stored.Decode()
	if err != nil {
		f.logger.Error("decoding resume content",
			zap.String("resume_name", stored.Name),
			zap.Error(err),
		)
		return nil
	}

	artifact := &Artifact{
		Bytes:       data,
		StoredName:  stored.FileName(),
		DisplayName: stored.Name,
	}

	f.logger.Debug("resume fetched",
		zap.String("stored_name", artifact.StoredName),
		zap.Int("size", len(artifact.Bytes)),
	)

	return artifact
}

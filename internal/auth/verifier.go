// Package auth decides whether the current session cookie belongs to a
// signed-in user. Every check re-reads the cookie and asks the identity
// service again; nothing is cached between calls.
package auth

import (
	"context"

	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/session"
	"github.com/spigell/career-compass/internal/utils"
	"go.uber.org/zap"
)

// UnknownEmail is reported when the identity service knows the token but
// returns no email for it.
const UnknownEmail = "Unknown"

// Identity is the result of a single authentication check.
type Identity struct {
	Authenticated bool
	Email         string
}

type accountLookup interface {
	LookupAccount(ctx context.Context, idToken string) (*backend.AccountLookup, error)
}

type Verifier struct {
	store    session.Store
	accounts accountLookup
	logger   *zap.Logger
}

func NewVerifier(store session.Store, accounts accountLookup, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Verifier{
		store:    store,
		accounts: accounts,
		logger:   logger,
	}
}

// Check verifies the session cookie against the identity service.
// A missing cookie, a rejected token and any failure along the way all
// result in an unauthenticated identity.
func (v *Verifier) Check(ctx context.Context) Identity {
	cookie, err := v.store.Get(ctx)
	if err != nil {
		v.logger.Warn("reading session cookie", zap.Error(err))
		return Identity{}
	}
	if cookie == nil {
		v.logger.Debug("no session cookie")
		return Identity{}
	}

	v.logger.Debug("verifying session", zap.String("token", utils.MaskToken(cookie.Value)))

	lookup, err := v.accounts.LookupAccount(ctx, cookie.Value)
	if err != nil {
		v.logger.Info("token verification failed", zap.Error(err))
		return Identity{}
	}

	email := UnknownEmail
	if account := lookup.First(); account != nil && account.Email != "" {
		email = account.Email
	}

	return Identity{Authenticated: true, Email: email}
}

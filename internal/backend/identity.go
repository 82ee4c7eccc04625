package backend

import (
	"context"
	"errors"
	"net/url"

	"github.com/mitchellh/mapstructure"
)

// Account is a user record returned by the identity lookup.
type Account struct {
	LocalID       string `mapstructure:"localId"`
	Email         string `mapstructure:"email"`
	EmailVerified bool   `mapstructure:"emailVerified"`
	DisplayName   string `mapstructure:"displayName"`

	Raw map[string]any `mapstructure:"-"`
}

// AccountLookup is the identity service reply.
type AccountLookup struct {
	Accounts []*Account
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []map[string]any `json:"users"`
}

// LookupAccount introspects idToken with the identity service.
// A non-success status is returned as *StatusError.
func (c *Client) LookupAccount(ctx context.Context, idToken string) (*AccountLookup, error) {
	if idToken == "" {
		return nil, errors.New("id token is required")
	}

	q := url.Values{}
	q.Set("key", c.apiKey)

	var resp lookupResponse
	if err := c.postJSON(ctx, c.endpoints.IdentityURL, q, lookupRequest{IDToken: idToken}, &resp); err != nil {
		return nil, err
	}

	lookup := &AccountLookup{}
	for _, raw := range resp.Users {
		var account Account
		if err := mapstructure.Decode(raw, &account); err != nil {
			return nil, err
		}
		account.Raw = raw
		lookup.Accounts = append(lookup.Accounts, &account)
	}

	return lookup, nil
}

// First returns the first account or nil.
func (l *AccountLookup) First() *Account {
	if l == nil || len(l.Accounts) == 0 {
		return nil
	}
	return l.Accounts[0]
}

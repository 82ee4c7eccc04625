// Package backend talks to the remote services the companion depends on:
// the identity lookup service, the resume store and the job matching service.
package backend

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1/accounts:lookup"
	DefaultResumeURL   = "https://sound-guiding-mammoth.ngrok-free.app/api/firebase/resumes"
	DefaultMatchURL    = "https://sound-guiding-mammoth.ngrok-free.app/api/match-jobs"

	userAgent = "spigell/career-compass"
)

// Endpoints holds the URLs of the remote services.
type Endpoints struct {
	IdentityURL string `mapstructure:"identity-url"`
	ResumeURL   string `mapstructure:"resume-url"`
	MatchURL    string `mapstructure:"match-url"`
}

type Client struct {
	endpoints Endpoints
	apiKey    string
	logger    *zap.Logger
	validate  *validator.Validate

	HTTPClient *http.Client
	UserAgent  string
}

// New returns a client for the given endpoints. apiKey is the identity
// service key sent as the "key" query parameter.
func New(endpoints Endpoints, apiKey string, logger *zap.Logger) *Client {
	if endpoints.IdentityURL == "" {
		endpoints.IdentityURL = DefaultIdentityURL
	}
	if endpoints.ResumeURL == "" {
		endpoints.ResumeURL = DefaultResumeURL
	}
	if endpoints.MatchURL == "" {
		endpoints.MatchURL = DefaultMatchURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoints: endpoints,
		apiKey:    apiKey,
		logger:    logger,
		validate:  validator.New(),
		// No explicit timeout: requests are bounded by the caller's context
		// and the transport defaults.
		HTTPClient: &http.Client{},
		UserAgent:  userAgent,
	}
}

// Package messaging defines the named actions exchanged between the panel,
// the coordinator and page content contexts, together with their typed
// request and response shapes.
package messaging

// Action names a request understood by the coordinator or a content context.
type Action string

const (
	CheckAuth        Action = "CHECK_AUTH"
	EnsureAuth       Action = "ENSURE_AUTH"
	StartJobAnalysis Action = "START_JOB_ANALYSIS"
	FetchResume      Action = "FETCH_RESUME"
	SendToBackend    Action = "SEND_TO_BACKEND"

	// ScrapeJobs is only sent from the coordinator into a tab's content context.
	ScrapeJobs Action = "SCRAPE_JOBS"
)

// LoginRequired is the error returned for gated actions without a valid session.
const LoginRequired = "Login required"

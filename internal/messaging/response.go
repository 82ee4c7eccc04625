package messaging

import (
	"encoding/json"
	"fmt"
)

// Response is implemented by every reply the coordinator can produce.
type Response interface {
	response()
}

// AuthStatus answers CHECK_AUTH.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
}

// Ack answers ENSURE_AUTH.
type Ack struct {
	OK bool `json:"ok"`
}

// JobList answers START_JOB_ANALYSIS and SCRAPE_JOBS.
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// ResumeResult answers FETCH_RESUME.
type ResumeResult struct {
	Success      bool   `json:"success"`
	ResumeBuffer Buffer `json:"resumeBuffer,omitempty"`
	ResumeName   string `json:"resumeName,omitempty"`
	DisplayName  string `json:"displayName,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BackendResult answers SEND_TO_BACKEND. Data is the matching service reply,
// passed through untouched.
type BackendResult struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Unsupported answers actions the coordinator does not know.
type Unsupported struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (AuthStatus) response()    {}
func (Ack) response()           {}
func (JobList) response()       {}
func (ResumeResult) response()  {}
func (BackendResult) response() {}
func (Unsupported) response()   {}

// NewJobList never returns a nil job slice so it encodes as [].
func NewJobList(jobs []Job) JobList {
	if jobs == nil {
		jobs = []Job{}
	}
	return JobList{Jobs: jobs}
}

// Failure returns the reply an action produces when its handler could not
// complete. reason is only surfaced for actions with an error field.
func Failure(action Action, reason string) Response {
	switch action {
	case CheckAuth:
		return AuthStatus{}
	case EnsureAuth:
		return Ack{OK: true}
	case StartJobAnalysis, ScrapeJobs:
		return NewJobList(nil)
	case FetchResume:
		return ResumeResult{Error: reason}
	case SendToBackend:
		return BackendResult{Error: reason}
	default:
		return Unsupported{Error: fmt.Sprintf("unsupported action: %s", action)}
	}
}

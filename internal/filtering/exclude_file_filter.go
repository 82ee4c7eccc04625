package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/career-compass/internal/messaging"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes jobs already submitted, as
// recorded in the exclude file. An empty path turns the step into a no-op.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Apply(_ context.Context, jobs []messaging.Job) ([]messaging.Job, Step, error) {
	if f.path == "" {
		return jobs, Step{Initial: len(jobs), Left: len(jobs)}, nil
	}

	submitted, err := LoadSubmitted(f.path)
	if err != nil {
		return nil, Step{}, fmt.Errorf("getting submitted jobs from file: %w", err)
	}

	known := make(map[string]struct{}, len(submitted.Items))
	for _, url := range submitted.URLs() {
		known[url] = struct{}{}
	}

	kept := make([]messaging.Job, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := known[job.URL]; ok {
			continue
		}
		kept = append(kept, job)
	}

	return kept, Step{Initial: len(jobs), Dropped: len(jobs) - len(kept), Left: len(kept)}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

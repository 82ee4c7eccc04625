package filtering

import (
	"context"

	"github.com/spigell/career-compass/internal/messaging"
)

type duplicatesFilter struct {
	toggle
}

// NewDuplicates creates a filter that keeps only the first job for every URL.
func NewDuplicates() Filter {
	return &duplicatesFilter{}
}

func (f *duplicatesFilter) Name() string { return "duplicates" }

func (f *duplicatesFilter) Apply(_ context.Context, jobs []messaging.Job) ([]messaging.Job, Step, error) {
	seen := make(map[string]struct{}, len(jobs))
	kept := make([]messaging.Job, 0, len(jobs))
	for _, job := range jobs {
		if _, ok := seen[job.URL]; ok {
			continue
		}
		seen[job.URL] = struct{}{}
		kept = append(kept, job)
	}

	return kept, Step{Initial: len(jobs), Dropped: len(jobs) - len(kept), Left: len(kept)}, nil
}

package filtering

import (
	"context"
	"strconv"

	"github.com/spigell/career-compass/internal/messaging"
)

// DefaultLimit is how many jobs a single submission carries.
const DefaultLimit = 3

type limitFilter struct {
	toggle
	max int
}

// NewLimit creates a filter that keeps the first n jobs. A non-positive n
// falls back to DefaultLimit.
func NewLimit(n int) Filter {
	if n <= 0 {
		n = DefaultLimit
	}
	return &limitFilter{max: n}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Apply(_ context.Context, jobs []messaging.Job) ([]messaging.Job, Step, error) {
	kept := jobs
	if len(kept) > f.max {
		kept = kept[:f.max]
	}

	return kept, Step{Initial: len(jobs), Dropped: len(jobs) - len(kept), Left: len(kept)}, nil
}

func (f *limitFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"max": strconv.Itoa(f.max)},
	}
}

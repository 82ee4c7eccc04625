package filtering

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spigell/career-compass/internal/messaging"
)

// Submitted is the content of the exclude file: every job that was already
// sent for matching.
type Submitted struct {
	Items []*SubmittedJob
}

type SubmittedJob struct {
	URL         string
	Title       string
	Company     string
	SubmittedAt time.Time
}

// LoadSubmitted reads the exclude file. A missing or empty file holds no jobs.
func LoadSubmitted(path string) (*Submitted, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Submitted{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Submitted{}, nil
	}

	var submitted Submitted
	if err := json.NewDecoder(file).Decode(&submitted); err != nil {
		return nil, err
	}
	return &submitted, nil
}

func (s *Submitted) Append(jobs []messaging.Job, at time.Time) {
	for _, job := range jobs {
		s.Items = append(s.Items, &SubmittedJob{
			URL:         job.URL,
			Title:       job.Title,
			Company:     job.Company,
			SubmittedAt: at,
		})
	}
}

func (s *Submitted) URLs() []string {
	urls := make([]string, 0, len(s.Items))
	for _, job := range s.Items {
		urls = append(urls, job.URL)
	}
	return urls
}

func (s *Submitted) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// RecordSubmitted appends jobs to the exclude file at path.
func RecordSubmitted(path string, jobs []messaging.Job, at time.Time) error {
	submitted, err := LoadSubmitted(path)
	if err != nil {
		return err
	}

	submitted.Append(jobs, at)

	return submitted.ToFile(path)
}

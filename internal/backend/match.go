package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	fieldResume = "pdf_file"
	fieldBody   = "json_body"
	pdfMIME     = "application/pdf"
)

// MatchResult is the matching service reply. Its schema belongs to the
// service and is passed through untouched.
type MatchResult = json.RawMessage

type matchBody struct {
	URLs []string `json:"urls"`
}

// MatchJobs submits a resume and job links to the matching service in a
// single attempt. The caller decides how many links are sent.
func (c *Client) MatchJobs(ctx context.Context, resume []byte, resumeName string, urls []string) (MatchResult, error) {
	if urls == nil {
		urls = []string{}
	}

	body, err := json.Marshal(matchBody{URLs: urls})
	if err != nil {
		return nil, fmt.Errorf("encoding json_body: %w", err)
	}

	form := Form{
		Files: []FilePart{{
			Field:       fieldResume,
			FileName:    resumeName,
			ContentType: pdfMIME,
			Data:        resume,
		}},
		Fields: []FormField{{Name: fieldBody, Value: string(body)}},
	}

	c.logger.Debug("submitting resume for matching",
		zap.String("resume_name", resumeName),
		zap.Int("resume_size", len(resume)),
		zap.Strings("urls", urls),
	)

	data, err := c.postForm(ctx, c.endpoints.MatchURL, form)
	if err != nil {
		return nil, err
	}

	if !json.Valid(data) {
		return nil, errors.New("matching service returned invalid JSON")
	}

	return MatchResult(data), nil
}

package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Base64Prefix optionally marks stored resume content as base64 encoded.
const Base64Prefix = "PDF_BASE64:"

var (
	ErrNoResume      = errors.New("no resume in response")
	ErrInvalidBase64 = errors.New("invalid base64 content")

	base64Chars  = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
	formatSuffix = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\s*\(PDF\)$`),
		regexp.MustCompile(`(?i)\s*\(TXT\)$`),
	}
)

// StoredResume is a resume record kept by the resume store.
type StoredResume struct {
	Content string `json:"content" validate:"required"`
	Name    string `json:"name" validate:"required"`
}

type resumesRequest struct {
	UserID string `json:"user_id"`
}

type resumesResponse struct {
	Resumes []*StoredResume `json:"resumes"`
}

// FirstResume returns the first resume stored for userID. The record is
// validated before it is returned; an empty list yields ErrNoResume.
func (c *Client) FirstResume(ctx context.Context, userID string) (*StoredResume, error) {
	var resp resumesResponse
	if err := c.postJSON(ctx, c.endpoints.ResumeURL, nil, resumesRequest{UserID: userID}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Resumes) == 0 || resp.Resumes[0] == nil {
		return nil, ErrNoResume
	}

	first := resp.Resumes[0]
	if err := c.validate.Struct(first); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoResume, err)
	}

	return first, nil
}

// Decode returns the raw bytes of the stored content. The Base64Prefix
// marker is optional. Padding may be omitted, but when present it must be
// complete.
func (r *StoredResume) Decode() ([]byte, error) {
	encoded := strings.TrimPrefix(r.Content, Base64Prefix)

	if !base64Chars.MatchString(encoded) {
		return nil, ErrInvalidBase64
	}

	enc := base64.RawStdEncoding
	if strings.HasSuffix(encoded, "=") {
		enc = base64.StdEncoding
	}

	data, err := enc.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
	}

	return data, nil
}

// FileName returns the record name without a trailing "(PDF)" or "(TXT)"
// marker, always with a .pdf extension.
func (r *StoredResume) FileName() string {
	return CleanName(r.Name) + ".pdf"
}

// CleanName strips trailing format markers from a resume display name.
func CleanName(name string) string {
	for _, re := range formatSuffix {
		name = re.ReplaceAllString(name, "")
	}
	return strings.TrimSpace(name)
}

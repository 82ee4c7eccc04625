package messaging

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Message is a single request sent to the coordinator.
// Only SEND_TO_BACKEND uses the payload fields.
type Message struct {
	Action       Action   `json:"action"`
	ResumeBuffer Buffer   `json:"resumeBuffer,omitempty" validate:"required,min=1"`
	ResumeName   string   `json:"resumeName,omitempty" validate:"required"`
	URLs         []string `json:"urls,omitempty"`

	// RequestID is assigned by the dispatcher and used for log correlation only.
	RequestID string `json:"-"`
}

// Job is a single listing scraped from a page. ID is the position in the scrape
// result and is not stable across scrapes.
type Job struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

// URLs returns the links of the first n jobs, or all of them when n <= 0.
func URLs(jobs []Job, n int) []string {
	if n <= 0 || n > len(jobs) {
		n = len(jobs)
	}

	urls := make([]string, 0, n)
	for _, job := range jobs[:n] {
		urls = append(urls, job.URL)
	}

	return urls
}

// Buffer carries binary data across the message boundary.
// It is encoded as a JSON array of byte values, the shape produced by
// Array.from(new Uint8Array(...)) on the extension side. Decoding also
// accepts a base64 string.
type Buffer []byte

func (b Buffer) MarshalJSON() ([]byte, error) {
	if b == nil {
		return []byte("null"), nil
	}

	var out bytes.Buffer
	out.Grow(len(b)*4 + 2)
	out.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			out.WriteByte(',')
		}
		fmt.Fprintf(&out, "%d", v)
	}
	out.WriteByte(']')

	return out.Bytes(), nil
}

func (b *Buffer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}

	if data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("decode base64 buffer: %w", err)
		}
		*b = decoded
		return nil
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("decode byte array: %w", err)
	}

	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value %d at index %d is out of range", v, i)
		}
		out[i] = byte(v)
	}
	*b = out

	return nil
}

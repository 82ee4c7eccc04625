package resume

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spigell/career-compass/internal/backend"
	"github.com/spigell/career-compass/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func token(t *testing.T, sub string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func newResumeServer(t *testing.T, status int, body string, gotUserID *string) *backend.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if gotUserID != nil {
			*gotUserID = req["user_id"]
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return backend.New(backend.Endpoints{ResumeURL: server.URL}, "", zap.NewNop())
}

func TestFetch(t *testing.T) {
	var userID string
	client := newResumeServer(t, http.StatusOK,
		`{"resumes":[{"content":"PDF_BASE64:JVBERi0xLjQ=","name":"Resume (PDF)"},{"content":"x","name":"second"}]}`,
		&userID,
	)

	fetcher := NewFetcher(session.NewStatic(token(t, "firebase-uid")), client, zap.NewNop())

	artifact := fetcher.Fetch(context.Background())
	if artifact == nil {
		t.Fatalf("expected an artifact")
	}

	if userID != "firebase-uid" {
		t.Fatalf("expected subject to be sent as user_id, got %q", userID)
	}
	if string(artifact.Bytes) != "%PDF-1.4" {
		t.Fatalf("unexpected bytes: %q", artifact.Bytes)
	}
	if artifact.StoredName != "Resume.pdf" {
		t.Fatalf("unexpected stored name: %q", artifact.StoredName)
	}
	if artifact.DisplayName != "Resume (PDF)" {
		t.Fatalf("unexpected display name: %q", artifact.DisplayName)
	}
}

func TestFetchReturnsNil(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		status int
		body   string
	}{
		{name: "no cookie", cookie: "", status: http.StatusOK, body: `{"resumes":[{"content":"JVBERg==","name":"cv"}]}`},
		{name: "cookie is not a token", cookie: "opaque", status: http.StatusOK, body: `{"resumes":[{"content":"JVBERg==","name":"cv"}]}`},
		{name: "server error", cookie: "token", status: http.StatusInternalServerError, body: `boom`},
		{name: "empty list", cookie: "token", status: http.StatusOK, body: `{"resumes":[]}`},
		{name: "invalid base64", cookie: "token", status: http.StatusOK, body: `{"resumes":[{"content":"PDF_BASE64:not base64!","name":"cv"}]}`},
		{name: "malformed json", cookie: "token", status: http.StatusOK, body: `{"resumes":[`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newResumeServer(t, tt.status, tt.body, nil)

			cookie := tt.cookie
			if cookie == "token" {
				cookie = token(t, "uid")
			}

			core, logs := observer.New(zapcore.DebugLevel)
			fetcher := NewFetcher(session.NewStatic(cookie), client, zap.New(core))

			if artifact := fetcher.Fetch(context.Background()); artifact != nil {
				t.Fatalf("expected nil artifact, got %+v", artifact)
			}

			if tt.cookie != "" && logs.Len() == 0 {
				t.Fatalf("expected failure to be logged")
			}
		})
	}
}

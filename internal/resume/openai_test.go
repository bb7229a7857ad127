package resume

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatReply(content string) string {
	out, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	})
	return string(out)
}

func TestOpenAIExtract(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatReply(`{"full_name":"Jane Doe","email":"jane@example.com","phone":null,"company_name":"Acme","job_title":"Engineer","confidence":{"full_name":95}}`)))
	}))
	defer srv.Close()

	e := NewOpenAIExtractor("test-key", srv.URL, "gpt-4o-mini")
	pdf := []byte("%PDF-1.4 fake")

	out, err := e.Extract(context.Background(), pdf)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %v", gotBody["model"])
	}
	if rf, ok := gotBody["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", gotBody["response_format"])
	}

	wantURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf)
	raw, _ := json.Marshal(gotBody["messages"])
	if !strings.Contains(string(raw), wantURL) {
		t.Fatalf("expected pdf data url in request messages")
	}

	if out.FullName == nil || *out.FullName != "Jane Doe" {
		t.Fatalf("unexpected full_name: %v", out.FullName)
	}
	if out.Phone != nil {
		t.Fatalf("expected nil phone, got %v", *out.Phone)
	}
	if out.Confidence["full_name"] != 95 {
		t.Fatalf("unexpected confidence: %v", out.Confidence)
	}
}

func TestOpenAIExtractStripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("```json\n{\"full_name\":\"Jane Doe\"}\n```")))
	}))
	defer srv.Close()

	e := NewOpenAIExtractor("test-key", srv.URL, "gpt-4o-mini")
	out, err := e.Extract(context.Background(), []byte("%PDF"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if out.FullName == nil || *out.FullName != "Jane Doe" {
		t.Fatalf("unexpected extraction: %+v", out)
	}
}

func TestOpenAIExtractUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := NewOpenAIExtractor("test-key", srv.URL, "gpt-4o-mini")
	_, err := e.Extract(context.Background(), []byte("%PDF"))
	if err == nil {
		t.Fatalf("expected error from upstream failure")
	}
	if !strings.Contains(err.Error(), "status 429") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"doctrans/internal/apperrors"
)

func newChatServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OpenAIClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewOpenAIClient(srv.URL, "test-key", "qwen2.5-32b-instruct")
	client.http = srv.Client()
	return srv, client
}

func TestOpenAIComplete(t *testing.T) {
	var gotReq chatRequest
	_, client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "こんにちは"}},
			},
		})
	})

	out, err := client.Complete(context.Background(), "You translate.", "Hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "こんにちは" {
		t.Errorf("got %q", out)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Content != "Hello" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestOpenAICompleteErrors(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		wantKind apperrors.Kind
	}{
		{"rate limit", http.StatusTooManyRequests, apperrors.KindRateLimit},
		{"server error", http.StatusBadGateway, apperrors.KindTransient},
		{"bad request", http.StatusBadRequest, apperrors.KindBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := client.Complete(context.Background(), "", "x")
			if err == nil {
				t.Fatal("expected error")
			}
			kind, ok := apperrors.KindOf(err)
			if !ok || kind != tc.wantKind {
				t.Errorf("got kind %q (ok=%v), want %q", kind, ok, tc.wantKind)
			}
		})
	}
}

func TestOpenAICompleteEmptyChoices(t *testing.T) {
	_, client := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	_, err := client.Complete(context.Background(), "", "x")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperrors.Error, got %T", err)
	}
}

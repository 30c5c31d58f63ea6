package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *chatCompletionsProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := newChatCompletionsProvider(
		"testprovider", srv.URL, "test-model", "",
		NewBearerAuth(NewStaticTokenSource("sk-test", "test")),
	)
	if err != nil {
		t.Fatalf("newChatCompletionsProvider: %v", err)
	}
	return p
}

func TestChat_Success(t *testing.T) {
	var gotBody map[string]interface{}

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{
					"message":       map[string]interface{}{"content": "好的，我帮你记下来了，还有别的吗？"},
					"finish_reason": "stop",
				},
			},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	})

	resp, err := p.Chat(context.Background(),
		[]Message{{Role: "user", Content: "明天要交报告还没做"}},
		"", map[string]interface{}{"temperature": 0.7, "top_p": 0.7, "max_tokens": 4096})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "好的，我帮你记下来了，还有别的吗？" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 15 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("request model = %v, want default model", gotBody["model"])
	}
	if gotBody["top_p"] != 0.7 {
		t.Errorf("request top_p = %v", gotBody["top_p"])
	}
	if gotBody["stream"] != false {
		t.Errorf("request stream = %v, want false", gotBody["stream"])
	}
}

func TestChat_NonSuccessStatusIsServiceError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	})

	_, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "", nil)
	if err == nil {
		t.Fatal("expected error for 429 response")
	}

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusTooManyRequests || se.Message != "rate limited" {
		t.Errorf("ServiceError = %+v", se)
	}
}

func TestChat_EmptyChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	})

	resp, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, "", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "" {
		t.Errorf("Content = %q, want empty", resp.Content)
	}
}

func TestChat_ContentPartsArray(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"content": [{"type":"text","text":"晚安"},{"type":"text","text":"好梦"}]}, "finish_reason": "stop"}]}`))
	})

	resp, err := p.Chat(context.Background(), []Message{{Role: "user", Content: "晚安"}}, "", nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "晚安好梦" {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestTranscriber_RequiresAPIKey(t *testing.T) {
	_, err := NewTranscriber(nil)
	if err == nil {
		t.Fatal("expected error for nil config")
	}
}

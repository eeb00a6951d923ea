package deepseek

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/llm"
)

func TestChatSendsLowercaseWireKeys(t *testing.T) {
	var body map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read request body: %v", err)
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body is not valid JSON: %v", err)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "可以主张赔偿。"}}]}`))
	}))
	defer server.Close()

	provider := NewDeepSeekProvider("test-key", server.URL, "deepseek-chat")
	answer, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "你是法律顾问。"},
		{Role: "user", Content: "公司违法辞退怎么办？"},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if answer != "可以主张赔偿。" {
		t.Errorf("unexpected answer %q", answer)
	}

	var messages []map[string]string
	if err := json.Unmarshal(body["messages"], &messages); err != nil {
		t.Fatalf("messages field missing or malformed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	for i, m := range messages {
		if m["role"] == "" {
			t.Errorf("message %d is missing the lowercase role key: %v", i, m)
		}
		if m["content"] == "" {
			t.Errorf("message %d is missing the lowercase content key: %v", i, m)
		}
	}
	if messages[0]["role"] != "system" || messages[1]["role"] != "user" {
		t.Errorf("roles not preserved on the wire: %v", messages)
	}
}

func TestChatSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	provider := NewDeepSeekProvider("bad-key", server.URL, "deepseek-chat")
	if _, err := provider.Generate(context.Background(), "问题"); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

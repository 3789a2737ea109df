package assistant

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s := NewService(Config{APIKey: "test-key"}, testLogger())
	s.baseURL = srv.URL
	return s
}

func candidateResponse(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func TestGenerateDisabledWithoutKey(t *testing.T) {
	s := NewService(Config{}, testLogger())
	if got := s.Generate("hello"); got != fallbackDisabled {
		t.Errorf("reply = %q, want disabled fallback", got)
	}
	if got := s.Chat(nil, "hello"); got != fallbackDisabled {
		t.Errorf("chat reply = %q, want disabled fallback", got)
	}
	if got := s.AnalyzeImage("p", "data", ""); got != fallbackDisabled {
		t.Errorf("image reply = %q, want disabled fallback", got)
	}
}

func TestGenerateParsesReply(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "generateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, candidateResponse("Put glass in the green bin."))
	})

	if got := s.Generate("where does glass go"); got != "Put glass in the green bin." {
		t.Errorf("reply = %q", got)
	}
}

func TestGenerateFallsBackOnServerError(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if got := s.Generate("hello"); got != fallbackGenerate {
		t.Errorf("reply = %q, want generate fallback", got)
	}
}

func TestChatSendsHistoryAndSystemInstruction(t *testing.T) {
	var captured apiRequest
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		io.WriteString(w, candidateResponse("Sure!"))
	})

	history := []Message{
		{Role: "user", Text: "hi"},
		{Role: "model", Text: "hello, how can I help?"},
	}
	if got := s.Chat(history, "when is bulky pickup?"); got != "Sure!" {
		t.Errorf("reply = %q", got)
	}

	if len(captured.Contents) != 3 {
		t.Fatalf("contents = %d turns, want 3", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Errorf("history role = %q, want model", captured.Contents[1].Role)
	}
	if captured.Contents[2].Parts[0].Text != "when is bulky pickup?" {
		t.Errorf("last turn = %q", captured.Contents[2].Parts[0].Text)
	}
	if captured.SystemInstruction == nil {
		t.Error("expected a system instruction")
	}
}

func TestChatFallsBackOnGlitch(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	if got := s.Chat(nil, "hello"); got != fallbackChat {
		t.Errorf("reply = %q, want chat fallback", got)
	}
}

func TestAnalyzeImageSendsInlineData(t *testing.T) {
	var captured apiRequest
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		io.WriteString(w, candidateResponse("That is an old mattress; book a bulky pickup."))
	})

	got := s.AnalyzeImage("what is this", "aGVsbG8=", "image/png")
	if got != "That is an old mattress; book a bulky pickup." {
		t.Errorf("reply = %q", got)
	}

	if len(captured.Contents) != 1 || len(captured.Contents[0].Parts) != 2 {
		t.Fatal("expected one content with image and text parts")
	}
	inline := captured.Contents[0].Parts[0].InlineData
	if inline == nil || inline.MimeType != "image/png" || inline.Data != "aGVsbG8=" {
		t.Errorf("inline data = %+v", inline)
	}
}

func TestAnalyzeImageFallsBackOnError(t *testing.T) {
	s := testService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	if got := s.AnalyzeImage("p", "data", ""); got != fallbackImage {
		t.Errorf("reply = %q, want image fallback", got)
	}
}

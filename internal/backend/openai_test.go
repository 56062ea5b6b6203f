package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIOptions{})
	require.Error(t, err)
}

func TestOpenAITranscribeAndRespond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch {
		case strings.HasSuffix(r.URL.Path, "/audio/transcriptions"):
			require.NoError(t, r.ParseMultipartForm(1<<20))
			require.Equal(t, "whisper-1", r.FormValue("model"))
			_, _ = w.Write([]byte(`{"text":"dictated text"}`))
		case strings.HasSuffix(r.URL.Path, "/chat/completions"):
			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "gpt-test", body.Model)
			require.Len(t, body.Messages, 2)
			require.Equal(t, "system", body.Messages[0].Role)
			require.Equal(t, "dictated text", body.Messages[1].Content)
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-test",` +
				`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"answer"}}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := NewOpenAI(OpenAIOptions{
		APIKey:       "sk-test",
		BaseURL:      server.URL + "/v1/",
		ChatModel:    "gpt-test",
		SystemPrompt: "be brief",
	})
	require.NoError(t, err)

	text, err := client.Transcribe(context.Background(), []byte("RIFF"))
	require.NoError(t, err)
	require.Equal(t, "dictated text", text)

	reply, err := client.Respond(context.Background(), text)
	require.NoError(t, err)
	require.Equal(t, "answer", reply)
}

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultTranscriptionModel = "whisper-1"
	DefaultChatModel          = "gpt-4o-mini"
)

// OpenAIOptions configures the hosted backend.
type OpenAIOptions struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	ChatModel          string
	SystemPrompt       string
	Language           string
}

// OpenAI transcribes with the audio transcription endpoint and answers with chat completions.
type OpenAI struct {
	client openai.Client
	opts   OpenAIOptions
}

func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai backend requires an API key")
	}
	if opts.TranscriptionModel == "" {
		opts.TranscriptionModel = DefaultTranscriptionModel
	}
	if opts.ChatModel == "" {
		opts.ChatModel = DefaultChatModel
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), opts: opts}, nil
}

func (o *OpenAI) Transcribe(ctx context.Context, audio []byte) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(o.opts.TranscriptionModel),
	}
	if o.opts.Language != "" {
		params.Language = openai.String(o.opts.Language)
	}

	resp, err := o.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return resp.Text, nil
}

func (o *OpenAI) Respond(ctx context.Context, text string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if o.opts.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(o.opts.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(text))

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.opts.ChatModel),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("respond: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("respond: completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

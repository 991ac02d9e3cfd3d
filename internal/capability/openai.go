package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/psds-microservice/meeting-service/internal/model"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible capability client.
type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	SummaryModel    string
}

// OpenAIClient implements Transcriber and Summarizer via the go-openai SDK.
type OpenAIClient struct {
	client          *openai.Client
	transcribeModel string
	summaryModel    string
}

// NewOpenAIClient creates the capability client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	transcribe := cfg.TranscribeModel
	if transcribe == "" {
		transcribe = openai.Whisper1
	}
	summary := cfg.SummaryModel
	if summary == "" {
		summary = openai.GPT4oMini
	}
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(conf),
		transcribeModel: transcribe,
		summaryModel:    summary,
	}
}

// Transcribe sends the audio buffer to the transcription endpoint.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	req := openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: "chunk" + extForMime(mimeType),
		Reader:   bytes.NewReader(audio),
	}
	resp, err := c.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return resp.Text, nil
}

const summarySystemPrompt = `You are a meeting secretary. Given a raw meeting transcript, respond with a single JSON object:
{
  "abstract": "one-paragraph summary",
  "key_points": ["..."],
  "decisions": ["..."],
  "action_items": [{"title": "...", "description": "...", "assigned_to": "name or TBD", "deadline": "YYYY-MM-DD or empty"}]
}
Use "TBD" when no assignee was named. Leave "deadline" empty when none was mentioned. Respond with JSON only.`

// Summarize runs the structured-summary extraction over the full transcript.
func (c *OpenAIClient) Summarize(ctx context.Context, transcript string) (*model.StructuredSummary, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.summaryModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("summarization: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("summarization: empty response")
	}
	var out model.StructuredSummary
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("summarization: parse response: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("summarization: %w", err)
	}
	return &out, nil
}

func extForMime(mimeType string) string {
	mt := mimeType
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	switch strings.TrimSpace(strings.ToLower(mt)) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/x-m4a", "audio/m4a":
		return ".m4a"
	case "audio/ogg", "application/ogg":
		return ".ogg"
	case "audio/flac":
		return ".flac"
	default:
		return ".webm"
	}
}

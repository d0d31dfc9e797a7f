package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "gpt-4o-mini"

// OpenAIStreamer implements Streamer against an OpenAI-compatible chat API.
type OpenAIStreamer struct {
	client *openai.Client
	logger *zap.Logger
}

// NewOpenAIStreamer creates a streamer with the given API key. baseURL may be
// empty for the default endpoint. A nil logger is replaced with zap.NewNop().
func NewOpenAIStreamer(apiKey, baseURL string, logger *zap.Logger) (*OpenAIStreamer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIStreamer{
		client: openai.NewClientWithConfig(cfg),
		logger: logger.Named("llm"),
	}, nil
}

// Chat starts a streamed completion. Change events carry the full
// accumulated text; the stream ends with one complete or error event.
func (s *OpenAIStreamer) Chat(ctx context.Context, messages []Message, opts Options, requestID string) (<-chan Event, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}

	req := openai.ChatCompletionRequest{
		Model:               model,
		MaxCompletionTokens: opts.MaxTokens,
		Stream:              true,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}

	s.logger.Debug("stream opened",
		zap.String("request_id", requestID),
		zap.String("model", model),
		zap.Int("messages", len(messages)))

	events := make(chan Event, 1)
	go func() {
		defer close(events)
		defer stream.Close()

		// send drops the event once the caller has gone away.
		send := func(ev Event) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var accumulated string
		for {
			resp, recvErr := stream.Recv()
			if errors.Is(recvErr, io.EOF) {
				send(Event{Type: EventComplete, Text: accumulated})
				return
			}
			if recvErr != nil {
				s.logger.Debug("stream error",
					zap.String("request_id", requestID), zap.Error(recvErr))
				send(Event{Type: EventError, Err: recvErr})
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			accumulated += delta
			if !send(Event{Type: EventChange, Text: accumulated}) {
				return
			}
		}
	}()
	return events, nil
}

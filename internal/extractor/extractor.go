package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"nlcal/internal/models"
	"time"
	_ "time/tzdata" // reference zone must resolve on hosts without zoneinfo

	"github.com/sashabaranov/go-openai"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = openai.GPT4oMini

// ExtractionError reports that no valid event could be obtained from the model.
type ExtractionError struct {
	Msg string
	Err error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return "extraction failed: " + e.Msg
	}
	return fmt.Sprintf("extraction failed: %s: %v", e.Msg, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Stage names the pipeline step that failed.
func (e *ExtractionError) Stage() string { return "extraction" }

// ChatCompleter is the part of the OpenAI client the extractor needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor turns free-text scheduling requests into structured events.
type Extractor struct {
	client  ChatCompleter
	logger  *slog.Logger
	model   string
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(e *Extractor) { e.model = model }
}

// WithTimeout bounds each model call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLocation sets the reference zone.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) { e.loc = loc }
}

// New creates an Extractor. The reference zone defaults to DefaultReferenceZone.
func New(logger *slog.Logger, client ChatCompleter, opts ...Option) (*Extractor, error) {
	if client == nil {
		return nil, errors.New("chat client cannot be nil")
	}
	e := &Extractor{
		client: client,
		logger: logger,
		model:  DefaultModel,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loc == nil {
		loc, err := time.LoadLocation(DefaultReferenceZone)
		if err != nil {
			return nil, fmt.Errorf("failed to load reference zone: %w", err)
		}
		e.loc = loc
	}
	return e, nil
}

// NewOpenAIClient builds a client for the OpenAI API or any compatible endpoint.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Extract asks the model for an event matching query.
func (e *Extractor) Extract(ctx context.Context, query string) (*models.Event, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	now := e.now()
	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(now, e.loc)},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(query, now, e.loc)},
		},
		Tools: []openai.Tool{eventTool},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: ToolName},
		},
	}

	e.logger.Debug("Requesting event extraction", "model", e.model, "query", query)
	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, &ExtractionError{Msg: "language model request failed", Err: err}
	}

	event, err := parseResponse(resp)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Extracted event", "summary", event.Summary, "allDay", event.Start.IsAllDay())
	return event, nil
}

// parseResponse pulls the single tool call out of resp and validates its payload.
func parseResponse(resp openai.ChatCompletionResponse) (*models.Event, error) {
	if len(resp.Choices) == 0 {
		return nil, &ExtractionError{Msg: "response has no choices"}
	}
	calls := resp.Choices[0].Message.ToolCalls
	switch len(calls) {
	case 0:
		return nil, &ExtractionError{Msg: "response contains no tool call"}
	case 1:
	default:
		return nil, &ExtractionError{Msg: fmt.Sprintf("response contains %d tool calls, want 1", len(calls))}
	}

	fn := calls[0].Function
	if fn.Name != ToolName {
		return nil, &ExtractionError{Msg: fmt.Sprintf("unexpected tool %q", fn.Name)}
	}

	var event models.Event
	if err := json.Unmarshal([]byte(fn.Arguments), &event); err != nil {
		return nil, &ExtractionError{Msg: "tool arguments are not valid JSON", Err: err}
	}
	if err := event.Validate(); err != nil {
		return nil, &ExtractionError{Msg: "event does not match schema", Err: err}
	}
	return &event, nil
}

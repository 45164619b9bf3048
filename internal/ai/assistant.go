package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/nhle/community-roots/internal/model"
	"github.com/nhle/community-roots/internal/parse"
)

const defaultModel = "gemini-2.5-flash"

// Fixed replies used instead of surfacing advice failures.
const (
	EmptyAdviceReply  = "I'm sorry, I couldn't generate advice right now."
	FailedAdviceReply = "Sorry, I'm having trouble connecting to the gardening database right now."
)

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("gemini API key is required")

// Generator is the slice of the Gemini models API the assistant needs.
// *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Assistant answers gardening questions, suggests tasks from observations
// and discovers parks, all through Gemini. None of its methods return an
// error: failures are logged and turned into a fixed reply or an empty
// result.
type Assistant struct {
	gen   Generator
	model string
	log   *zap.Logger
}

// New creates an assistant backed by a Gemini API client.
func New(ctx context.Context, apiKey, modelName string, log *zap.Logger) (*Assistant, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return NewWithGenerator(client.Models, modelName, log), nil
}

// NewWithGenerator creates an assistant over an arbitrary Generator.
func NewWithGenerator(gen Generator, modelName string, log *zap.Logger) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assistant{gen: gen, model: modelName, log: log.Named("ai")}
}

// Model returns the model name requests are sent to.
func (a *Assistant) Model() string { return a.model }

// Advice answers a free-text question in the Rooty persona.
func (a *Assistant) Advice(ctx context.Context, question string) string {
	resp, err := a.generate(ctx, question, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(adviceSystemInstruction, genai.RoleUser),
	})
	if err != nil {
		a.log.Error("advice request failed", zap.Error(err))
		return FailedAdviceReply
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		a.log.Warn("advice response was empty")
		return EmptyAdviceReply
	}
	return text
}

// SuggestTasks asks for maintenance tasks matching an observation. The
// result is empty when the call fails or nothing usable comes back.
func (a *Assistant) SuggestTasks(ctx context.Context, observation string, now time.Time) []model.Task {
	resp, err := a.generate(ctx, suggestPrompt(observation), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   suggestionSchema(),
	})
	if err != nil {
		a.log.Error("task suggestion request failed", zap.Error(err))
		return []model.Task{}
	}
	tasks := parse.Suggestions(responseText(resp), now)
	a.log.Debug("task suggestions parsed", zap.Int("count", len(tasks)))
	return tasks
}

// DiscoverParks searches for parks near query using Google Maps grounding.
// When near is set it biases retrieval and the prompt asks about the
// current location instead of query.
func (a *Assistant) DiscoverParks(ctx context.Context, query string, near *model.Coordinates, now time.Time) []model.Park {
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}},
	}
	if near != nil {
		query = CurrentLocationQuery
		cfg.ToolConfig = &genai.ToolConfig{
			RetrievalConfig: &genai.RetrievalConfig{
				LatLng: &genai.LatLng{
					Latitude:  ptr(near.Lat),
					Longitude: ptr(near.Lng),
				},
			},
		}
	}

	resp, err := a.generate(ctx, discoveryPrompt(query), cfg)
	if err != nil {
		a.log.Error("park discovery request failed", zap.String("query", query), zap.Error(err))
		return []model.Park{}
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		a.log.Warn("park discovery response was empty", zap.String("query", query))
		return []model.Park{}
	}
	parks := parse.Parks(text, groundingSources(resp), now)
	a.log.Debug("parks parsed", zap.String("query", query), zap.Int("count", len(parks)))
	return parks
}

func (a *Assistant) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := a.gen.GenerateContent(ctx, a.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("generating content with %s: %w", a.model, err)
	}
	return resp, nil
}

// responseText concatenates the non-thought text parts of the first
// candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// groundingSources collects the web chunks of the first candidate's
// grounding metadata.
func groundingSources(resp *genai.GenerateContentResponse) []parse.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var sources []parse.Source
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		sources = append(sources, parse.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}

func ptr[T any](v T) *T { return &v }

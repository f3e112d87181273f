package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/amirphl/planeit/config"
	"github.com/goccy/go-json"
)

const (
	summaryInstructions = "You are an expert travel assistant generating personalized travel profiles. " +
		"Based on the traveller's quiz answers, write a concise but rich paragraph summarizing their travel personality, " +
		"including their interests, energy level, travel style, budget, preferred destinations and social preferences. " +
		"Use a natural, human tone."

	destinationInstructions = "You are a travel assistant generating personality-style profiles for cities, to match them with the right travellers. " +
		"Write a rich, 4-5 sentence paragraph describing the city's overall vibe and energy level, its cultural strengths, " +
		"the types of travellers who typically enjoy it, the typical budget level and the pace of life. " +
		"Avoid listing specific attractions."
)

// QuizAnswer is one question/answer pair of the preference quiz
type QuizAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// EmbeddingProvider turns free text into summaries and vectors
type EmbeddingProvider interface {
	Summarize(ctx context.Context, answers []QuizAnswer) (string, error)
	Embed(ctx context.Context, text string) ([]float64, error)
	DescribeDestination(ctx context.Context, city, country string) (string, error)
}

// NewEmbeddingProvider picks the implementation named by cfg.Provider
func NewEmbeddingProvider(cfg *config.EmbeddingConfig) EmbeddingProvider {
	if cfg.Provider == "mock" {
		return NewMockEmbeddingProvider(cfg.Dimensions)
	}
	return NewOpenAIEmbeddingProvider(cfg)
}

// OpenAIEmbeddingProvider implements EmbeddingProvider against the OpenAI REST API
type OpenAIEmbeddingProvider struct {
	config  *config.EmbeddingConfig
	client  *http.Client
	breaker *Breaker
}

type openAIResponseRequest struct {
	Model        string `json:"model"`
	Instructions string `json:"instructions,omitempty"`
	Input        string `json:"input"`
}

type openAIResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

type openAIEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

type openAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIEmbeddingProvider creates a new OpenAI-backed provider
func NewOpenAIEmbeddingProvider(cfg *config.EmbeddingConfig) *OpenAIEmbeddingProvider {
	return &OpenAIEmbeddingProvider{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: NewBreaker("openai", DefaultBreakerConfig()),
	}
}

// Summarize writes a travel-personality paragraph from quiz answers
func (p *OpenAIEmbeddingProvider) Summarize(ctx context.Context, answers []QuizAnswer) (string, error) {
	var b strings.Builder
	for _, a := range answers {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", strings.TrimSpace(a.Question), strings.TrimSpace(a.Answer))
	}
	return p.respond(ctx, summaryInstructions, b.String())
}

// DescribeDestination writes the profile paragraph used to embed a catalog city
func (p *OpenAIEmbeddingProvider) DescribeDestination(ctx context.Context, city, country string) (string, error) {
	return p.respond(ctx, destinationInstructions, fmt.Sprintf("Describe the city %s, %s.", city, country))
}

// Embed returns the embedding of text
func (p *OpenAIEmbeddingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if p.config.APIKey == "" {
		return nil, ErrProviderNotConfigured
	}

	return execute(p.breaker, func() ([]float64, error) {
		var out openAIEmbeddingResponse
		err := p.post(ctx, "/embeddings", openAIEmbeddingRequest{
			Model: p.config.EmbeddingModel,
			Input: text,
		}, &out)
		if err != nil {
			return nil, err
		}
		if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
			return nil, ErrEmptyEmbedding
		}
		return out.Data[0].Embedding, nil
	})
}

func (p *OpenAIEmbeddingProvider) respond(ctx context.Context, instructions, input string) (string, error) {
	if p.config.APIKey == "" {
		return "", ErrProviderNotConfigured
	}

	return execute(p.breaker, func() (string, error) {
		var out openAIResponse
		err := p.post(ctx, "/responses", openAIResponseRequest{
			Model:        p.config.SummaryModel,
			Instructions: instructions,
			Input:        input,
		}, &out)
		if err != nil {
			return "", err
		}

		var b strings.Builder
		for _, item := range out.Output {
			if item.Type != "message" {
				continue
			}
			for _, c := range item.Content {
				if c.Type == "output_text" {
					b.WriteString(c.Text)
				}
			}
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			return "", fmt.Errorf("openai returned no output text")
		}
		return text, nil
	})
}

func (p *OpenAIEmbeddingProvider) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal openai request: %w", err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call openai %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr openAIError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("openai %s returned %d: %s", path, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("openai %s returned status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode openai response: %w", err)
	}
	return nil
}

// MockEmbeddingProvider implements EmbeddingProvider without network access.
// Vectors are hashed bags of words, so texts sharing words score as similar.
type MockEmbeddingProvider struct {
	dimensions int
}

// NewMockEmbeddingProvider creates a deterministic provider
func NewMockEmbeddingProvider(dimensions int) *MockEmbeddingProvider {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &MockEmbeddingProvider{dimensions: dimensions}
}

func (m *MockEmbeddingProvider) Summarize(ctx context.Context, answers []QuizAnswer) (string, error) {
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		if v := strings.TrimSpace(a.Answer); v != "" {
			parts = append(parts, v)
		}
	}
	return "Traveller who enjoys " + strings.Join(parts, ", ") + ".", nil
}

func (m *MockEmbeddingProvider) DescribeDestination(ctx context.Context, city, country string) (string, error) {
	return fmt.Sprintf("%s, %s", city, country), nil
}

func (m *MockEmbeddingProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	vec := make([]float64, m.dimensions)
	for _, word := range strings.FieldsFunc(strings.ToLower(text), isWordSeparator) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%uint32(m.dimensions)]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return nil, ErrEmptyEmbedding
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func isWordSeparator(r rune) bool {
	return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
}

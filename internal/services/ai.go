package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/taskflow/task-tracker-api/internal/models"
)

type AIService struct {
	client *openai.Client
	model  string
}

// TaskSuggestion is a task draft extracted from free text. It is never stored.
type TaskSuggestion struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    models.TaskCategory `json:"category"`
}

func NewAIService(apiKey string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey))
}

// NewAIServiceWithConfig allows pointing the client at a proxy or a test server.
func NewAIServiceWithConfig(cfg openai.ClientConfig) *AIService {
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.GPT4o,
	}
}

// SuggestTasksFromText asks the model to break text down into tasks.
func (s *AIService) SuggestTasksFromText(ctx context.Context, text string) ([]TaskSuggestion, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	today := time.Now().Format(time.DateOnly)
	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Today: %s

Text:
%s

Return a JSON array only, no prose:
[
  {
    "title": "short imperative title",
    "description": "one or two sentences of detail",
    "category": "work" | "personal" | "other"
  }
]

Return [] when the text contains no tasks.`, today, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []TaskSuggestion
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a surrounding markdown code block, which models add
// despite being asked not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

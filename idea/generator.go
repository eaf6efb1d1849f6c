package idea

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"posterbot/config"
	"posterbot/types"
)

// Generator produces one video idea per call from the content config's
// idea prompt.
type Generator struct {
	opts    []option.RequestOption
	content *config.Content
}

// New creates a Generator bound to one content config
func New(apiKey string, content *config.Content) *Generator {
	return &Generator{
		opts:    []option.RequestOption{option.WithAPIKey(apiKey)},
		content: content,
	}
}

// Generate asks the completion endpoint for a subject + concept pair.
// The response must be a JSON object; the config's subject_key names the
// field holding the subject.
func (g *Generator) Generate(ctx context.Context) (*types.Idea, error) {
	log.Println("[idea] Generating content idea...")

	client := openai.NewClient(g.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.content.IdeaModel()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(g.content.IdeaPrompt()),
		},
		Temperature: openai.Float(g.content.ContentIdea.Temperature),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		return nil, fmt.Errorf("idea completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("idea completion returned no choices")
	}

	content := cleanJSON(resp.Choices[0].Message.Content)

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("parse idea JSON: %w", err)
	}

	parsed := &types.Idea{
		Subject: stringField(fields, g.content.SubjectKey()),
		Concept: stringField(fields, "concept"),
	}
	parsed.Subject = strings.TrimSpace(parsed.Subject)
	if parsed.Subject == "" {
		return nil, fmt.Errorf("idea response has empty %q field", g.content.SubjectKey())
	}

	log.Printf("[idea] Subject: %s", parsed.Subject)
	log.Printf("[idea] Concept: %s", parsed.Concept)
	return parsed, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

// cleanJSON strips markdown fences if the model wraps the response in
// ```json ... ```
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

package script

import (
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"posterbot/config"
	"posterbot/types"
)

// Writer turns a concept into narration text via the completion endpoint
type Writer struct {
	opts    []option.RequestOption
	content *config.Content
}

// New creates a Writer bound to one content config
func New(apiKey string, content *config.Content) *Writer {
	return &Writer{
		opts:    []option.RequestOption{option.WithAPIKey(apiKey)},
		content: content,
	}
}

// Write produces the script for a concept and splits it into sentences
func (w *Writer) Write(ctx context.Context, concept string, durationSec int) (*types.Script, error) {
	log.Println("[script] Writing script...")

	client := openai.NewClient(w.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(w.content.StoryModel()),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(w.content.ScriptPrompt(concept, durationSec)),
		},
		Temperature: openai.Float(w.content.StoryWriter.Temperature),
		MaxTokens:   openai.Int(1000),
	})
	if err != nil {
		return nil, fmt.Errorf("script completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("script completion returned no choices")
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if raw == "" {
		return nil, fmt.Errorf("script completion returned empty text")
	}

	sentences := SplitSentences(raw)
	if len(sentences) == 0 {
		return nil, fmt.Errorf("script has no usable sentences")
	}

	log.Printf("[script] Script ready: %d sentences", len(sentences))
	return &types.Script{Raw: raw, Sentences: sentences}, nil
}

// SplitSentences splits narration text on periods and drops a trailing
// fragment shorter than 10 characters, which is usually a cut-off word.
func SplitSentences(text string) []string {
	flat := strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	for _, part := range strings.Split(flat, ".") {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	if n := len(sentences); n > 0 && len(sentences[n-1]) < 10 {
		sentences = sentences[:n-1]
	}
	return sentences
}

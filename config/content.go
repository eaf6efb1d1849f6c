package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Content is a named bundle of prompt templates and model parameters for
// one kind of video. Loaded once and shared read-only across all runs.
type Content struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	ContentIdea  IdeaSection   `yaml:"content_idea"`
	StoryWriter  StorySection  `yaml:"story_writer"`
	ImageGen     ImageSection  `yaml:"image_generation"`
	Distribution Distribution  `yaml:"distribution"`
}

type IdeaSection struct {
	Role                  string   `yaml:"role"`
	Task                  string   `yaml:"task"`
	OutputCharacteristics string   `yaml:"output_characteristics"`
	Examples              []string `yaml:"examples"`
	Model                 string   `yaml:"model"`
	Temperature           float64  `yaml:"temperature"`
	SubjectKey            string   `yaml:"subject_key"`
}

type StorySection struct {
	Role                  string   `yaml:"role"`
	Structure             []string `yaml:"structure"`
	Instructions          string   `yaml:"instructions"`
	OutputCharacteristics string   `yaml:"output_characteristics"`
	Tone                  string   `yaml:"tone"`
	MaxWords              int      `yaml:"max_words"`
	Examples              []string `yaml:"examples"`
	Model                 string   `yaml:"model"`
	Temperature           float64  `yaml:"temperature"`
}

type ImageSection struct {
	Strategy      string         `yaml:"strategy"`
	Mode          string         `yaml:"mode"`
	BaseStyle     string         `yaml:"base_style"`
	Count         int            `yaml:"count"`
	ShotTemplates []ShotTemplate `yaml:"shot_templates"`
}

type ShotTemplate struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Template    string `yaml:"template"`
}

type Distribution struct {
	DefaultPlatform string `yaml:"default_platform"`
	CaptionTemplate string `yaml:"caption_template"`
}

// LoadContent reads <dir>/<name>.yaml and validates it
func LoadContent(dir, name string) (*Content, error) {
	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(dir, name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content config %q: %w", name, err)
	}

	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content config %q: %w", name, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("content config %q: %w", name, err)
	}
	return &c, nil
}

// Validate checks the sections every run depends on
func (c *Content) Validate() error {
	if c.ContentIdea.Role == "" || c.ContentIdea.Task == "" {
		return fmt.Errorf("content_idea section must have role and task")
	}
	if c.StoryWriter.Role == "" {
		return fmt.Errorf("story_writer section must have role")
	}
	if len(c.ImageGen.ShotTemplates) == 0 && c.ImageGen.Mode != "ai_generated" {
		return fmt.Errorf("image_generation section must have shot_templates")
	}
	return nil
}

// IdeaPrompt assembles the full content-idea prompt
func (c *Content) IdeaPrompt() string {
	var sb strings.Builder
	sec := c.ContentIdea
	fmt.Fprintf(&sb, "# ROLE:\n%s\n\n", sec.Role)
	fmt.Fprintf(&sb, "# TASK:\n%s\n\n", sec.Task)
	if sec.OutputCharacteristics != "" {
		fmt.Fprintf(&sb, "# OUTPUT CHARACTERISTICS:\n%s\n\n", sec.OutputCharacteristics)
	}
	if len(sec.Examples) > 0 {
		sb.WriteString("# EXAMPLES:\n\n")
		for i, example := range sec.Examples {
			fmt.Fprintf(&sb, "## Example %d:\n%s\n\n", i+1, example)
		}
	}
	return sb.String()
}

// ScriptPrompt assembles the story-writer prompt for a concept
func (c *Content) ScriptPrompt(concept string, durationSec int) string {
	var sb strings.Builder
	sec := c.StoryWriter
	fmt.Fprintf(&sb, "# ROLE:\n%s\n\n", sec.Role)
	fmt.Fprintf(&sb, "# TASK:\nWrite a %d-second video script based on the following concept: %q.\n\n", durationSec, concept)
	if len(sec.Structure) > 0 {
		sb.WriteString("Use this structure:\n")
		for _, item := range sec.Structure {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
		sb.WriteString("\n")
	}
	if sec.Instructions != "" {
		fmt.Fprintf(&sb, "# INSTRUCTIONS:\n%s\n\n", sec.Instructions)
	}
	if sec.OutputCharacteristics != "" {
		fmt.Fprintf(&sb, "# OUTPUT CHARACTERISTICS:\n%s\n\n", sec.OutputCharacteristics)
	}
	if sec.Tone != "" {
		fmt.Fprintf(&sb, "Tone: %s\n", sec.Tone)
	}
	if sec.MaxWords > 0 {
		fmt.Fprintf(&sb, "Max words: %d\n", sec.MaxWords)
	}
	if len(sec.Examples) > 0 {
		sb.WriteString("\n# EXAMPLES:\n")
		for _, example := range sec.Examples {
			sb.WriteString(example + "\n\n")
		}
	}
	return sb.String()
}

// IdeaModel returns the model for idea generation
func (c *Content) IdeaModel() string {
	if c.ContentIdea.Model != "" {
		return c.ContentIdea.Model
	}
	return "gpt-4o-mini"
}

// StoryModel returns the model for script writing
func (c *Content) StoryModel() string {
	if c.StoryWriter.Model != "" {
		return c.StoryWriter.Model
	}
	return "gpt-4o-mini"
}

// SubjectKey is the JSON key the idea response uses for the subject
func (c *Content) SubjectKey() string {
	if c.ContentIdea.SubjectKey != "" {
		return c.ContentIdea.SubjectKey
	}
	return "subject"
}

// ShotCount is how many images a run should collect or generate
func (c *Content) ShotCount() int {
	if c.ImageGen.Mode == "ai_generated" && c.ImageGen.Count > 0 {
		return c.ImageGen.Count
	}
	if n := len(c.ImageGen.ShotTemplates); n > 0 {
		return n
	}
	return 10
}

// DefaultPlatform is the distribution target used when the CLI does not
// override it
func (c *Content) DefaultPlatform() string {
	if c.Distribution.DefaultPlatform != "" {
		return c.Distribution.DefaultPlatform
	}
	return "mail"
}

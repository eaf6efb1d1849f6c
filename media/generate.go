package media

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

const generateEndpoint = "https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d"

// generateImages renders count images with the FLUX endpoint, one per shot
// template. startIdx keeps filenames unique when an earlier strategy
// already produced some images.
func (c *Collector) generateImages(ctx context.Context, subject string, count, startIdx int) ([]string, error) {
	var paths []string
	for i := 0; i < count; i++ {
		prompt := c.shotPrompt(subject, startIdx+i)
		endpoint := fmt.Sprintf(c.genEndpoint,
			url.PathEscape(prompt),
			c.settings.VideoWidth,
			c.settings.VideoHeight,
			(startIdx+i)*42+7, // stable per-shot seed
		)

		outFile := filepath.Join(c.settings.Paths.Images, fmt.Sprintf("image_%d.jpg", startIdx+i))
		log.Printf("[media] Generating image %d/%d: %q", i+1, count, truncate(prompt, 60))

		// generation occasionally times out, retry with backoff
		var err error
		for attempt := 1; attempt <= 3; attempt++ {
			err = c.download(ctx, c.genClient, endpoint, outFile)
			if err == nil {
				paths = append(paths, outFile)
				break
			}
			log.Printf("[media] Generation attempt %d failed: %v", attempt, err)
			select {
			case <-ctx.Done():
				return paths, ctx.Err()
			case <-time.After(time.Duration(attempt) * 3 * time.Second):
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("image generation produced nothing")
	}
	return paths, nil
}

// shotPrompt fills the i-th shot template with the subject and base style
func (c *Collector) shotPrompt(subject string, i int) string {
	templates := c.content.ImageGen.ShotTemplates
	base := c.content.ImageGen.BaseStyle
	if base == "" {
		base = "photorealistic, high quality"
	}
	if len(templates) == 0 {
		return fmt.Sprintf("%s, %s", simplifyQuery(subject), base)
	}

	tpl := templates[i%len(templates)].Template
	prompt := strings.ReplaceAll(tpl, "{subject}", simplifyQuery(subject))
	return strings.ReplaceAll(prompt, "{base_style}", base)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

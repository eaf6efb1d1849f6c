package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"posterbot/config"
)

// Collector gathers images for a subject using the content config's
// acquisition strategy, falling through the resolved chain until it has
// enough. The images working dir is cleared at the start of every
// collection; runs are sequential so no locking is needed.
type Collector struct {
	settings *config.Settings
	content  *config.Content

	// search/download calls get a short timeout, generation a long one
	httpClient *http.Client
	genClient  *http.Client

	// overridable for tests
	genEndpoint string
}

// NewCollector creates a Collector over the configured working dirs
func NewCollector(settings *config.Settings, content *config.Content) *Collector {
	return &Collector{
		settings:    settings,
		content:     content,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		genClient:   &http.Client{Timeout: 60 * time.Second},
		genEndpoint: generateEndpoint,
	}
}

// Collect returns up to count local image paths for the subject.
// Collecting fewer than count is fine; collecting zero is an error.
func (c *Collector) Collect(ctx context.Context, subject string, count int) ([]string, error) {
	if err := resetDir(c.settings.Paths.Images); err != nil {
		return nil, fmt.Errorf("reset images dir: %w", err)
	}

	chain := ResolveStrategy(c.content.ImageGen.Strategy)
	if len(chain) > 1 {
		log.Printf("[media] Strategy %q not recognized — trying chain %v", c.content.ImageGen.Strategy, chain)
	}

	var paths []string
	for _, strategy := range chain {
		if len(paths) >= count {
			break
		}
		remaining := count - len(paths)

		var (
			collected []string
			err       error
		)
		switch strategy {
		case StrategyGenerate:
			collected, err = c.generateImages(ctx, subject, remaining, len(paths))
		case StrategyStock:
			if c.settings.PexelsAPIKey == "" {
				log.Println("[media] No Pexels API key — skipping stock strategy")
				continue
			}
			collected, err = c.searchStock(ctx, subject, remaining, len(paths))
		case StrategySearch:
			collected, err = c.searchWeb(ctx, subject, remaining, len(paths))
		}
		// a strategy can fail after downloading some images; those are
		// good, keep them
		paths = append(paths, collected...)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[media] Collection interrupted: %v", err)
				break
			}
			log.Printf("[media] Strategy %s failed: %v", strategy, err)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no images collected for %q", subject)
	}

	log.Printf("[media] Collected %d/%d images", len(paths), count)
	return paths, nil
}

// download fetches one image to disk, rejecting responses too small to be
// a real image (error pages)
func (c *Collector) download(ctx context.Context, client *http.Client, url, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PosterBot/1.0)")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return os.WriteFile(outFile, data, 0644)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

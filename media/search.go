package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var searchTemplates = []string{
	"{query}", "{query} photo", "{query} front",
	"{query} side", "{query} close up", "{query} wide shot",
}

var vqdPattern = regexp.MustCompile(`vqd=['"]?([\d-]+)`)

// searchWeb collects images via DuckDuckGo image search. Each results page
// needs a vqd token scraped from the HTML search page first.
func (c *Collector) searchWeb(ctx context.Context, subject string, count, startIdx int) ([]string, error) {
	query := simplifyQuery(subject)

	templates := append([]string(nil), searchTemplates...)
	rand.Shuffle(len(templates), func(i, j int) { templates[i], templates[j] = templates[j], templates[i] })

	var paths []string
	for _, tpl := range templates {
		if len(paths) >= count {
			break
		}

		searchQuery := strings.ReplaceAll(tpl, "{query}", query)
		log.Printf("[media] Searching web images for: %s", searchQuery)

		urls, err := c.imageSearch(ctx, searchQuery)
		if err != nil {
			log.Printf("[media] Web search failed: %v", err)
			continue
		}

		for _, imgURL := range urls {
			if len(paths) >= count {
				break
			}
			outFile := filepath.Join(c.settings.Paths.Images, fmt.Sprintf("image_%d.jpg", startIdx+len(paths)))
			if err := c.download(ctx, c.httpClient, imgURL, outFile); err != nil {
				continue
			}
			paths = append(paths, outFile)
		}

		// be polite between queries, the search endpoint rate-limits hard
		select {
		case <-ctx.Done():
			return paths, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no usable web images for %q", query)
	}
	return paths, nil
}

// imageSearch runs one DuckDuckGo image query and returns result URLs
func (c *Collector) imageSearch(ctx context.Context, query string) ([]string, error) {
	vqd, err := c.fetchVQD(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vqd token: %w", err)
	}

	params := url.Values{}
	params.Set("l", "us-en")
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)

	req, err := http.NewRequestWithContext(ctx, "GET", "https://duckduckgo.com/i.js?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PosterBot/1.0)")
	req.Header.Set("Referer", "https://duckduckgo.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var result struct {
		Results []struct {
			Image string `json:"image"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(result.Results))
	for _, r := range result.Results {
		urls = append(urls, r.Image)
	}
	return urls, nil
}

func (c *Collector) fetchVQD(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", "https://duckduckgo.com/?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PosterBot/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	m := vqdPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no vqd token in search page")
	}
	return string(m[1]), nil
}

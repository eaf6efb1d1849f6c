package media

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
)

const stockSearchURL = "https://api.pexels.com/v1/search"

type stockSearchResponse struct {
	Photos []struct {
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// searchStock collects images from the Pexels search API
func (c *Collector) searchStock(ctx context.Context, subject string, count, startIdx int) ([]string, error) {
	query := simplifyQuery(subject)
	log.Printf("[media] Searching stock photos for: %s", query)

	// over-fetch, not every result is usable
	perPage := count * 3
	if perPage > 80 {
		perPage = 80
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", fmt.Sprintf("%d", perPage))
	params.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, "GET", stockSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.settings.PexelsAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock search: HTTP %d", resp.StatusCode)
	}

	var result stockSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse stock search response: %w", err)
	}
	log.Printf("[media] Found %d stock photos", len(result.Photos))

	var paths []string
	for _, photo := range result.Photos {
		if len(paths) >= count {
			break
		}
		outFile := filepath.Join(c.settings.Paths.Images, fmt.Sprintf("image_%d.jpg", startIdx+len(paths)))
		if err := c.download(ctx, c.httpClient, photo.Src.Large, outFile); err != nil {
			log.Printf("[media] Stock download failed: %v", err)
			continue
		}
		paths = append(paths, outFile)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no usable stock photos for %q", query)
	}
	return paths, nil
}

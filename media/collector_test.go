package media

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"posterbot/config"
)

func testCollector(t *testing.T, srvURL string) *Collector {
	t.Helper()
	settings := &config.Settings{
		VideoWidth:  64,
		VideoHeight: 64,
		Paths: config.PathsSettings{
			Images: filepath.Join(t.TempDir(), "images"),
		},
	}
	content := &config.Content{
		ImageGen: config.ImageSection{
			Strategy:  "generate",
			BaseStyle: "test style",
			ShotTemplates: []config.ShotTemplate{
				{Name: "shot", Template: "{subject}, {base_style}"},
			},
		},
	}
	c := NewCollector(settings, content)
	c.genEndpoint = srvURL + "/gen/%s?w=%d&h=%d&seed=%d"
	return c
}

func fakeImage() []byte {
	return bytes.Repeat([]byte{0xFF}, 200)
}

func TestCollect_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeImage())
	}))
	t.Cleanup(srv.Close)

	c := testCollector(t, srv.URL)
	paths, err := c.Collect(context.Background(), "Mazda RX-7", 3)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("collected %d images, want 3", len(paths))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing collected image %s: %v", p, err)
		}
	}
}

func TestCollect_CancellationKeepsPartialResults(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// first image succeeds, then the batch is cancelled mid-collection
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) > 1 {
			cancel()
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Write(fakeImage())
	}))
	t.Cleanup(srv.Close)

	c := testCollector(t, srv.URL)
	paths, err := c.Collect(ctx, "Mazda RX-7", 3)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("collected %d images, want the 1 downloaded before cancellation", len(paths))
	}
	if _, err := os.Stat(paths[0]); err != nil {
		t.Errorf("partial image missing: %v", err)
	}
}

package compose

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"posterbot/types"
)

// Composer turns ordered image+duration pairs and the combined narration
// track into one mp4, driving ffmpeg the same way the rest of the pipeline
// does for audio.
type Composer struct {
	width     int
	height    int
	fps       int
	videosDir string
}

// New creates a Composer targeting the configured dimensions
func New(width, height, fps int, videosDir string) *Composer {
	return &Composer{width: width, height: height, fps: fps, videosDir: videosDir}
}

// Compose builds <videosDir>/<outputName>.mp4. A length mismatch between
// images and durations is recoverable: both are trimmed to the shorter.
func (c *Composer) Compose(ctx context.Context, images []string, narration *types.Narration, outputName string) (*types.VideoArtifact, error) {
	images, durations := trimToMatch(images, narration.Durations)
	if len(images) == 0 {
		return nil, fmt.Errorf("nothing to compose")
	}

	log.Printf("[compose] Creating video with %d images...", len(images))

	listFile, err := c.writeConcatList(images, durations)
	if err != nil {
		return nil, fmt.Errorf("write concat list: %w", err)
	}

	outFile := filepath.Join(c.videosDir, outputName+".mp4")
	scale := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		c.width, c.height, c.width, c.height,
	)

	args := []string{"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
	}
	if narration.CombinedPath != "" {
		args = append(args, "-i", narration.CombinedPath)
	}
	args = append(args,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-vf", scale,
		"-r", fmt.Sprintf("%d", c.fps),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg compose: %w: %s", err, tail(string(out)))
	}

	var total float64
	for _, d := range durations {
		total += d
	}

	log.Printf("[compose] Video created: %s (%.1fs)", outFile, total)
	return &types.VideoArtifact{Path: outFile, TotalSec: total}, nil
}

// trimToMatch trims images and durations to the shorter of the two. A
// mismatch is recoverable — the tail of the longer side is dropped.
func trimToMatch(images []string, durations []float64) ([]string, []float64) {
	if len(images) == len(durations) {
		return images, durations
	}
	n := min(len(images), len(durations))
	log.Printf("[compose] %d images but %d durations — trimming to %d", len(images), len(durations), n)
	return images[:n], durations[:n]
}

// writeConcatList emits a concat-demuxer list with a duration per image.
// The demuxer needs the last file repeated without a duration line.
func (c *Composer) writeConcatList(images []string, durations []float64) (string, error) {
	var sb strings.Builder
	for i, img := range images {
		abs, err := filepath.Abs(img)
		if err != nil {
			abs = img
		}
		fmt.Fprintf(&sb, "file '%s'\n", abs)
		fmt.Fprintf(&sb, "duration %.3f\n", durations[i])
	}
	if last := images[len(images)-1]; last != "" {
		abs, err := filepath.Abs(last)
		if err != nil {
			abs = last
		}
		fmt.Fprintf(&sb, "file '%s'\n", abs)
	}

	listFile := filepath.Join(c.videosDir, "frames_concat.txt")
	if err := os.WriteFile(listFile, []byte(sb.String()), 0644); err != nil {
		return "", err
	}
	return listFile, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 300 {
		return s[len(s)-300:]
	}
	return s
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

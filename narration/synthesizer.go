package narration

import (
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"posterbot/config"
	"posterbot/types"
)

// Synthesizer converts a script into per-sentence audio segments plus one
// combined track. Segment files live in the audio working dir and are
// transient; the combined track is consumed by the composer.
type Synthesizer struct {
	opts      []option.RequestOption
	voice     string
	audioDir  string
	outputDir string
}

// New creates a Synthesizer writing into the configured working dirs
func New(apiKey, voice, audioDir, outputDir string) *Synthesizer {
	return &Synthesizer{
		opts:      []option.RequestOption{option.WithAPIKey(apiKey)},
		voice:     voice,
		audioDir:  audioDir,
		outputDir: outputDir,
	}
}

// Synthesize generates audio for every sentence and measures real segment
// durations. A sentence that fails to synthesize is skipped and logged;
// zero surviving segments is a hard failure for the run.
func (s *Synthesizer) Synthesize(ctx context.Context, script *types.Script) (*types.Narration, error) {
	if err := resetDir(s.audioDir); err != nil {
		return nil, fmt.Errorf("reset audio dir: %w", err)
	}

	voice := s.pickVoice()
	log.Printf("[narration] Synthesizing %d sentences (voice: %s)...", len(script.Sentences), voice)

	client := openai.NewClient(s.opts...)
	result := &types.Narration{}
	var segmentFiles []string

	for i, sentence := range script.Sentences {
		audioPath := filepath.Join(s.audioDir, fmt.Sprintf("audio_%d.mp3", i))
		if err := s.synthesizeSentence(ctx, client, voice, sentence, audioPath); err != nil {
			log.Printf("[narration] Sentence %d failed: %v — skipping", i, err)
			continue
		}

		dur, err := probeDuration(ctx, audioPath)
		if err != nil {
			log.Printf("[narration] Could not measure sentence %d duration: %v — skipping", i, err)
			continue
		}

		result.Durations = append(result.Durations, dur)
		result.Segments = append(result.Segments, sentence)
		segmentFiles = append(segmentFiles, audioPath)
	}

	if len(result.Durations) == 0 {
		return nil, fmt.Errorf("no audio segments were generated")
	}

	combined := filepath.Join(s.outputDir, "combined_output.wav")
	if err := s.concatenate(ctx, segmentFiles, combined); err != nil {
		return nil, fmt.Errorf("combine audio: %w", err)
	}
	result.CombinedPath = combined

	log.Printf("[narration] Generated %d segments → %s", len(result.Durations), combined)
	return result, nil
}

func (s *Synthesizer) synthesizeSentence(ctx context.Context, client openai.Client, voice, sentence, outFile string) error {
	resp, err := client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoice(voice),
		Input: sentence,
	})
	if err != nil {
		return fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read speech response: %w", err)
	}
	return os.WriteFile(outFile, data, 0644)
}

// concatenate joins the segment files with the ffmpeg concat demuxer.
// The files must arrive in synthesis order — a lexical directory listing
// would put audio_10 before audio_2 and desynchronize the combined track
// from Durations and Segments.
func (s *Synthesizer) concatenate(ctx context.Context, segmentFiles []string, outputFile string) error {
	listFile, err := s.writeSegmentList(segmentFiles)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		outputFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg concat: %w: %s", err, tail(string(out)))
	}
	return nil
}

// writeSegmentList emits the concat-demuxer list, preserving the order of
// segmentFiles exactly
func (s *Synthesizer) writeSegmentList(segmentFiles []string) (string, error) {
	var lines []string
	for _, f := range segmentFiles {
		lines = append(lines, fmt.Sprintf("file '%s'", f))
	}

	listFile := filepath.Join(s.audioDir, "concat_list.txt")
	if err := os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return "", err
	}
	return listFile, nil
}

func (s *Synthesizer) pickVoice() string {
	if s.voice == "random" {
		return config.AvailableVoices[rand.Intn(len(config.AvailableVoices))]
	}
	for _, v := range config.AvailableVoices {
		if s.voice == v {
			return s.voice
		}
	}
	log.Printf("[narration] Unknown voice %q, picking one at random", s.voice)
	return config.AvailableVoices[rand.Intn(len(config.AvailableVoices))]
}

// probeDuration reads the accurate duration of an audio file via ffprobe
func probeDuration(ctx context.Context, audioFile string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioFile,
	).Output()
	if err != nil {
		return 0, err
	}
	var dur float64
	_, err = fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &dur)
	return dur, err
}

// resetDir clears and recreates a working directory. Runs are strictly
// sequential, so there is never a concurrent writer.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 300 {
		return s[len(s)-300:]
	}
	return s
}

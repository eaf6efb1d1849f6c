package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"posterbot/types"
)

// Stage adapter contracts. Each wraps one external service call; the
// orchestrator only depends on these.
type (
	IdeaGenerator interface {
		Generate(ctx context.Context) (*types.Idea, error)
	}
	ScriptWriter interface {
		Write(ctx context.Context, concept string, durationSec int) (*types.Script, error)
	}
	NarrationSynthesizer interface {
		Synthesize(ctx context.Context, script *types.Script) (*types.Narration, error)
	}
	MediaCollector interface {
		Collect(ctx context.Context, subject string, count int) ([]string, error)
	}
	VideoComposer interface {
		Compose(ctx context.Context, images []string, narration *types.Narration, outputName string) (*types.VideoArtifact, error)
	}
	Publisher interface {
		Publish(ctx context.Context, video *types.VideoArtifact, meta types.PublishMetadata) (*types.PublishReceipt, error)
	}
)

// Stages bundles the six adapters an Orchestrator drives
type Stages struct {
	Ideas     IdeaGenerator
	Scripts   ScriptWriter
	Narrator  NarrationSynthesizer
	Media     MediaCollector
	Composer  VideoComposer
	Publisher Publisher
}

// Options tune batch behavior outside the stage contracts
type Options struct {
	// target narration length handed to the script writer
	ScriptDurationSec int
	// per-run working dirs emptied after a successful composition
	TransientDirs []string
	// where the batch report JSON is written; empty disables the report
	LogsDir string
}

// Orchestrator executes N independent runs of the six-stage sequence.
// Runs are strictly sequential; a failure in one run never aborts the
// batch, and per-run working files are reclaimed as soon as the video
// exists.
type Orchestrator struct {
	stages Stages
	opts   Options
	runID  string
}

// RunReport is the recorded outcome of a single run
type RunReport struct {
	Index    int            `json:"index"`
	State    types.RunState `json:"state"`
	Subject  string         `json:"subject,omitempty"`
	Artifact string         `json:"artifact,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// BatchReport is the snapshot written to the logs dir at batch end
type BatchReport struct {
	RunID       string      `json:"run_id"`
	StartedAt   string      `json:"started_at"`
	CompletedAt string      `json:"completed_at"`
	Requested   int         `json:"requested"`
	Produced    int         `json:"produced"`
	Runs        []RunReport `json:"runs"`
}

// New creates an Orchestrator over the given stage adapters
func New(stages Stages, opts Options) *Orchestrator {
	if opts.ScriptDurationSec <= 0 {
		opts.ScriptDurationSec = 60
	}
	return &Orchestrator{
		stages: stages,
		opts:   opts,
		runID:  uuid.NewString()[:8],
	}
}

// Run executes count runs and returns the produced video paths in run
// order. A run whose publish fails still counts as produced — the video
// exists, only distribution failed.
func (o *Orchestrator) Run(ctx context.Context, count int) ([]string, error) {
	if count < 1 {
		return nil, fmt.Errorf("count must be >= 1, got %d", count)
	}

	log.Printf("[pipeline] Starting batch %s: %d run(s)", o.runID, count)
	report := BatchReport{
		RunID:     o.runID,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
		Requested: count,
	}

	var produced []string
	for i := 1; i <= count; i++ {
		log.Printf("[pipeline] ━━━ Run %d/%d ━━━", i, count)

		run := o.runOne(ctx, i)
		report.Runs = append(report.Runs, run)

		if run.Artifact != "" {
			produced = append(produced, run.Artifact)
		} else {
			log.Printf("[pipeline] Run %d failed: %s", i, run.Error)
		}
	}

	report.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	report.Produced = len(produced)
	o.saveReport(report)

	log.Printf("[pipeline] Batch complete: %d/%d videos created", len(produced), count)
	return produced, nil
}

// runOne drives the six stages for one run index. Any stage error ends
// this run only.
func (o *Orchestrator) runOne(ctx context.Context, idx int) RunReport {
	report := RunReport{Index: idx, State: types.StatePending}
	fail := func(stage string, err error) RunReport {
		serr := stageFailure(idx, stage, err)
		log.Printf("[pipeline] %v", serr)
		report.State = types.StateRunFailed
		report.Error = serr.Error()
		return report
	}

	idea, err := o.stages.Ideas.Generate(ctx)
	if err != nil {
		return fail("idea", err)
	}
	if strings.TrimSpace(idea.Subject) == "" {
		return fail("idea", fmt.Errorf("empty subject"))
	}
	report.Subject = idea.Subject
	report.State = types.StateIdeaGenerated

	script, err := o.stages.Scripts.Write(ctx, idea.Concept, o.opts.ScriptDurationSec)
	if err != nil {
		return fail("script", err)
	}
	report.State = types.StateScriptWritten

	narration, err := o.stages.Narrator.Synthesize(ctx, script)
	if err != nil {
		return fail("narration", err)
	}
	if len(narration.Durations) == 0 {
		return fail("narration", fmt.Errorf("no audio segments"))
	}
	report.State = types.StateNarrationDone

	images, err := o.stages.Media.Collect(ctx, idea.Subject, len(narration.Durations))
	if err != nil {
		return fail("media", err)
	}
	if len(images) == 0 {
		return fail("media", fmt.Errorf("no images collected"))
	}
	report.State = types.StateMediaCollected

	outputName := fmt.Sprintf("%03d_%s", idx, SanitizeName(idea.Subject))
	video, err := o.stages.Composer.Compose(ctx, images, narration, outputName)
	if err != nil {
		return fail("compose", err)
	}
	report.State = types.StateVideoComposed
	report.Artifact = video.Path

	// the video exists now — reclaim the run's working files before
	// distribution so a slow or failed publish never leaks them
	o.cleanupTransients(narration)

	meta := types.PublishMetadata{
		Subject: fmt.Sprintf("PosterBot Video: %s", idea.Concept),
		Body:    fmt.Sprintf("Video about: %s\n\nConcept: %s\n\nGenerated by PosterBot", idea.Subject, idea.Concept),
	}
	receipt, err := o.stages.Publisher.Publish(ctx, video, meta)
	switch {
	case err != nil:
		log.Printf("[pipeline] Run %d: distribution failed: %v", idx, err)
		report.State = types.StatePublishFailed
	case !receipt.Success:
		log.Printf("[pipeline] Run %d: distribution did not succeed", idx)
		report.State = types.StatePublishFailed
	default:
		report.State = types.StatePublished
	}

	return report
}

// cleanupTransients empties the per-run working dirs and removes the
// combined-audio intermediate. Best effort: failures are logged, never
// fatal, never retried.
func (o *Orchestrator) cleanupTransients(narration *types.Narration) {
	for _, dir := range o.opts.TransientDirs {
		if err := os.RemoveAll(dir); err != nil {
			log.Printf("[pipeline] Cleanup warning: %v", err)
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Printf("[pipeline] Cleanup warning: %v", err)
		}
	}
	if narration.CombinedPath != "" {
		if err := os.Remove(narration.CombinedPath); err != nil && !os.IsNotExist(err) {
			log.Printf("[pipeline] Cleanup warning: %v", err)
		}
	}
}

func (o *Orchestrator) saveReport(report BatchReport) {
	if o.opts.LogsDir == "" {
		return
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("[pipeline] Could not marshal batch report: %v", err)
		return
	}
	path := filepath.Join(o.opts.LogsDir, fmt.Sprintf("batch_%s.json", o.runID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("[pipeline] Could not save batch report: %v", err)
	}
}

// SanitizeName turns a subject into a filename-safe fragment: only
// alphanumerics, spaces, hyphens and underscores survive, capped at 50
// characters.
func SanitizeName(subject string) string {
	var sb strings.Builder
	for _, r := range subject {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	name := sb.String()
	if len(name) > 50 {
		name = name[:50]
	}
	return name
}

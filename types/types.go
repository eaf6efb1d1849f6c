package types

// Idea is one video concept produced by the idea generator
type Idea struct {
	Subject string `json:"subject"`
	Concept string `json:"concept"`
}

// Script is the narration text for one video, split into sentences
type Script struct {
	Raw       string   `json:"raw"`
	Sentences []string `json:"sentences"`
}

// Narration holds the synthesized audio for a script.
// Durations and Segments are aligned 1:1 — Segments[i] is the sentence
// spoken in the audio whose length is Durations[i].
type Narration struct {
	Durations    []float64 `json:"durations"`
	Segments     []string  `json:"segments"`
	CombinedPath string    `json:"combined_path"`
}

// VideoArtifact is a finished video file. It survives the run — only the
// intermediate audio/image files are cleaned up.
type VideoArtifact struct {
	Path     string  `json:"path"`
	TotalSec float64 `json:"total_sec"`
}

// PublishMetadata is the caption material handed to a publisher
type PublishMetadata struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// PublishReceipt is the terminal state of one publish attempt
type PublishReceipt struct {
	Success    bool   `json:"success"`
	PlatformID string `json:"platform_id,omitempty"`
}

// RunState tracks how far a single pipeline run got
type RunState string

const (
	StatePending        RunState = "pending"
	StateIdeaGenerated  RunState = "idea_generated"
	StateScriptWritten  RunState = "script_written"
	StateNarrationDone  RunState = "narration_done"
	StateMediaCollected RunState = "media_collected"
	StateVideoComposed  RunState = "video_composed"
	StatePublished      RunState = "published"
	StatePublishFailed  RunState = "publish_failed"
	StateRunFailed      RunState = "run_failed"
)

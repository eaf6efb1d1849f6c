package distribute

import (
	"context"
	"fmt"
	"log"

	"posterbot/config"
	"posterbot/types"
)

// Publisher pushes one finished video to a distribution channel. A nil
// error with Success=false means the channel rejected the video; an error
// means the attempt itself broke. Either way the video still exists — the
// orchestrator treats both as a distribution warning, not a run failure.
type Publisher interface {
	Publish(ctx context.Context, video *types.VideoArtifact, meta types.PublishMetadata) (*types.PublishReceipt, error)
}

// ForTarget builds the publisher for a distribution target name
func ForTarget(target string, settings *config.Settings) (Publisher, error) {
	switch target {
	case "none", "":
		return NoopPublisher{}, nil
	case "mail", "email":
		return NewMailer(settings.Email), nil
	case "tiktok":
		store := NewFileCredentialStore(settings.TikTok.CredentialsFile)
		return NewTikTokClient(settings.TikTok, store), nil
	case "youtube":
		return NewYouTubeUploader(settings.YouTube), nil
	default:
		return nil, fmt.Errorf("unknown distribution target: %q", target)
	}
}

// NoopPublisher is the "none" target: the video stays on disk
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, video *types.VideoArtifact, _ types.PublishMetadata) (*types.PublishReceipt, error) {
	log.Printf("[distribute] Skipping distribution for %s", video.Path)
	return &types.PublishReceipt{Success: true}, nil
}

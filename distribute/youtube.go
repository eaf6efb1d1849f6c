package distribute

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"posterbot/config"
	"posterbot/types"
)

// YouTubeUploader publishes via the Data API v3 resumable upload. Unlike
// the platform protocol channel the API client handles chunking and
// token refresh itself, so this is a single blocking call.
type YouTubeUploader struct {
	settings config.YouTubeSettings
	privacy  string
}

// NewYouTubeUploader creates an uploader from the stored OAuth settings
func NewYouTubeUploader(settings config.YouTubeSettings) *YouTubeUploader {
	return &YouTubeUploader{settings: settings, privacy: "private"}
}

func (u *YouTubeUploader) Publish(ctx context.Context, video *types.VideoArtifact, meta types.PublishMetadata) (*types.PublishReceipt, error) {
	conf := &oauth2.Config{
		ClientID:     u.settings.ClientID,
		ClientSecret: u.settings.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: u.settings.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("youtube service: %w", err)
	}

	f, err := os.Open(video.Path)
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	log.Printf("[distribute] Uploading to YouTube: %q", meta.Subject)

	call := svc.Videos.Insert([]string{"snippet", "status"}, &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       meta.Subject,
			Description: meta.Body,
		},
		Status: &youtube.VideoStatus{PrivacyStatus: u.privacy},
	})
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("youtube upload: %w", err)
	}

	log.Printf("[distribute] Uploaded: https://www.youtube.com/watch?v=%s", uploaded.Id)
	return &types.PublishReceipt{Success: true, PlatformID: uploaded.Id}, nil
}

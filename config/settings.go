package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Settings holds the process-wide runtime parameters read from the
// environment. Load .env with godotenv before calling FromEnv.
type Settings struct {
	OpenAIAPIKey string
	PexelsAPIKey string

	Email   EmailSettings
	TikTok  TikTokSettings
	YouTube YouTubeSettings

	VideoWidth  int
	VideoHeight int
	VideoFPS    int

	ImageCount int
	Voice      string

	Paths PathsSettings
}

type EmailSettings struct {
	Sender      string
	Receiver    string
	AppPassword string
	SMTPHost    string
	SMTPPort    int
}

type TikTokSettings struct {
	ClientKey       string
	ClientSecret    string
	CredentialsFile string
}

type YouTubeSettings struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

type PathsSettings struct {
	Output string
	Audio  string
	Images string
	Videos string
	Logs   string
}

// AvailableVoices are the TTS voices "random" picks from
var AvailableVoices = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}

// FromEnv builds Settings from environment variables with the same
// defaults the .env template documents.
func FromEnv() *Settings {
	output := envOr("OUTPUT_DIR", "output")
	return &Settings{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		PexelsAPIKey: os.Getenv("PEXELS_API_KEY"),
		Email: EmailSettings{
			Sender:      os.Getenv("EMAIL_SENDER"),
			Receiver:    os.Getenv("EMAIL_RECEIVER"),
			AppPassword: os.Getenv("EMAIL_APP_PASSWORD"),
			SMTPHost:    envOr("EMAIL_SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:    envInt("EMAIL_SMTP_PORT", 587),
		},
		TikTok: TikTokSettings{
			ClientKey:       os.Getenv("TIKTOK_CLIENT_KEY"),
			ClientSecret:    os.Getenv("TIKTOK_CLIENT_SECRET"),
			CredentialsFile: envOr("TIKTOK_CREDENTIALS_FILE", ".env"),
		},
		YouTube: YouTubeSettings{
			ClientID:     os.Getenv("YOUTUBE_CLIENT_ID"),
			ClientSecret: os.Getenv("YOUTUBE_CLIENT_SECRET"),
			RefreshToken: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
		},
		VideoWidth:  envInt("VIDEO_WIDTH", 1280),
		VideoHeight: envInt("VIDEO_HEIGHT", 1280),
		VideoFPS:    envInt("VIDEO_FPS", 1),
		ImageCount:  envInt("IMAGE_COUNT", 10),
		Voice:       envOr("DEFAULT_VOICE", "random"),
		Paths: PathsSettings{
			Output: output,
			Audio:  filepath.Join(output, "audio"),
			Images: filepath.Join(output, "images"),
			Videos: filepath.Join(output, "videos"),
			Logs:   envOr("LOGS_DIR", "logs"),
		},
	}
}

// Validate checks that everything the requested distribution target needs
// is present. This is the only check that is fatal to the whole batch.
func (s *Settings) Validate(target string) error {
	if s.OpenAIAPIKey == "" {
		return fmt.Errorf("missing required configuration: OPENAI_API_KEY")
	}
	switch target {
	case "mail", "email":
		for name, v := range map[string]string{
			"EMAIL_SENDER":       s.Email.Sender,
			"EMAIL_RECEIVER":     s.Email.Receiver,
			"EMAIL_APP_PASSWORD": s.Email.AppPassword,
		} {
			if v == "" {
				return fmt.Errorf("missing required configuration: %s", name)
			}
		}
	case "tiktok":
		if s.TikTok.ClientKey == "" || s.TikTok.ClientSecret == "" {
			return fmt.Errorf("missing required configuration: TIKTOK_CLIENT_KEY / TIKTOK_CLIENT_SECRET")
		}
	case "youtube":
		if s.YouTube.ClientID == "" || s.YouTube.ClientSecret == "" || s.YouTube.RefreshToken == "" {
			return fmt.Errorf("missing required configuration: YOUTUBE_CLIENT_ID / YOUTUBE_CLIENT_SECRET / YOUTUBE_REFRESH_TOKEN")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown distribution target: %q", target)
	}
	return nil
}

// EnsureDirs creates the output and log directories
func (s *Settings) EnsureDirs() error {
	for _, dir := range []string{s.Paths.Output, s.Paths.Audio, s.Paths.Images, s.Paths.Videos, s.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

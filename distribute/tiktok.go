package distribute

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"posterbot/config"
	"posterbot/types"
)

const (
	defaultAPIBase  = "https://open.tiktokapis.com"
	defaultTokenURL = "https://open.tiktokapis.com/v2/oauth/token/"

	// the platform rejects captions longer than this
	captionMaxLen = 2200

	statusComplete = "PUBLISH_COMPLETE"
	statusFailed   = "FAILED"
)

// ErrAuth marks a credential rejection. It triggers exactly one
// refresh-and-retry at the init phase; anywhere else it is terminal.
var ErrAuth = errors.New("access token rejected")

// ErrPollTimeout marks a status-poll budget exhausted without reaching a
// terminal state. A timeout is a non-success outcome, not a hard error.
var ErrPollTimeout = errors.New("status poll budget exhausted")

// UploadSession is the tracked state of one platform upload between the
// init phase and the terminal poll status.
type UploadSession struct {
	PublishID string
	UploadURL string
}

// TikTokClient drives the three-phase publish protocol: init an upload
// session, transfer the file in a single chunk, then poll processing
// status until a terminal state or the attempt budget runs out.
type TikTokClient struct {
	settings   config.TikTokSettings
	creds      CredentialStore
	httpClient *http.Client

	// overridable for tests
	apiBase   string
	tokenURL  string
	pollDelay time.Duration
	maxPolls  int
	privacy   string
}

// NewTikTokClient creates a client with the production endpoints and the
// default poll budget (30 attempts, 5s apart).
func NewTikTokClient(settings config.TikTokSettings, creds CredentialStore) *TikTokClient {
	return &TikTokClient{
		settings:   settings,
		creds:      creds,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiBase:    defaultAPIBase,
		tokenURL:   defaultTokenURL,
		pollDelay:  5 * time.Second,
		maxPolls:   30,
		privacy:    "SELF_ONLY",
	}
}

// Publish runs the full init → upload → poll exchange for one video
func (t *TikTokClient) Publish(ctx context.Context, video *types.VideoArtifact, meta types.PublishMetadata) (*types.PublishReceipt, error) {
	fi, err := os.Stat(video.Path)
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("stat video: %w", err)
	}
	size := fi.Size()
	caption := buildCaption(meta.Subject, meta.Body)

	creds, err := t.creds.Load()
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("load credentials: %w", err)
	}

	log.Printf("[distribute] Initializing upload session (%.1f MB)...", float64(size)/1024/1024)

	session, err := t.initUpload(ctx, creds.AccessToken, caption, size)
	if errors.Is(err, ErrAuth) {
		// the common case is a stale short-lived token: refresh once,
		// retry init once, and give up on a second rejection
		log.Println("[distribute] Access token expired — refreshing...")
		creds, err = t.refreshCredentials(ctx, creds)
		if err != nil {
			return &types.PublishReceipt{}, fmt.Errorf("refresh credentials: %w", err)
		}
		session, err = t.initUpload(ctx, creds.AccessToken, caption, size)
	}
	if err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("init upload: %w", err)
	}

	log.Printf("[distribute] Uploading video (publish_id: %s)...", session.PublishID)
	if err := t.uploadFile(ctx, session.UploadURL, video.Path, size); err != nil {
		return &types.PublishReceipt{}, fmt.Errorf("upload: %w", err)
	}

	log.Println("[distribute] Upload done — polling processing status...")
	if err := t.awaitPublished(ctx, creds.AccessToken, session.PublishID); err != nil {
		return &types.PublishReceipt{}, err
	}

	log.Printf("[distribute] Published (publish_id: %s)", session.PublishID)
	return &types.PublishReceipt{Success: true, PlatformID: session.PublishID}, nil
}

type initRequest struct {
	PostInfo struct {
		Title        string `json:"title"`
		PrivacyLevel string `json:"privacy_level"`
	} `json:"post_info"`
	SourceInfo struct {
		Source          string `json:"source"`
		VideoSize       int64  `json:"video_size"`
		ChunkSize       int64  `json:"chunk_size"`
		TotalChunkCount int    `json:"total_chunk_count"`
	} `json:"source_info"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type initResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// initUpload declares the file size and caption and opens an upload
// session. The whole file goes up as one chunk.
func (t *TikTokClient) initUpload(ctx context.Context, accessToken, caption string, size int64) (*UploadSession, error) {
	var reqBody initRequest
	reqBody.PostInfo.Title = caption
	reqBody.PostInfo.PrivacyLevel = t.privacy
	reqBody.SourceInfo.Source = "FILE_UPLOAD"
	reqBody.SourceInfo.VideoSize = size
	reqBody.SourceInfo.ChunkSize = size
	reqBody.SourceInfo.TotalChunkCount = 1

	var resp initResponse
	if err := t.postJSON(ctx, accessToken, t.apiBase+"/v2/post/publish/video/init/", reqBody, &resp); err != nil {
		return nil, err
	}
	if resp.Data.PublishID == "" || resp.Data.UploadURL == "" {
		return nil, fmt.Errorf("init response missing publish_id or upload_url")
	}
	return &UploadSession{PublishID: resp.Data.PublishID, UploadURL: resp.Data.UploadURL}, nil
}

// uploadFile transfers the full body in one shot; the range header still
// has to declare the chunk explicitly
func (t *TikTokClient) uploadFile(ctx context.Context, uploadURL, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, f)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("HTTP %d from upload endpoint", resp.StatusCode)
	}
	return nil
}

type statusResponse struct {
	Data struct {
		Status     string `json:"status"`
		FailReason string `json:"fail_reason"`
	} `json:"data"`
	Error apiError `json:"error"`
}

// awaitPublished polls processing status with a fixed delay and a bounded
// attempt count
func (t *TikTokClient) awaitPublished(ctx context.Context, accessToken, publishID string) error {
	for attempt := 1; attempt <= t.maxPolls; attempt++ {
		var resp statusResponse
		reqBody := map[string]string{"publish_id": publishID}
		if err := t.postJSON(ctx, accessToken, t.apiBase+"/v2/post/publish/status/fetch/", reqBody, &resp); err != nil {
			return fmt.Errorf("status fetch: %w", err)
		}

		switch resp.Data.Status {
		case statusComplete:
			return nil
		case statusFailed:
			return fmt.Errorf("platform rejected video: %s", resp.Data.FailReason)
		default:
			log.Printf("[distribute] Status %s (attempt %d/%d)", resp.Data.Status, attempt, t.maxPolls)
		}

		if attempt == t.maxPolls {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.pollDelay):
		}
	}
	return ErrPollTimeout
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Data         struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"data"`
}

// refreshCredentials exchanges the refresh token for a new pair and
// persists it before returning
func (t *TikTokClient) refreshCredentials(ctx context.Context, old Credentials) (Credentials, error) {
	form := url.Values{}
	form.Set("client_key", t.settings.ClientKey)
	form.Set("client_secret", t.settings.ClientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", old.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", t.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Credentials{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credentials{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Credentials{}, fmt.Errorf("token endpoint: HTTP %d: %s", resp.StatusCode, tail(string(body)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return Credentials{}, fmt.Errorf("parse token response: %w", err)
	}
	// tokens come back either at the top level or wrapped in "data"
	fresh := Credentials{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}
	if fresh.AccessToken == "" {
		fresh = Credentials{AccessToken: tok.Data.AccessToken, RefreshToken: tok.Data.RefreshToken}
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		return Credentials{}, fmt.Errorf("token response missing access_token or refresh_token")
	}

	if err := t.creds.Persist(fresh); err != nil {
		return Credentials{}, fmt.Errorf("persist credentials: %w", err)
	}
	return fresh, nil
}

// postJSON sends an authenticated JSON request and decodes the response,
// translating credential rejections into ErrAuth
func (t *TikTokClient) postJSON(ctx context.Context, accessToken, endpoint string, reqBody, out any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuth
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, tail(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	if errField := extractError(body); errField != nil && errField.Code != "" && errField.Code != "ok" {
		if errField.Code == "access_token_invalid" {
			return ErrAuth
		}
		return fmt.Errorf("platform error %s: %s", errField.Code, errField.Message)
	}
	return nil
}

func extractError(body []byte) *apiError {
	var wrapper struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil
	}
	return &wrapper.Error
}

// buildCaption joins title and description and hard-truncates to the
// platform's caption limit. The limit counts characters, so the cut must
// never split a multibyte rune.
func buildCaption(title, description string) string {
	caption := strings.TrimSpace(title)
	if d := strings.TrimSpace(description); d != "" {
		if caption != "" {
			caption += "\n\n"
		}
		caption += d
	}
	if utf8.RuneCountInString(caption) > captionMaxLen {
		runes := []rune(caption)
		caption = string(runes[:captionMaxLen])
	}
	return caption
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 300 {
		return s[:300]
	}
	return s
}

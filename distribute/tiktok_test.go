package distribute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"posterbot/config"
	"posterbot/types"
)

type memStore struct {
	creds     Credentials
	persisted []Credentials
}

func (m *memStore) Load() (Credentials, error) { return m.creds, nil }
func (m *memStore) Persist(c Credentials) error {
	m.creds = c
	m.persisted = append(m.persisted, c)
	return nil
}

// protocolServer scripts the platform endpoints and counts requests
type protocolServer struct {
	srv *httptest.Server

	initCalls   int
	tokenCalls  int
	uploadCalls int
	statusCalls int

	initAuthFailures int      // reject this many init calls with 401 first
	statuses         []string // statuses returned by successive polls
	failReason       string

	lastCaption     string
	lastRange       string
	lastUploadBytes int
}

func newProtocolServer(t *testing.T) *protocolServer {
	t.Helper()
	p := &protocolServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/post/publish/video/init/", func(w http.ResponseWriter, r *http.Request) {
		p.initCalls++
		if p.initCalls <= p.initAuthFailures {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req initRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode init request: %v", err)
		}
		p.lastCaption = req.PostInfo.Title
		fmt.Fprintf(w, `{"data":{"publish_id":"pub-1","upload_url":%q},"error":{"code":"ok"}}`,
			p.srv.URL+"/upload")
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		p.uploadCalls++
		p.lastRange = r.Header.Get("Content-Range")
		body, _ := io.ReadAll(r.Body)
		p.lastUploadBytes = len(body)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/v2/post/publish/status/fetch/", func(w http.ResponseWriter, r *http.Request) {
		p.statusCalls++
		status := "PROCESSING_UPLOAD"
		if p.statusCalls <= len(p.statuses) {
			status = p.statuses[p.statusCalls-1]
		}
		fmt.Fprintf(w, `{"data":{"status":%q,"fail_reason":%q},"error":{"code":"ok"}}`, status, p.failReason)
	})
	mux.HandleFunc("/oauth/token/", func(w http.ResponseWriter, r *http.Request) {
		p.tokenCalls++
		fmt.Fprint(w, `{"access_token":"fresh-access","refresh_token":"fresh-refresh"}`)
	})

	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func newTestClient(p *protocolServer, store CredentialStore) *TikTokClient {
	c := NewTikTokClient(config.TikTokSettings{ClientKey: "key", ClientSecret: "secret"}, store)
	c.apiBase = p.srv.URL
	c.tokenURL = p.srv.URL + "/oauth/token/"
	c.pollDelay = time.Millisecond
	c.maxPolls = 5
	return c
}

func testVideo(t *testing.T, size int) *types.VideoArtifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatal(err)
	}
	return &types.VideoArtifact{Path: path, TotalSec: 30}
}

func TestPublish_HappyPath(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t)
	p.statuses = []string{"PUBLISH_COMPLETE"}
	store := &memStore{creds: Credentials{AccessToken: "a", RefreshToken: "r"}}

	receipt, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 1024), types.PublishMetadata{Subject: "title", Body: "body"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !receipt.Success || receipt.PlatformID != "pub-1" {
		t.Fatalf("receipt = %+v, want success with pub-1", receipt)
	}
	if p.initCalls != 1 || p.uploadCalls != 1 || p.tokenCalls != 0 {
		t.Errorf("calls init=%d upload=%d token=%d, want 1/1/0", p.initCalls, p.uploadCalls, p.tokenCalls)
	}
	if p.lastRange != "bytes 0-1023/1024" {
		t.Errorf("Content-Range = %q, want bytes 0-1023/1024", p.lastRange)
	}
}

func TestPublish_AuthFailureRefreshesOnceAndRetries(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t)
	p.initAuthFailures = 1
	p.statuses = []string{"PUBLISH_COMPLETE"}
	store := &memStore{creds: Credentials{AccessToken: "stale", RefreshToken: "r"}}

	receipt, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 64), types.PublishMetadata{Subject: "t"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !receipt.Success {
		t.Fatal("expected success after refresh")
	}
	if p.tokenCalls != 1 {
		t.Errorf("token calls=%d, want exactly 1", p.tokenCalls)
	}
	if p.initCalls != 2 {
		t.Errorf("init calls=%d, want exactly 2", p.initCalls)
	}
	if len(store.persisted) != 1 || store.persisted[0].AccessToken != "fresh-access" {
		t.Errorf("persisted=%+v, want one fresh pair", store.persisted)
	}
}

func TestPublish_SecondAuthFailureIsTerminal(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t)
	p.initAuthFailures = 2
	store := &memStore{creds: Credentials{AccessToken: "stale", RefreshToken: "r"}}

	receipt, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 64), types.PublishMetadata{Subject: "t"})
	if err == nil {
		t.Fatal("expected terminal error after second auth failure")
	}
	if !errors.Is(err, ErrAuth) {
		t.Errorf("err = %v, want ErrAuth in chain", err)
	}
	if receipt.Success {
		t.Error("receipt should not be success")
	}
	if p.initCalls != 2 {
		t.Errorf("init calls=%d, want exactly 2 (no third attempt)", p.initCalls)
	}
	if p.tokenCalls != 1 {
		t.Errorf("token calls=%d, want exactly 1", p.tokenCalls)
	}
	if p.uploadCalls != 0 {
		t.Errorf("upload calls=%d, want 0", p.uploadCalls)
	}
}

func TestPublish_PollsUntilComplete(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t)
	p.statuses = []string{"PROCESSING_UPLOAD", "PROCESSING_UPLOAD", "PUBLISH_COMPLETE"}
	store := &memStore{creds: Credentials{AccessToken: "a", RefreshToken: "r"}}

	receipt, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 64), types.PublishMetadata{Subject: "t"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !receipt.Success {
		t.Fatal("expected success")
	}
	if p.statusCalls != 3 {
		t.Errorf("status calls=%d, want exactly 3", p.statusCalls)
	}
}

func TestPublish_PollBudgetExhaustedIsTimeout(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t) // every poll returns PROCESSING_UPLOAD
	store := &memStore{creds: Credentials{AccessToken: "a", RefreshToken: "r"}}

	_, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 64), types.PublishMetadata{Subject: "t"})
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("err = %v, want ErrPollTimeout", err)
	}
	if p.statusCalls != 5 {
		t.Errorf("status calls=%d, want exactly the budget of 5", p.statusCalls)
	}
}

func TestPublish_FailedStatusSurfacesReason(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t)
	p.statuses = []string{"FAILED"}
	p.failReason = "video_too_long"
	store := &memStore{creds: Credentials{AccessToken: "a", RefreshToken: "r"}}

	_, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 64), types.PublishMetadata{Subject: "t"})
	if err == nil || !strings.Contains(err.Error(), "video_too_long") {
		t.Fatalf("err = %v, want platform fail reason surfaced", err)
	}
	if p.statusCalls != 1 {
		t.Errorf("status calls=%d, want 1 (FAILED is terminal)", p.statusCalls)
	}
}

func TestPublish_CaptionTruncatedTo2200(t *testing.T) {
	t.Parallel()

	p := newProtocolServer(t)
	p.statuses = []string{"PUBLISH_COMPLETE"}
	store := &memStore{creds: Credentials{AccessToken: "a", RefreshToken: "r"}}

	meta := types.PublishMetadata{
		Subject: strings.Repeat("t", 1200),
		Body:    strings.Repeat("b", 1200),
	}
	if _, err := newTestClient(p, store).Publish(context.Background(), testVideo(t, 64), meta); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(p.lastCaption) != captionMaxLen {
		t.Errorf("caption length=%d, want exactly %d", len(p.lastCaption), captionMaxLen)
	}
}

func TestBuildCaption_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	// multibyte runes straddling the limit must not be cut mid-encoding
	long := strings.Repeat("é", captionMaxLen+50)
	got := buildCaption(long, "")
	if !utf8.ValidString(got) {
		t.Fatal("truncated caption is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(got); n != captionMaxLen {
		t.Errorf("caption rune count = %d, want %d", n, captionMaxLen)
	}

	short := buildCaption("fits", "fine")
	if short != "fits\n\nfine" {
		t.Errorf("short caption altered: %q", short)
	}
}

func TestBuildCaption(t *testing.T) {
	t.Parallel()

	if got := buildCaption("title", "desc"); got != "title\n\ndesc" {
		t.Errorf("buildCaption = %q", got)
	}
	if got := buildCaption("only title", ""); got != "only title" {
		t.Errorf("buildCaption = %q", got)
	}
	if got := buildCaption("", "only body"); got != "only body" {
		t.Errorf("buildCaption = %q", got)
	}
}

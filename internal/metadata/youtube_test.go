package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/api/option"

	"github.com/clipmark/clipmark-server/internal/credpool"
)

func youtubeListJSON() string {
	return `{
		"items": [{
			"id": "dQw4w9WgXcQ",
			"snippet": {
				"title": "Never Gonna Give You Up",
				"channelId": "UCchan",
				"channelTitle": "Rick Astley",
				"thumbnails": {"high": {"url": "https://i.ytimg.example/hq.jpg"}}
			},
			"contentDetails": {"duration": "PT3M33S"}
		}]
	}`
}

func newTestYouTube(serverURL string, keys []string) (*YouTube, *credpool.Pool) {
	pool := credpool.New(keys)
	adapter := NewYouTube(pool, testLogger(), option.WithEndpoint(serverURL))
	return adapter, pool
}

func TestYouTube_Resolve(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(youtubeListJSON()))
	}))
	defer server.Close()

	adapter, _ := newTestYouTube(server.URL, []string{"key1"})
	got, err := adapter.Resolve(context.Background(), "dQw4w9WgXcQ", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotKey != "key1" {
		t.Errorf("api key = %q, want key1", gotKey)
	}
	if got.Title != "Never Gonna Give You Up" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.DurationSec != 213 {
		t.Errorf("DurationSec = %d, want 213", got.DurationSec)
	}
	if got.ChannelID != "UCchan" || got.ChannelName != "Rick Astley" {
		t.Errorf("channel = %q/%q", got.ChannelID, got.ChannelName)
	}
	if got.ThumbnailURL != "https://i.ytimg.example/hq.jpg" {
		t.Errorf("ThumbnailURL = %q", got.ThumbnailURL)
	}
}

func TestYouTube_Resolve_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	adapter, _ := newTestYouTube(server.URL, []string{"key1"})
	_, err := adapter.Resolve(context.Background(), "gone", false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestYouTube_Resolve_ConfigMissing(t *testing.T) {
	adapter, _ := newTestYouTube("http://unused.invalid", nil)
	_, err := adapter.Resolve(context.Background(), "abc", false)
	if !errors.Is(err, ErrConfigMissing) {
		t.Errorf("error = %v, want ErrConfigMissing", err)
	}
}

func TestYouTube_Resolve_QuotaRotatesKey(t *testing.T) {
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		if len(keys) == 1 {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error": {"code": 403, "message": "quota", "errors": [{"reason": "quotaExceeded"}]}}`))
			return
		}
		w.Write([]byte(youtubeListJSON()))
	}))
	defer server.Close()

	adapter, pool := newTestYouTube(server.URL, []string{"key1", "key2"})
	got, err := adapter.Resolve(context.Background(), "dQw4w9WgXcQ", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Title == "" {
		t.Error("expected metadata from the second key")
	}

	if len(keys) != 2 || keys[0] != "key1" || keys[1] != "key2" {
		t.Errorf("key sequence = %v, want rotation from key1 to key2", keys)
	}
	if pool.Available() != 1 {
		t.Errorf("Available() = %d, want 1 after exhausting key1", pool.Available())
	}
}

func TestClassifyYouTubeError_NonAPIErrorIsTransient(t *testing.T) {
	err := classifyYouTubeError(errors.New("dial tcp: connection refused"))
	if !errors.Is(err, ErrTransient) {
		t.Errorf("error = %v, want ErrTransient", err)
	}
}

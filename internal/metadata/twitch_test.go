package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipmark/clipmark-server/internal/credpool"
)

func twitchVideoJSON() string {
	return `{
		"data": [{
			"id": "1234567890",
			"user_id": "9876",
			"user_name": "Streamer",
			"title": "Speedrun attempts",
			"thumbnail_url": "https://static.example/thumb-%{width}x%{height}.jpg",
			"duration": "3h8m33s"
		}]
	}`
}

func TestTwitch_Resolve(t *testing.T) {
	var gotClientID, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "1234567890" {
			t.Errorf("unexpected id param: %s", r.URL.Query().Get("id"))
		}
		gotClientID = r.Header.Get("Client-Id")
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(twitchVideoJSON()))
	}))
	defer server.Close()

	adapter := NewTwitch(server.URL, "client1", credpool.New([]string{"tok1"}), testLogger())
	got, err := adapter.Resolve(context.Background(), "1234567890", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotClientID != "client1" {
		t.Errorf("Client-Id = %q, want client1", gotClientID)
	}
	if gotAuth != "Bearer tok1" {
		t.Errorf("Authorization = %q, want Bearer tok1", gotAuth)
	}
	if got.Title != "Speedrun attempts" {
		t.Errorf("Title = %q", got.Title)
	}
	if got.DurationSec != 3*3600+8*60+33 {
		t.Errorf("DurationSec = %d, want 11313", got.DurationSec)
	}
	if got.ThumbnailURL != "https://static.example/thumb-640x360.jpg" {
		t.Errorf("ThumbnailURL = %q, template not filled", got.ThumbnailURL)
	}
	if got.ChannelID != "9876" || got.ChannelName != "Streamer" {
		t.Errorf("channel = %q/%q", got.ChannelID, got.ChannelName)
	}
}

func TestTwitch_Resolve_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	adapter := NewTwitch(server.URL, "client1", credpool.New([]string{"tok1"}), testLogger())
	_, err := adapter.Resolve(context.Background(), "42", false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestTwitch_Resolve_ConfigMissing(t *testing.T) {
	adapter := NewTwitch("", "", credpool.New(nil), testLogger())
	_, err := adapter.Resolve(context.Background(), "42", false)
	if !errors.Is(err, ErrConfigMissing) {
		t.Errorf("error = %v, want ErrConfigMissing", err)
	}
}

func TestTwitch_Resolve_RateLimitRotatesToken(t *testing.T) {
	var tokens []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get("Authorization"))
		if len(tokens) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(twitchVideoJSON()))
	}))
	defer server.Close()

	pool := credpool.New([]string{"tok1", "tok2"})
	adapter := NewTwitch(server.URL, "client1", pool, testLogger())

	got, err := adapter.Resolve(context.Background(), "1234567890", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Title == "" {
		t.Error("expected metadata from the second token")
	}

	if len(tokens) != 2 || tokens[0] != "Bearer tok1" || tokens[1] != "Bearer tok2" {
		t.Errorf("token sequence = %v, want rotation from tok1 to tok2", tokens)
	}
	if pool.Available() != 1 {
		t.Errorf("Available() = %d, want 1 after exhausting tok1", pool.Available())
	}
}

func TestTwitch_Resolve_PoolExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := NewTwitch(server.URL, "client1", credpool.New([]string{"tok1", "tok2", "tok3"}), testLogger())
	_, err := adapter.Resolve(context.Background(), "42", false)
	if !errors.Is(err, credpool.ErrExhausted) {
		t.Errorf("error = %v, want ErrExhausted after one bounded rotation", err)
	}
}

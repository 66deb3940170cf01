package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/clipmark/clipmark-server/internal/credpool"
)

const (
	DefaultTwitchBaseURL = "https://api.twitch.tv/helix"

	// Helix thumbnail URLs are templates; the placeholders must be filled
	// with concrete dimensions before the URL is returned.
	twitchThumbWidth  = "640"
	twitchThumbHeight = "360"
)

// Twitch resolves VODs through the Helix API. Helix requires a Client-ID
// header plus a bearer token; tokens are rate limited per token, so they
// come from a credential pool while the client id is fixed per deployment.
type Twitch struct {
	baseURL     string
	clientID    string
	pool        *credpool.Pool
	httpClient  *http.Client
	logger      *slog.Logger
	missingOnce sync.Once
}

func NewTwitch(baseURL, clientID string, pool *credpool.Pool, logger *slog.Logger) *Twitch {
	if baseURL == "" {
		baseURL = DefaultTwitchBaseURL
	}
	return &Twitch{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		pool:     pool,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type twitchVideo struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	UserName     string `json:"user_name"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     string `json:"duration"`
}

type twitchVideosResponse struct {
	Data []twitchVideo `json:"data"`
}

func (t *Twitch) Resolve(ctx context.Context, resourceID string, isLive bool) (*Resolved, error) {
	if t.clientID == "" || t.pool.Size() == 0 {
		t.missingOnce.Do(func() {
			t.logger.Warn("twitch client id or tokens not configured, metadata enrichment disabled")
		})
		return nil, ErrConfigMissing
	}

	var resolved *Resolved
	err := t.pool.Do(func(token string) error {
		video, err := t.fetchVideo(ctx, resourceID, token)
		if err != nil {
			return err
		}

		resolved = &Resolved{
			Title:        video.Title,
			ThumbnailURL: fillTwitchThumbnail(video.ThumbnailURL),
			DurationSec:  parseCompactDuration(video.Duration),
			ChannelID:    video.UserID,
			ChannelName:  video.UserName,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resolved, nil
}

func (t *Twitch) fetchVideo(ctx context.Context, id, token string) (*twitchVideo, error) {
	url := t.baseURL + "/videos?id=" + id
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create twitch request: %w", err)
	}
	req.Header.Set("Client-Id", t.clientID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitch request: %w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("twitch rate limited: %w", credpool.ErrQuotaExceeded)
	case resp.StatusCode == http.StatusUnauthorized:
		// An expired token behaves like an exhausted credential: rotate to
		// the next one instead of failing the caller outright.
		return nil, fmt.Errorf("twitch token rejected: %w", credpool.ErrQuotaExceeded)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("twitch video %s: %w", id, ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("twitch http %d: %w", resp.StatusCode, ErrTransient)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("twitch http %d: %w", resp.StatusCode, ErrNotFound)
	}

	var videos twitchVideosResponse
	if err := json.Unmarshal(body, &videos); err != nil {
		return nil, fmt.Errorf("decode twitch response: %w: %w", ErrTransient, err)
	}
	if len(videos.Data) == 0 {
		return nil, fmt.Errorf("twitch video %s: %w", id, ErrNotFound)
	}
	return &videos.Data[0], nil
}

func fillTwitchThumbnail(url string) string {
	url = strings.ReplaceAll(url, "%{width}", twitchThumbWidth)
	return strings.ReplaceAll(url, "%{height}", twitchThumbHeight)
}

package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/clipmark/clipmark-server/internal/credpool"
)

// YouTube resolves videos through the YouTube Data API v3. Every call runs
// through the credential pool so a key that hits its daily quota rotates out
// without stalling the caller.
type YouTube struct {
	pool        *credpool.Pool
	logger      *slog.Logger
	opts        []option.ClientOption
	missingOnce sync.Once
}

// NewYouTube builds the adapter. Extra client options are appended after the
// per-call API key, which lets tests point the client at a local server.
func NewYouTube(pool *credpool.Pool, logger *slog.Logger, opts ...option.ClientOption) *YouTube {
	return &YouTube{pool: pool, logger: logger, opts: opts}
}

func (y *YouTube) Resolve(ctx context.Context, resourceID string, isLive bool) (*Resolved, error) {
	if y.pool.Size() == 0 {
		y.missingOnce.Do(func() {
			y.logger.Warn("youtube api keys not configured, metadata enrichment disabled")
		})
		return nil, ErrConfigMissing
	}

	var resolved *Resolved
	err := y.pool.Do(func(key string) error {
		opts := append([]option.ClientOption{option.WithAPIKey(key)}, y.opts...)
		svc, err := youtube.NewService(ctx, opts...)
		if err != nil {
			return fmt.Errorf("create youtube client: %w", err)
		}

		resp, err := svc.Videos.
			List([]string{"snippet", "contentDetails", "liveStreamingDetails"}).
			Id(resourceID).
			Context(ctx).
			Do()
		if err != nil {
			return classifyYouTubeError(err)
		}
		if len(resp.Items) == 0 {
			return ErrNotFound
		}

		resolved = youtubeItemToResolved(resp.Items[0], isLive)
		return nil
	})
	if err != nil {
		if errors.Is(err, credpool.ErrExhausted) {
			y.logger.Warn("youtube credential pool exhausted", "resource_id", resourceID)
		}
		return nil, err
	}
	return resolved, nil
}

func youtubeItemToResolved(item *youtube.Video, isLive bool) *Resolved {
	r := &Resolved{Title: item.Snippet.Title}
	r.ChannelID = item.Snippet.ChannelId
	r.ChannelName = item.Snippet.ChannelTitle
	r.ThumbnailURL = pickThumbnail(item.Snippet.Thumbnails)

	if item.ContentDetails != nil {
		r.DurationSec = parseISODuration(item.ContentDetails.Duration)
	}
	if isLive && item.LiveStreamingDetails != nil && item.LiveStreamingDetails.ActualStartTime != "" {
		if opened, err := time.Parse(time.RFC3339, item.LiveStreamingDetails.ActualStartTime); err == nil {
			r.LiveOpenedAt = opened
		}
	}
	return r
}

func pickThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, c := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if c != nil && c.Url != "" {
			return c.Url
		}
	}
	return ""
}

// classifyYouTubeError maps Data API failures onto the resolver taxonomy.
// 403s carry a reason code; only the quota family triggers rotation.
func classifyYouTubeError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("youtube request: %w: %w", ErrTransient, err)
	}

	if gerr.Code == 403 {
		for _, item := range gerr.Errors {
			switch item.Reason {
			case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded":
				return fmt.Errorf("youtube %s: %w", item.Reason, credpool.ErrQuotaExceeded)
			}
		}
	}
	if gerr.Code >= 500 {
		return fmt.Errorf("youtube http %d: %w", gerr.Code, ErrTransient)
	}
	return fmt.Errorf("youtube http %d: %w", gerr.Code, ErrNotFound)
}

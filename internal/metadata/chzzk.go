package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultChzzkBaseURL = "https://api.chzzk.naver.com"

	// Chzzk image URLs carry a {type} size placeholder that must be filled
	// with concrete dimensions before the URL is usable.
	chzzkThumbnailSize = "480"

	chzzkOpenDateLayout = "2006-01-02 15:04:05"
)

// Chzzk resolves VODs and live channels through the public Chzzk API. The
// API is unauthenticated but lower-throughput, so calls go out directly
// without a credential pool.
type Chzzk struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewChzzk(baseURL string, logger *slog.Logger) *Chzzk {
	if baseURL == "" {
		baseURL = DefaultChzzkBaseURL
	}
	return &Chzzk{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type chzzkEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Content json.RawMessage `json:"content"`
}

type chzzkChannel struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
}

type chzzkVideo struct {
	VideoTitle        string       `json:"videoTitle"`
	ThumbnailImageURL string       `json:"thumbnailImageUrl"`
	Duration          int          `json:"duration"`
	Channel           chzzkChannel `json:"channel"`
}

type chzzkLiveDetail struct {
	Status       string       `json:"status"`
	LiveTitle    string       `json:"liveTitle"`
	LiveImageURL string       `json:"liveImageUrl"`
	OpenDate     string       `json:"openDate"`
	Channel      chzzkChannel `json:"channel"`
}

func (c *Chzzk) Resolve(ctx context.Context, resourceID string, isLive bool) (*Resolved, error) {
	if isLive {
		return c.resolveLive(ctx, resourceID)
	}
	return c.resolveVideo(ctx, resourceID)
}

func (c *Chzzk) resolveVideo(ctx context.Context, videoNo string) (*Resolved, error) {
	var video chzzkVideo
	if err := c.get(ctx, "/service/v1/videos/"+videoNo, &video); err != nil {
		return nil, err
	}
	if video.VideoTitle == "" {
		return nil, fmt.Errorf("chzzk video %s: %w", videoNo, ErrNotFound)
	}

	return &Resolved{
		Title:        video.VideoTitle,
		ThumbnailURL: fillChzzkImageSize(video.ThumbnailImageURL),
		DurationSec:  video.Duration,
		ChannelID:    video.Channel.ChannelID,
		ChannelName:  video.Channel.ChannelName,
	}, nil
}

func (c *Chzzk) resolveLive(ctx context.Context, channelID string) (*Resolved, error) {
	var detail chzzkLiveDetail
	if err := c.get(ctx, "/service/v1/channels/"+channelID+"/live-detail", &detail); err != nil {
		return nil, err
	}

	// A known channel with no open stream is a distinct outcome from a
	// wrong video id: the stream ended, the URL is not wrong.
	if detail.Status != "OPEN" {
		return nil, fmt.Errorf("chzzk channel %s: %w", channelID, ErrChannelOffline)
	}

	r := &Resolved{
		Title:        detail.LiveTitle,
		ThumbnailURL: fillChzzkImageSize(detail.LiveImageURL),
		ChannelID:    detail.Channel.ChannelID,
		ChannelName:  detail.Channel.ChannelName,
	}
	if detail.Channel.ChannelID == "" {
		r.ChannelID = channelID
	}
	if opened, err := time.Parse(chzzkOpenDateLayout, detail.OpenDate); err == nil {
		r.LiveOpenedAt = opened
	}
	return r, nil
}

func (c *Chzzk) get(ctx context.Context, path string, content any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create chzzk request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chzzk request: %w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("chzzk %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("chzzk http %d: %w", resp.StatusCode, ErrTransient)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chzzk http %d: %w", resp.StatusCode, ErrNotFound)
	}

	var env chzzkEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode chzzk response: %w: %w", ErrTransient, err)
	}
	if env.Code != 200 || len(env.Content) == 0 || string(env.Content) == "null" {
		return fmt.Errorf("chzzk code %d: %w", env.Code, ErrNotFound)
	}
	if err := json.Unmarshal(env.Content, content); err != nil {
		return fmt.Errorf("decode chzzk content: %w: %w", ErrTransient, err)
	}
	return nil
}

func fillChzzkImageSize(url string) string {
	return strings.ReplaceAll(url, "{type}", chzzkThumbnailSize)
}

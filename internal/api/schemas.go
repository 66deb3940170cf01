package api

import (
	"time"

	"github.com/clipmark/clipmark-server/internal/config"
	"github.com/clipmark/clipmark-server/internal/project"
	"github.com/clipmark/clipmark-server/internal/timestamps"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	Version       string `json:"version"`
	UptimeS       int64  `json:"uptime_s"`
	ProjectsCount int    `json:"projects_count"`
	FoldersCount  int    `json:"folders_count"`
}

type CreateProjectRequest struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	FolderID string `json:"folder_id,omitempty"`
}

type ProjectResponse struct {
	ID           string `json:"id"`
	FolderID     string `json:"folder_id,omitempty"`
	Title        string `json:"title"`
	SourceURL    string `json:"source_url"`
	Platform     string `json:"platform"`
	ResourceID   string `json:"resource_id"`
	IsLive       bool   `json:"is_live"`
	ChannelID    string `json:"channel_id,omitempty"`
	ChannelName  string `json:"channel_name,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	DurationSec  int    `json:"duration_sec,omitempty"`
	Notes        string `json:"notes"`
	ShareCode    string `json:"share_code,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type ClipResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text,omitempty"`
}

type ShareResponse struct {
	ShareCode string         `json:"share_code"`
	Path      string         `json:"path"`
	Clips     []ClipResponse `json:"clips"`
}

type SharedViewResponse struct {
	Title        string         `json:"title"`
	SourceURL    string         `json:"source_url"`
	Platform     string         `json:"platform"`
	ResourceID   string         `json:"resource_id"`
	ChannelName  string         `json:"channel_name,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	DurationSec  int            `json:"duration_sec,omitempty"`
	Clips        []ClipResponse `json:"clips"`
}

type FolderRequest struct {
	Name string `json:"name"`
}

type FolderResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
}

type FoldersResponse struct {
	Folders []FolderResponse `json:"folders"`
}

type RefreshRequest struct {
	Mode string `json:"mode,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:           p.ID,
		FolderID:     p.FolderID,
		Title:        p.Title,
		SourceURL:    p.SourceURL,
		Platform:     p.Platform,
		ResourceID:   p.ResourceID,
		IsLive:       p.IsLive,
		ChannelID:    p.ChannelID,
		ChannelName:  p.ChannelName,
		ThumbnailURL: p.ThumbnailURL,
		DurationSec:  p.DurationSec,
		Notes:        p.Notes,
		ShareCode:    p.ShareCode,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func FolderToResponse(f *project.Folder) FolderResponse {
	return FolderResponse{
		ID:        f.ID,
		Name:      f.Name,
		Position:  f.Position,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func ClipsToResponse(clips []timestamps.Clip) []ClipResponse {
	out := make([]ClipResponse, len(clips))
	for i, c := range clips {
		out[i] = ClipResponse{Start: c.Start, End: c.End, Text: c.Text}
	}
	return out
}

func versionString() string {
	return config.Version
}

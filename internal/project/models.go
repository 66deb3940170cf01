package project

import (
	"time"

	"github.com/google/uuid"

	"github.com/clipmark/clipmark-server/internal/videourl"
)

// Project is one long-form video with its timestamp notes. The video
// reference (platform/resource id) is derived from the source URL at
// creation; metadata fields are best-effort enrichment and may be empty.
type Project struct {
	ID           string    `json:"id"`
	FolderID     string    `json:"folder_id,omitempty"`
	Title        string    `json:"title"`
	SourceURL    string    `json:"source_url"`
	Platform     string    `json:"platform"`
	ResourceID   string    `json:"resource_id"`
	IsLive       bool      `json:"is_live"`
	ChannelID    string    `json:"channel_id,omitempty"`
	ChannelName  string    `json:"channel_name,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DurationSec  int       `json:"duration_sec,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ShareCode    string    `json:"share_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Ref rebuilds the classified video reference stored with the project.
func (p *Project) Ref() videourl.Ref {
	return videourl.Ref{
		Platform:   videourl.Platform(p.Platform),
		ResourceID: p.ResourceID,
		IsLive:     p.IsLive,
	}
}

// Folder groups projects in the dashboard. Position drives manual ordering.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// MetadataPatch is a minimal-diff update against a project's enrichment
// fields: only non-nil fields are written, so stale resolver output never
// clobbers data the user already has.
type MetadataPatch struct {
	ChannelID    *string
	ChannelName  *string
	ThumbnailURL *string
	DurationSec  *int
}

func (p MetadataPatch) Empty() bool {
	return p.ChannelID == nil && p.ChannelName == nil && p.ThumbnailURL == nil && p.DurationSec == nil
}

// Fields lists the names of the fields the patch would write, for reporting.
func (p MetadataPatch) Fields() []string {
	var fields []string
	if p.ChannelID != nil {
		fields = append(fields, "channel_id")
	}
	if p.ChannelName != nil {
		fields = append(fields, "channel_name")
	}
	if p.ThumbnailURL != nil {
		fields = append(fields, "thumbnail_url")
	}
	if p.DurationSec != nil {
		fields = append(fields, "duration_sec")
	}
	return fields
}

func NewID() string {
	return uuid.NewString()
}

// Package metadata resolves classified video references to normalized
// metadata across the supported upstream platforms. Each platform is wrapped
// by one adapter behind a single contract; the Resolver composes the URL
// classifier and the adapters into one entry point.
package metadata

import (
	"context"
	"errors"
	"time"
)

// Typed resolution outcomes. Adapters and the Resolver wrap these so callers
// can branch with errors.Is without parsing message strings.
var (
	// ErrUnknownPlatform means the URL matched no supported platform. It is
	// a user-facing validation failure, never a system fault.
	ErrUnknownPlatform = errors.New("unrecognized video URL")

	// ErrNotFound means the upstream responded but had no matching resource.
	ErrNotFound = errors.New("video not found on the platform")

	// ErrChannelOffline is the live-channel variant of not-found: the
	// channel exists but reports no open stream. Callers surface it with a
	// different message because a stream that ended is not a wrong URL.
	ErrChannelOffline = errors.New("channel is not currently live")

	// ErrConfigMissing means the adapter's credentials are absent from
	// deployment configuration. Expected in low-privilege deployments;
	// callers degrade gracefully instead of failing the whole operation.
	ErrConfigMissing = errors.New("platform credentials not configured")

	// ErrTransient marks transport-level upstream failures so the batch
	// refresher can distinguish "retry later" from "confirmed absent".
	ErrTransient = errors.New("upstream temporarily unavailable")
)

// Resolved is the normalized metadata contract shared by all adapters.
// Every field except Title is best-effort; upstream platforms may omit them
// and absence is not an error.
type Resolved struct {
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DurationSec  int       `json:"duration_sec,omitempty"`
	ChannelID    string    `json:"channel_id,omitempty"`
	ChannelName  string    `json:"channel_name,omitempty"`
	LiveOpenedAt time.Time `json:"live_opened_at,omitzero"`
}

// Adapter translates one upstream platform's API into the normalized
// contract. Implementations never raise for transport errors; they convert
// them to ErrTransient so the Resolver's control flow stays uniform.
type Adapter interface {
	Resolve(ctx context.Context, resourceID string, isLive bool) (*Resolved, error)
}

package metadata

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clipmark/clipmark-server/internal/videourl"
)

// Resolver classifies a raw URL and dispatches to the matching platform
// adapter. Unknown URLs fail fast without touching any adapter or credential
// state.
type Resolver struct {
	adapters map[videourl.Platform]Adapter
	logger   *slog.Logger
}

func NewResolver(youtube, chzzk, twitch Adapter, logger *slog.Logger) *Resolver {
	return &Resolver{
		adapters: map[videourl.Platform]Adapter{
			videourl.PlatformYouTube: youtube,
			videourl.PlatformChzzk:   chzzk,
			videourl.PlatformTwitch:  twitch,
		},
		logger: logger,
	}
}

// Resolve classifies rawURL and resolves its metadata. The returned Ref is
// valid whenever the platform was recognized, even if resolution failed, so
// callers can persist the reference and enrich it later.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (videourl.Ref, *Resolved, error) {
	ref := videourl.Classify(rawURL)
	if !ref.Known() {
		return ref, nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, rawURL)
	}

	resolved, err := r.ResolveRef(ctx, ref)
	return ref, resolved, err
}

// ResolveRef resolves metadata for an already-classified reference, e.g. a
// stored project's video during a batch refresh.
func (r *Resolver) ResolveRef(ctx context.Context, ref videourl.Ref) (*Resolved, error) {
	adapter, ok := r.adapters[ref.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: platform %q", ErrUnknownPlatform, ref.Platform)
	}

	resolved, err := adapter.Resolve(ctx, ref.ResourceID, ref.IsLive)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved video metadata",
		"platform", string(ref.Platform),
		"resource_id", ref.ResourceID,
		"is_live", ref.IsLive,
		"title", resolved.Title,
	)
	return resolved, nil
}

package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/clipmark/clipmark-server/internal/videourl"
)

type fakeAdapter struct {
	calls    int
	resolved *Resolved
	err      error

	gotResourceID string
	gotIsLive     bool
}

func (f *fakeAdapter) Resolve(ctx context.Context, resourceID string, isLive bool) (*Resolved, error) {
	f.calls++
	f.gotResourceID = resourceID
	f.gotIsLive = isLive
	if f.err != nil {
		return nil, f.err
	}
	return f.resolved, nil
}

func TestResolver_UnknownURLFailsFast(t *testing.T) {
	yt := &fakeAdapter{}
	cz := &fakeAdapter{}
	tw := &fakeAdapter{}
	r := NewResolver(yt, cz, tw, testLogger())

	ref, _, err := r.Resolve(context.Background(), "https://example.com/some/page")
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("error = %v, want ErrUnknownPlatform", err)
	}
	if ref.Known() {
		t.Error("ref should be unknown")
	}
	if yt.calls+cz.calls+tw.calls != 0 {
		t.Error("no adapter may be invoked for an unclassifiable URL")
	}
}

func TestResolver_DispatchesToYouTube(t *testing.T) {
	yt := &fakeAdapter{resolved: &Resolved{Title: "a video"}}
	cz := &fakeAdapter{}
	tw := &fakeAdapter{}
	r := NewResolver(yt, cz, tw, testLogger())

	ref, resolved, err := r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if ref.Platform != videourl.PlatformYouTube {
		t.Errorf("platform = %s", ref.Platform)
	}
	if resolved.Title != "a video" {
		t.Errorf("Title = %q", resolved.Title)
	}
	if yt.calls != 1 || yt.gotResourceID != "dQw4w9WgXcQ" {
		t.Errorf("youtube adapter calls = %d, id = %q", yt.calls, yt.gotResourceID)
	}
	if cz.calls+tw.calls != 0 {
		t.Error("only the matching adapter may be invoked")
	}
}

func TestResolver_LiveChannelPassesIsLive(t *testing.T) {
	cz := &fakeAdapter{resolved: &Resolved{Title: "live"}}
	r := NewResolver(&fakeAdapter{}, cz, &fakeAdapter{}, testLogger())

	_, _, err := r.Resolve(context.Background(), "https://chzzk.naver.com/live/0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !cz.gotIsLive {
		t.Error("isLive flag not propagated to the adapter")
	}
}

func TestResolver_AdapterErrorsPassThrough(t *testing.T) {
	tw := &fakeAdapter{err: ErrConfigMissing}
	r := NewResolver(&fakeAdapter{}, &fakeAdapter{}, tw, testLogger())

	_, _, err := r.Resolve(context.Background(), "https://www.twitch.tv/videos/42")
	if !errors.Is(err, ErrConfigMissing) {
		t.Errorf("error = %v, want ErrConfigMissing", err)
	}
}

func TestResolver_ResolveRefUnknownPlatform(t *testing.T) {
	r := NewResolver(&fakeAdapter{}, &fakeAdapter{}, &fakeAdapter{}, testLogger())

	_, err := r.ResolveRef(context.Background(), videourl.Ref{Platform: videourl.PlatformUnknown})
	if !errors.Is(err, ErrUnknownPlatform) {
		t.Errorf("error = %v, want ErrUnknownPlatform", err)
	}
}

package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/clipmark/clipmark-server/internal/metadata"
	"github.com/clipmark/clipmark-server/internal/project"
	"github.com/clipmark/clipmark-server/internal/videourl"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	projects []*project.Project
	listErr  error
	patches  map[string]project.MetadataPatch
	patchErr map[string]error
}

func (f *fakeStore) ListAllProjects(ctx context.Context) ([]*project.Project, error) {
	return f.projects, f.listErr
}

func (f *fakeStore) ApplyMetadataPatch(ctx context.Context, id string, patch project.MetadataPatch) error {
	if err := f.patchErr[id]; err != nil {
		return err
	}
	if f.patches == nil {
		f.patches = map[string]project.MetadataPatch{}
	}
	f.patches[id] = patch
	return nil
}

type fakeResolver struct {
	byResource map[string]*metadata.Resolved
	errs       map[string]error
	calls      int
}

func (f *fakeResolver) ResolveRef(ctx context.Context, ref videourl.Ref) (*metadata.Resolved, error) {
	f.calls++
	if err := f.errs[ref.ResourceID]; err != nil {
		return nil, err
	}
	if r, ok := f.byResource[ref.ResourceID]; ok {
		return r, nil
	}
	return nil, metadata.ErrNotFound
}

func ytProject(id, resource string) *project.Project {
	return &project.Project{ID: id, Title: id, Platform: "youtube", ResourceID: resource}
}

func TestRefresh_EmptyCollection(t *testing.T) {
	r := NewRefresher(&fakeStore{}, &fakeResolver{}, testLogger())

	report, err := r.Refresh(context.Background(), ModeMissingOnly)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if report.Total != 0 || report.Updated != 0 || report.Skipped != 0 || report.Failed != 0 {
		t.Errorf("report = %+v, want all zeros", report)
	}
	if len(report.Results) != 0 {
		t.Errorf("results = %v, want empty", report.Results)
	}
}

func TestRefresh_ListFailureIsBatchFatal(t *testing.T) {
	boom := errors.New("db down")
	r := NewRefresher(&fakeStore{listErr: boom}, &fakeResolver{}, testLogger())

	if _, err := r.Refresh(context.Background(), ModeAll); !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}

func TestRefresh_ConfigMissingRecordsSkipped(t *testing.T) {
	store := &fakeStore{projects: []*project.Project{ytProject("p1", "v1")}}
	resolver := &fakeResolver{errs: map[string]error{"v1": metadata.ErrConfigMissing}}
	r := NewRefresher(store, resolver, testLogger())

	report, err := r.Refresh(context.Background(), ModeMissingOnly)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if report.Total != 1 || report.Skipped != 1 {
		t.Errorf("report = %+v, want exactly one skipped", report)
	}
	if report.Results[0].Reason != "platform credentials not configured" {
		t.Errorf("reason = %q", report.Results[0].Reason)
	}
}

func TestRefresh_FailureIsolation(t *testing.T) {
	store := &fakeStore{projects: []*project.Project{
		ytProject("p1", "bad"),
		ytProject("p2", "good"),
	}}
	resolver := &fakeResolver{
		errs:       map[string]error{"bad": metadata.ErrTransient},
		byResource: map[string]*metadata.Resolved{"good": {Title: "t", ChannelID: "c", ChannelName: "n"}},
	}
	r := NewRefresher(store, resolver, testLogger())

	report, err := r.Refresh(context.Background(), ModeAll)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if report.Total != 2 || report.Failed != 1 || report.Updated != 1 {
		t.Errorf("report = %+v, want one failed and one updated", report)
	}
	if report.Total != report.Updated+report.Skipped+report.Failed {
		t.Error("count invariant violated")
	}
}

func TestRefresh_MissingOnlyPrefilters(t *testing.T) {
	complete := ytProject("done", "v1")
	complete.ChannelID = "c"
	complete.ThumbnailURL = "https://img/t.jpg"

	store := &fakeStore{projects: []*project.Project{
		complete,
		ytProject("todo", "v2"),
	}}
	resolver := &fakeResolver{byResource: map[string]*metadata.Resolved{
		"v2": {Title: "t", ChannelID: "c2", ThumbnailURL: "https://img/v2.jpg"},
	}}
	r := NewRefresher(store, resolver, testLogger())

	report, err := r.Refresh(context.Background(), ModeMissingOnly)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1 (complete project pre-filtered)", resolver.calls)
	}
	if report.Total != 1 || report.Updated != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRefresh_MinimalDiff(t *testing.T) {
	p := ytProject("p1", "v1")
	p.ChannelID = "existing-chan"
	p.ChannelName = "Existing"
	p.ThumbnailURL = "https://img/old.jpg"
	p.DurationSec = 100

	store := &fakeStore{projects: []*project.Project{p}}
	resolver := &fakeResolver{byResource: map[string]*metadata.Resolved{
		"v1": {Title: "t", ChannelID: "new-chan", ChannelName: "New", ThumbnailURL: "https://img/new.jpg", DurationSec: 200},
	}}

	// MISSING_ONLY would pre-filter this fully-populated project, so run ALL.
	r := NewRefresher(store, resolver, testLogger())
	report, err := r.Refresh(context.Background(), ModeAll)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if report.Updated != 1 {
		t.Fatalf("report = %+v, want one updated", report)
	}

	patch := store.patches["p1"]
	if patch.ChannelID != nil || patch.ChannelName != nil {
		t.Error("existing channel fields must never be overwritten")
	}
	if patch.DurationSec != nil {
		t.Error("existing duration must never be overwritten")
	}
	if patch.ThumbnailURL == nil || *patch.ThumbnailURL != "https://img/new.jpg" {
		t.Error("ALL mode must overwrite the thumbnail")
	}
}

func TestRefresh_NothingToUpdateRecordsSkipped(t *testing.T) {
	p := ytProject("p1", "v1")
	p.ChannelID = "c"
	p.ChannelName = "n"
	p.ThumbnailURL = "https://img/t.jpg"
	p.DurationSec = 100

	store := &fakeStore{projects: []*project.Project{p}}
	resolver := &fakeResolver{byResource: map[string]*metadata.Resolved{
		"v1": {Title: "t", ChannelID: "c", ChannelName: "n", ThumbnailURL: "https://img/t.jpg", DurationSec: 100},
	}}
	r := NewRefresher(store, resolver, testLogger())

	report, err := r.Refresh(context.Background(), ModeAll)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if report.Skipped != 1 {
		t.Fatalf("report = %+v, want one skipped", report)
	}
	if report.Results[0].Reason != "nothing to update" {
		t.Errorf("reason = %q", report.Results[0].Reason)
	}
}

func TestRefresh_PersistFailureRecordsFailed(t *testing.T) {
	store := &fakeStore{
		projects: []*project.Project{ytProject("p1", "v1"), ytProject("p2", "v2")},
		patchErr: map[string]error{"p1": errors.New("disk full")},
	}
	resolver := &fakeResolver{byResource: map[string]*metadata.Resolved{
		"v1": {Title: "t", ChannelID: "c1"},
		"v2": {Title: "t", ChannelID: "c2"},
	}}
	r := NewRefresher(store, resolver, testLogger())

	report, err := r.Refresh(context.Background(), ModeAll)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if report.Failed != 1 || report.Updated != 1 {
		t.Errorf("report = %+v, want one failed and one updated", report)
	}
}

func TestRefresh_UnknownStoredPlatformRecordsFailed(t *testing.T) {
	store := &fakeStore{projects: []*project.Project{
		{ID: "p1", Platform: "unknown", ResourceID: ""},
	}}
	resolver := &fakeResolver{}
	r := NewRefresher(store, resolver, testLogger())

	report, err := r.Refresh(context.Background(), ModeAll)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("report = %+v, want one failed", report)
	}
	if resolver.calls != 0 {
		t.Error("resolver must not be called for an unknown stored platform")
	}
}

func TestRefresh_CancelledBetweenItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{projects: []*project.Project{ytProject("p1", "v1")}}
	r := NewRefresher(store, &fakeResolver{}, testLogger())

	report, err := r.Refresh(ctx, ModeAll)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if report == nil || report.Total != 0 {
		t.Errorf("report = %+v, want empty partial report", report)
	}
}

// Package refresh re-runs metadata resolution over the whole project
// collection as an idempotent batch job. Items are processed sequentially;
// one item's failure never stops the rest, and only the minimal field diff
// is written back so user-edited data survives stale resolver output.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clipmark/clipmark-server/internal/metadata"
	"github.com/clipmark/clipmark-server/internal/project"
	"github.com/clipmark/clipmark-server/internal/videourl"
)

type Mode string

const (
	// ModeMissingOnly only touches projects lacking a channel id or
	// thumbnail; everything else is left out of the batch entirely.
	ModeMissingOnly Mode = "missing_only"

	// ModeAll re-resolves every project and additionally overwrites
	// thumbnails, which rotate upstream for live recordings.
	ModeAll Mode = "all"
)

const (
	StatusUpdated = "updated"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Outcome records what happened to one project during a batch run.
type Outcome struct {
	ProjectID string   `json:"project_id"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Reason    string   `json:"reason,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

// Report aggregates a batch run. Total always equals
// Updated + Skipped + Failed.
type Report struct {
	Total   int       `json:"total"`
	Updated int       `json:"updated"`
	Skipped int       `json:"skipped"`
	Failed  int       `json:"failed"`
	Results []Outcome `json:"results"`
}

func (r *Report) add(o Outcome) {
	r.Total++
	switch o.Status {
	case StatusUpdated:
		r.Updated++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
	r.Results = append(r.Results, o)
}

// Store is the slice of the project repository the refresher needs.
type Store interface {
	ListAllProjects(ctx context.Context) ([]*project.Project, error)
	ApplyMetadataPatch(ctx context.Context, id string, patch project.MetadataPatch) error
}

// Resolver resolves an already-classified video reference.
type Resolver interface {
	ResolveRef(ctx context.Context, ref videourl.Ref) (*metadata.Resolved, error)
}

type Refresher struct {
	store    Store
	resolver Resolver
	logger   *slog.Logger
}

func NewRefresher(store Store, resolver Resolver, logger *slog.Logger) *Refresher {
	return &Refresher{store: store, resolver: resolver, logger: logger}
}

// Refresh runs the batch. Failing to list the projects is the only
// batch-fatal error; everything after that is isolated per item. The context
// is checked between items, so cancelling aborts the batch at an item
// boundary and returns the partial report alongside the context error.
func (r *Refresher) Refresh(ctx context.Context, mode Mode) (*Report, error) {
	projects, err := r.store.ListAllProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	report := &Report{Results: []Outcome{}}
	for _, p := range projects {
		if mode == ModeMissingOnly && p.ChannelID != "" && p.ThumbnailURL != "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.add(r.refreshOne(ctx, p, mode))
	}

	r.logger.Info("batch refresh finished",
		"mode", string(mode),
		"total", report.Total,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (r *Refresher) refreshOne(ctx context.Context, p *project.Project, mode Mode) (out Outcome) {
	out = Outcome{ProjectID: p.ID, Title: p.Title}

	// The per-item boundary: a panic in an adapter or the store must not
	// take down the rest of the batch.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic during project refresh", "project_id", p.ID, "panic", rec)
			out.Status = StatusFailed
			out.Reason = fmt.Sprintf("panic: %v", rec)
		}
	}()

	ref := p.Ref()
	if !ref.Known() {
		out.Status = StatusFailed
		out.Reason = "stored reference has unknown platform"
		return out
	}

	resolved, err := r.resolver.ResolveRef(ctx, ref)
	if err != nil {
		switch {
		case errors.Is(err, metadata.ErrConfigMissing):
			out.Status = StatusSkipped
			out.Reason = "platform credentials not configured"
		case errors.Is(err, metadata.ErrTransient):
			out.Status = StatusFailed
			out.Reason = "transient upstream failure: " + err.Error()
		default:
			out.Status = StatusFailed
			out.Reason = err.Error()
		}
		return out
	}

	patch := buildPatch(p, resolved, mode)
	if patch.Empty() {
		out.Status = StatusSkipped
		out.Reason = "nothing to update"
		return out
	}

	if err := r.store.ApplyMetadataPatch(ctx, p.ID, patch); err != nil {
		out.Status = StatusFailed
		out.Reason = "persist: " + err.Error()
		return out
	}

	out.Status = StatusUpdated
	out.Fields = patch.Fields()
	return out
}

// buildPatch computes the minimal diff: channel fields only when newly
// resolved, duration only when previously absent, thumbnail when previously
// absent or unconditionally in ModeAll.
func buildPatch(p *project.Project, resolved *metadata.Resolved, mode Mode) project.MetadataPatch {
	var patch project.MetadataPatch

	if p.ChannelID == "" && resolved.ChannelID != "" {
		patch.ChannelID = &resolved.ChannelID
	}
	if p.ChannelName == "" && resolved.ChannelName != "" {
		patch.ChannelName = &resolved.ChannelName
	}
	if resolved.ThumbnailURL != "" && (p.ThumbnailURL == "" || mode == ModeAll) && p.ThumbnailURL != resolved.ThumbnailURL {
		patch.ThumbnailURL = &resolved.ThumbnailURL
	}
	if p.DurationSec == 0 && resolved.DurationSec != 0 {
		patch.DurationSec = &resolved.DurationSec
	}
	return patch
}

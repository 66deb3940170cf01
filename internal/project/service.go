package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clipmark/clipmark-server/internal/metadata"
	"github.com/clipmark/clipmark-server/internal/shareid"
	"github.com/clipmark/clipmark-server/internal/timestamps"
	"github.com/clipmark/clipmark-server/internal/videourl"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrShareNotFound   = errors.New("share not found")

	// ErrNoClips is a user-facing validation failure: sharing requires at
	// least one parseable time range in the notes.
	ErrNoClips = errors.New("notes contain no clip timestamps")
)

// MetadataResolver is the slice of the resolver the service needs.
type MetadataResolver interface {
	Resolve(ctx context.Context, rawURL string) (videourl.Ref, *metadata.Resolved, error)
}

type Service struct {
	repo     Repository
	resolver MetadataResolver
	logger   *slog.Logger
}

func NewService(repo Repository, resolver MetadataResolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolver: resolver, logger: logger}
}

// CreateProject classifies and resolves the URL, then persists the project
// with a freshly allocated share code. Missing platform credentials or a
// transient upstream failure degrade gracefully: the project is still
// created and enrichment is left to a later refresh. A URL that matches no
// platform, or a confirmed-absent video, is a user-facing error.
func (s *Service) CreateProject(ctx context.Context, rawURL, title, folderID string) (*Project, error) {
	ref, resolved, err := s.resolver.Resolve(ctx, strings.TrimSpace(rawURL))
	if err != nil {
		if !errors.Is(err, metadata.ErrConfigMissing) && !errors.Is(err, metadata.ErrTransient) {
			return nil, err
		}
		s.logger.Info("creating project without metadata enrichment",
			"platform", string(ref.Platform), "reason", err.Error())
		resolved = nil
	}

	if folderID != "" {
		folder, err := s.repo.GetFolder(ctx, folderID)
		if err != nil {
			return nil, err
		}
		if folder == nil {
			return nil, ErrFolderNotFound
		}
	}

	code, err := s.allocateShareCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &Project{
		ID:         NewID(),
		FolderID:   folderID,
		Title:      title,
		SourceURL:  strings.TrimSpace(rawURL),
		Platform:   string(ref.Platform),
		ResourceID: ref.ResourceID,
		IsLive:     ref.IsLive,
		ShareCode:  code,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if resolved != nil {
		if p.Title == "" {
			p.Title = resolved.Title
		}
		p.ChannelID = resolved.ChannelID
		p.ChannelName = resolved.ChannelName
		p.ThumbnailURL = resolved.ThumbnailURL
		p.DurationSec = resolved.DurationSec
	}
	if p.Title == "" {
		p.Title = p.SourceURL
	}

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"project_id", p.ID, "platform", p.Platform, "resource_id", p.ResourceID)
	return p, nil
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context, folderID string) ([]*Project, error) {
	return s.repo.ListProjects(ctx, folderID)
}

func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (*Project, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProjectNotes(ctx, id, notes); err != nil {
		return nil, err
	}
	return s.GetProject(ctx, id)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if _, err := s.GetProject(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, id)
}

// CreateShare validates that the project's notes parse to a non-empty clip
// list and returns the project's share code with the parsed clips. Each
// project carries at most one share; repeated calls return the same code.
func (s *Service) CreateShare(ctx context.Context, projectID string) (string, []timestamps.Clip, error) {
	p, err := s.GetProject(ctx, projectID)
	if err != nil {
		return "", nil, err
	}

	clips := timestamps.Parse(p.Notes)
	if len(clips) == 0 {
		return "", nil, ErrNoClips
	}

	if p.ShareCode != "" {
		return p.ShareCode, clips, nil
	}

	// Projects created before share-at-creation rollout may lack a code.
	code, err := s.allocateShareCode(ctx)
	if err != nil {
		return "", nil, err
	}
	if err := s.repo.SetProjectShareCode(ctx, p.ID, code); err != nil {
		return "", nil, err
	}

	s.logger.Info("share created", "project_id", p.ID, "share_code", code)
	return code, clips, nil
}

// GetShared resolves a public share code to its project and parsed clips.
func (s *Service) GetShared(ctx context.Context, code string) (*Project, []timestamps.Clip, error) {
	p, err := s.repo.GetProjectByShareCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrShareNotFound
	}
	return p, timestamps.Parse(p.Notes), nil
}

func (s *Service) CreateFolder(ctx context.Context, name string) (*Folder, error) {
	existing, err := s.repo.ListFolders(ctx)
	if err != nil {
		return nil, err
	}

	f := &Folder{
		ID:        NewID(),
		Name:      name,
		Position:  len(existing),
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateFolder(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) ListFolders(ctx context.Context) ([]*Folder, error) {
	return s.repo.ListFolders(ctx)
}

func (s *Service) RenameFolder(ctx context.Context, id, name string) error {
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFolderNotFound
	}
	return s.repo.RenameFolder(ctx, id, name)
}

func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	f, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return err
	}
	if f == nil {
		return ErrFolderNotFound
	}
	return s.repo.DeleteFolder(ctx, id)
}

func (s *Service) allocateShareCode(ctx context.Context) (string, error) {
	code, err := shareid.AllocateUnique(ctx, shareid.DefaultLength, shareid.DefaultMaxAttempts,
		func(ctx context.Context, candidate string) (bool, error) {
			p, err := s.repo.GetProjectByShareCode(ctx, candidate)
			if err != nil {
				return false, err
			}
			return p != nil, nil
		})
	if err != nil {
		return "", fmt.Errorf("allocate share code: %w", err)
	}
	return code, nil
}

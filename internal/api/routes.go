package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clipmark/clipmark-server/internal/credpool"
	"github.com/clipmark/clipmark-server/internal/metadata"
	"github.com/clipmark/clipmark-server/internal/project"
	"github.com/clipmark/clipmark-server/internal/refresh"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	// Share links are the one public surface: anyone holding a code may view.
	r.Get("/s/{code}", getSharedHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/folders", listFoldersHandler(cfg))
		r.Post("/folders", createFolderHandler(cfg))
		r.Patch("/folders/{id}", renameFolderHandler(cfg))
		r.Delete("/folders/{id}", deleteFolderHandler(cfg))

		r.Get("/projects", listProjectsHandler(cfg))
		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects/{id}", getProjectHandler(cfg))
		r.Delete("/projects/{id}", deleteProjectHandler(cfg))
		r.Patch("/projects/{id}/notes", updateNotesHandler(cfg))
		r.Post("/projects/{id}/share", createShareHandler(cfg))

		r.Post("/admin/refresh", refreshHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: versionString(),
			UptimeS: uptime,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, err := cfg.Repository.ListAllProjects(ctx)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}
		folders, err := cfg.Repository.ListFolders(ctx)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list folders", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			Version:       versionString(),
			UptimeS:       int64(time.Since(cfg.StartTime).Seconds()),
			ProjectsCount: len(projects),
			FoldersCount:  len(folders),
		})
	}
}

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.URL == "" {
			WriteError(w, http.StatusBadRequest, "url is required", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.CreateProject(r.Context(), req.URL, req.Title, req.FolderID)
		if err != nil {
			writeProjectError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folderID := r.URL.Query().Get("folder_id")
		projects, err := cfg.ProjectService.ListProjects(r.Context(), folderID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectResponse, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToResponse(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := cfg.ProjectService.GetProject(r.Context(), id)
		if err != nil {
			writeProjectError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.ProjectService.DeleteProject(r.Context(), id); err != nil {
			writeProjectError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateNotesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdateNotesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		p, err := cfg.ProjectService.UpdateNotes(r.Context(), id, req.Notes)
		if err != nil {
			writeProjectError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func createShareHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		code, clips, err := cfg.ProjectService.CreateShare(r.Context(), id)
		if err != nil {
			writeProjectError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, ShareResponse{
			ShareCode: code,
			Path:      "/s/" + code,
			Clips:     ClipsToResponse(clips),
		})
	}
}

func getSharedHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		p, clips, err := cfg.ProjectService.GetShared(r.Context(), code)
		if err != nil {
			writeProjectError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, SharedViewResponse{
			Title:        p.Title,
			SourceURL:    p.SourceURL,
			Platform:     p.Platform,
			ResourceID:   p.ResourceID,
			ChannelName:  p.ChannelName,
			ThumbnailURL: p.ThumbnailURL,
			DurationSec:  p.DurationSec,
			Clips:        ClipsToResponse(clips),
		})
	}
}

func listFoldersHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folders, err := cfg.ProjectService.ListFolders(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list folders", "INTERNAL_ERROR")
			return
		}

		resp := FoldersResponse{Folders: make([]FolderResponse, len(folders))}
		for i, f := range folders {
			resp.Folders[i] = FolderToResponse(f)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func createFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		f, err := cfg.ProjectService.CreateFolder(r.Context(), req.Name)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusCreated, FolderToResponse(f))
	}
}

func renameFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req FolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.Name == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		if err := cfg.ProjectService.RenameFolder(r.Context(), id, req.Name); err != nil {
			writeProjectError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := cfg.ProjectService.DeleteFolder(r.Context(), id); err != nil {
			writeProjectError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func refreshHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := RefreshRequest{Mode: string(refresh.ModeMissingOnly)}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
		}

		mode := refresh.Mode(req.Mode)
		if mode != refresh.ModeMissingOnly && mode != refresh.ModeAll {
			WriteError(w, http.StatusBadRequest, "mode must be missing_only or all", "BAD_REQUEST")
			return
		}

		report, err := cfg.Refresher.Refresh(r.Context(), mode)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		WriteJSON(w, http.StatusOK, report)
	}
}

// writeProjectError maps service-layer errors to HTTP responses.
func writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, project.ErrProjectNotFound):
		WriteError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
	case errors.Is(err, project.ErrFolderNotFound):
		WriteError(w, http.StatusNotFound, "folder not found", "NOT_FOUND")
	case errors.Is(err, project.ErrShareNotFound):
		WriteError(w, http.StatusNotFound, "share not found", "NOT_FOUND")
	case errors.Is(err, project.ErrNoClips):
		WriteError(w, http.StatusBadRequest, "notes contain no clip timestamps", "NO_CLIPS")
	case errors.Is(err, metadata.ErrUnknownPlatform):
		WriteError(w, http.StatusBadRequest, "url does not match a supported platform", "UNSUPPORTED_URL")
	case errors.Is(err, metadata.ErrNotFound):
		WriteError(w, http.StatusNotFound, "video not found on platform", "VIDEO_NOT_FOUND")
	case errors.Is(err, metadata.ErrChannelOffline):
		WriteError(w, http.StatusBadRequest, "channel is not live", "CHANNEL_OFFLINE")
	case errors.Is(err, credpool.ErrExhausted):
		WriteError(w, http.StatusServiceUnavailable, "platform credentials exhausted, try again later", "UPSTREAM_EXHAUSTED")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}

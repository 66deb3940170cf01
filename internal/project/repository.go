package project

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjectByShareCode(ctx context.Context, code string) (*Project, error)
	ListProjects(ctx context.Context, folderID string) ([]*Project, error)
	ListAllProjects(ctx context.Context) ([]*Project, error)
	UpdateProjectNotes(ctx context.Context, id, notes string) error
	SetProjectShareCode(ctx context.Context, id, code string) error
	ApplyMetadataPatch(ctx context.Context, id string, patch MetadataPatch) error
	DeleteProject(ctx context.Context, id string) error

	CreateFolder(ctx context.Context, f *Folder) error
	GetFolder(ctx context.Context, id string) (*Folder, error)
	ListFolders(ctx context.Context) ([]*Folder, error)
	RenameFolder(ctx context.Context, id, name string) error
	DeleteFolder(ctx context.Context, id string) error

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const projectColumns = `id, folder_id, title, source_url, platform, resource_id, is_live,
	channel_id, channel_name, thumbnail_url, duration_sec, notes, share_code, created_at, updated_at`

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, nullString(p.FolderID), p.Title, p.SourceURL, p.Platform, p.ResourceID, boolToInt(p.IsLive),
		nullString(p.ChannelID), nullString(p.ChannelName), nullString(p.ThumbnailURL), p.DurationSec,
		p.Notes, nullString(p.ShareCode), p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = ?
	`, id)
	return scanProject(row)
}

func (r *SQLiteRepository) GetProjectByShareCode(ctx context.Context, code string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE share_code = ?
	`, code)
	return scanProject(row)
}

func (r *SQLiteRepository) ListProjects(ctx context.Context, folderID string) ([]*Project, error) {
	if folderID == "" {
		return r.queryProjects(ctx, `
			SELECT `+projectColumns+` FROM projects WHERE folder_id IS NULL ORDER BY created_at DESC
		`)
	}
	return r.queryProjects(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE folder_id = ? ORDER BY created_at DESC
	`, folderID)
}

func (r *SQLiteRepository) ListAllProjects(ctx context.Context) ([]*Project, error) {
	return r.queryProjects(ctx, `
		SELECT `+projectColumns+` FROM projects ORDER BY created_at ASC
	`)
}

func (r *SQLiteRepository) queryProjects(ctx context.Context, query string, args ...any) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProjectRow(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateProjectNotes(ctx context.Context, id, notes string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET notes = ?, updated_at = ? WHERE id = ?
	`, notes, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteRepository) SetProjectShareCode(ctx context.Context, id, code string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET share_code = ?, updated_at = ? WHERE id = ?
	`, code, time.Now().Format(time.RFC3339), id)
	return err
}

// ApplyMetadataPatch writes only the fields the patch carries, in a single
// conditional update. An empty patch is a no-op.
func (r *SQLiteRepository) ApplyMetadataPatch(ctx context.Context, id string, patch MetadataPatch) error {
	if patch.Empty() {
		return nil
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	if patch.ChannelID != nil {
		sets = append(sets, "channel_id = ?")
		args = append(args, *patch.ChannelID)
	}
	if patch.ChannelName != nil {
		sets = append(sets, "channel_name = ?")
		args = append(args, *patch.ChannelName)
	}
	if patch.ThumbnailURL != nil {
		sets = append(sets, "thumbnail_url = ?")
		args = append(args, *patch.ThumbnailURL)
	}
	if patch.DurationSec != nil {
		sets = append(sets, "duration_sec = ?")
		args = append(args, *patch.DurationSec)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Format(time.RFC3339), id)

	query := fmt.Sprintf("UPDATE projects SET %s WHERE id = ?", strings.Join(sets, ", "))
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) CreateFolder(ctx context.Context, f *Folder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO folders (id, name, position, created_at) VALUES (?, ?, ?, ?)
	`, f.ID, f.Name, f.Position, f.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetFolder(ctx context.Context, id string) (*Folder, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, position, created_at FROM folders WHERE id = ?
	`, id)

	var f Folder
	var createdAt string
	err := row.Scan(&f.ID, &f.Name, &f.Position, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

func (r *SQLiteRepository) ListFolders(ctx context.Context) ([]*Folder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, position, created_at FROM folders ORDER BY position ASC, created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []*Folder
	for rows.Next() {
		var f Folder
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Name, &f.Position, &createdAt); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		folders = append(folders, &f)
	}
	return folders, rows.Err()
}

func (r *SQLiteRepository) RenameFolder(ctx context.Context, id, name string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE folders SET name = ? WHERE id = ?", name, id)
	return err
}

func (r *SQLiteRepository) DeleteFolder(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE projects SET folder_id = NULL WHERE folder_id = ?", id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, "DELETE FROM folders WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row *sql.Row) (*Project, error) {
	p, err := scanProjectRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanProjectRow(row rowScanner) (*Project, error) {
	var p Project
	var isLive int
	var folderID, channelID, channelName, thumbnailURL, shareCode sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &folderID, &p.Title, &p.SourceURL, &p.Platform, &p.ResourceID, &isLive,
		&channelID, &channelName, &thumbnailURL, &p.DurationSec, &p.Notes, &shareCode, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.IsLive = isLive == 1
	p.FolderID = folderID.String
	p.ChannelID = channelID.String
	p.ChannelName = channelName.String
	p.ThumbnailURL = thumbnailURL.String
	p.ShareCode = shareCode.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/base2ml/babyraffle/internal/domain"
)

type SiteRepo struct {
	pool *pgxpool.Pool
}

func NewSiteRepo(pool *pgxpool.Pool) *SiteRepo {
	return &SiteRepo{pool: pool}
}

// --- Site config ---

func (r *SiteRepo) GetConfig(ctx context.Context, tenantID uuid.UUID) (*domain.SiteConfig, error) {
	var c domain.SiteConfig

	err := r.pool.QueryRow(ctx,
		`SELECT tenant_id, site_title, welcome_message, parent_names, due_date, theme_color, extra, updated_at
		 FROM site_configs WHERE tenant_id = $1`,
		tenantID,
	).Scan(&c.TenantID, &c.SiteTitle, &c.WelcomeMessage, &c.ParentNames, &c.DueDate, &c.ThemeColor, &c.Extra, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("siteRepo.GetConfig: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("siteRepo.GetConfig: %w", err)
	}

	return &c, nil
}

func (r *SiteRepo) UpsertConfig(ctx context.Context, c *domain.SiteConfig) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO site_configs (tenant_id, site_title, welcome_message, parent_names, due_date, theme_color, extra, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		 ON CONFLICT (tenant_id) DO UPDATE SET
		   site_title = excluded.site_title,
		   welcome_message = excluded.welcome_message,
		   parent_names = excluded.parent_names,
		   due_date = excluded.due_date,
		   theme_color = excluded.theme_color,
		   extra = excluded.extra,
		   updated_at = now()`,
		c.TenantID, c.SiteTitle, c.WelcomeMessage, c.ParentNames, c.DueDate, c.ThemeColor, c.Extra,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.UpsertConfig: %w", err)
	}

	return nil
}

// --- Files ---

func (r *SiteRepo) CreateFile(ctx context.Context, f *domain.File) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO files (id, tenant_id, file_name, content_type, size_bytes, path, thumbnail_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.TenantID, f.FileName, f.ContentType, f.SizeBytes,
		f.Path, nilIfEmpty(f.ThumbnailPath), f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.CreateFile: %w", err)
	}

	return nil
}

func (r *SiteRepo) GetFile(ctx context.Context, tenantID, id uuid.UUID) (*domain.File, error) {
	var f domain.File
	var thumbnail *string

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, file_name, content_type, size_bytes, path, thumbnail_path, created_at
		 FROM files WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&f.ID, &f.TenantID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.Path, &thumbnail, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("siteRepo.GetFile: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("siteRepo.GetFile: %w", err)
	}

	f.ThumbnailPath = derefStr(thumbnail)

	return &f, nil
}

func (r *SiteRepo) ListFiles(ctx context.Context, tenantID uuid.UUID) ([]*domain.File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, file_name, content_type, size_bytes, path, thumbnail_path, created_at
		 FROM files WHERE tenant_id = $1 ORDER BY created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("siteRepo.ListFiles: %w", err)
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		var f domain.File
		var thumbnail *string

		err = rows.Scan(&f.ID, &f.TenantID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.Path, &thumbnail, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("siteRepo.ListFiles: scan: %w", err)
		}

		f.ThumbnailPath = derefStr(thumbnail)
		files = append(files, &f)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("siteRepo.ListFiles: rows: %w", err)
	}

	return files, nil
}

func (r *SiteRepo) DeleteFile(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM files WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.DeleteFile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("siteRepo.DeleteFile: %w", domain.ErrNotFound)
	}

	return nil
}

// --- Slideshow ---

func (r *SiteRepo) CreateSlideshowImage(ctx context.Context, img *domain.SlideshowImage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO slideshow_images (id, tenant_id, file_id, caption, sort_order, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		img.ID, img.TenantID, img.FileID, img.Caption, img.SortOrder, img.IsActive, img.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.CreateSlideshowImage: %w", err)
	}

	return nil
}

func (r *SiteRepo) ListSlideshowImages(ctx context.Context, tenantID uuid.UUID) ([]*domain.SlideshowImage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, file_id, caption, sort_order, is_active, created_at
		 FROM slideshow_images WHERE tenant_id = $1
		 ORDER BY sort_order, created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("siteRepo.ListSlideshowImages: %w", err)
	}
	defer rows.Close()

	var images []*domain.SlideshowImage
	for rows.Next() {
		var img domain.SlideshowImage

		err = rows.Scan(&img.ID, &img.TenantID, &img.FileID, &img.Caption, &img.SortOrder, &img.IsActive, &img.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("siteRepo.ListSlideshowImages: scan: %w", err)
		}

		images = append(images, &img)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("siteRepo.ListSlideshowImages: rows: %w", err)
	}

	return images, nil
}

func (r *SiteRepo) UpdateSlideshowImage(ctx context.Context, img *domain.SlideshowImage) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE slideshow_images SET caption = $1, sort_order = $2, is_active = $3
		 WHERE tenant_id = $4 AND id = $5`,
		img.Caption, img.SortOrder, img.IsActive, img.TenantID, img.ID,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.UpdateSlideshowImage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("siteRepo.UpdateSlideshowImage: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SiteRepo) DeleteSlideshowImage(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM slideshow_images WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.DeleteSlideshowImage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("siteRepo.DeleteSlideshowImage: %w", domain.ErrNotFound)
	}

	return nil
}

// --- Deployments ---

func (r *SiteRepo) CreateDeployment(ctx context.Context, d *domain.Deployment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO deployments (id, tenant_id, status, triggered_by, detail, completed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.TenantID, d.Status, d.TriggeredBy, d.Detail, d.CompletedAt, d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.CreateDeployment: %w", err)
	}

	return nil
}

func (r *SiteRepo) UpdateDeployment(ctx context.Context, d *domain.Deployment) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE deployments SET status = $1, detail = $2, completed_at = $3
		 WHERE tenant_id = $4 AND id = $5`,
		d.Status, d.Detail, d.CompletedAt, d.TenantID, d.ID,
	)
	if err != nil {
		return fmt.Errorf("siteRepo.UpdateDeployment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("siteRepo.UpdateDeployment: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SiteRepo) ListDeployments(ctx context.Context, tenantID uuid.UUID, limit int) ([]*domain.Deployment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, tenant_id, status, triggered_by, detail, completed_at, created_at
		 FROM deployments WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("siteRepo.ListDeployments: %w", err)
	}
	defer rows.Close()

	var deployments []*domain.Deployment
	for rows.Next() {
		var d domain.Deployment

		err = rows.Scan(&d.ID, &d.TenantID, &d.Status, &d.TriggeredBy, &d.Detail, &d.CompletedAt, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("siteRepo.ListDeployments: scan: %w", err)
		}

		deployments = append(deployments, &d)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("siteRepo.ListDeployments: rows: %w", err)
	}

	return deployments, nil
}

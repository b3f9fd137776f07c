package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SiteConfig holds the tenant-editable content of the public raffle site.
type SiteConfig struct {
	TenantID       uuid.UUID
	SiteTitle      string
	WelcomeMessage string
	ParentNames    string
	DueDate        *time.Time
	ThemeColor     string
	Extra          map[string]any
	UpdatedAt      time.Time
}

type File struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	FileName      string
	ContentType   string
	SizeBytes     int64
	Path          string
	ThumbnailPath string // empty when thumbnail generation failed or was skipped
	CreatedAt     time.Time
}

type SlideshowImage struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	FileID    uuid.UUID
	Caption   string
	SortOrder int
	IsActive  bool
	CreatedAt time.Time
}

type DeploymentStatus string

const (
	DeploymentStatusPending   DeploymentStatus = "pending"
	DeploymentStatusSucceeded DeploymentStatus = "succeeded"
	DeploymentStatusFailed    DeploymentStatus = "failed"
)

// Deployment is one publish of a tenant's static site.
type Deployment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Status      DeploymentStatus
	TriggeredBy uuid.UUID // user id
	Detail      string
	CompletedAt *time.Time
	CreatedAt   time.Time
}

type SiteRepository interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (*SiteConfig, error)
	UpsertConfig(ctx context.Context, c *SiteConfig) error

	CreateFile(ctx context.Context, f *File) error
	GetFile(ctx context.Context, tenantID, id uuid.UUID) (*File, error)
	ListFiles(ctx context.Context, tenantID uuid.UUID) ([]*File, error)
	DeleteFile(ctx context.Context, tenantID, id uuid.UUID) error

	CreateSlideshowImage(ctx context.Context, img *SlideshowImage) error
	ListSlideshowImages(ctx context.Context, tenantID uuid.UUID) ([]*SlideshowImage, error)
	UpdateSlideshowImage(ctx context.Context, img *SlideshowImage) error
	DeleteSlideshowImage(ctx context.Context, tenantID, id uuid.UUID) error

	CreateDeployment(ctx context.Context, d *Deployment) error
	UpdateDeployment(ctx context.Context, d *Deployment) error
	ListDeployments(ctx context.Context, tenantID uuid.UUID, limit int) ([]*Deployment, error)
}

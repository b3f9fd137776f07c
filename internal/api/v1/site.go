package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/base2ml/babyraffle/internal/domain"
)

type SiteConfigOutput struct {
	Body *domain.SiteConfig
}

type UpdateSiteConfigInput struct {
	Body struct {
		SiteTitle      string         `json:"site_title,omitempty" maxLength:"255"`
		WelcomeMessage string         `json:"welcome_message,omitempty" maxLength:"2000"`
		ParentNames    string         `json:"parent_names,omitempty" maxLength:"255"`
		DueDate        *time.Time     `json:"due_date,omitempty"`
		ThemeColor     string         `json:"theme_color,omitempty" maxLength:"32"`
		Extra          map[string]any `json:"extra,omitempty"`
	}
}

type AddSlideshowImageInput struct {
	Body struct {
		FileID    uuid.UUID `json:"file_id"`
		Caption   string    `json:"caption,omitempty" maxLength:"500"`
		SortOrder int       `json:"sort_order,omitempty"`
	}
}

type SlideshowImageOutput struct {
	Body *domain.SlideshowImage
}

type ListSlideshowOutput struct {
	Body []*domain.SlideshowImage
}

type UpdateSlideshowImageInput struct {
	ImageID uuid.UUID `path:"imageID"`
	Body    struct {
		Caption   string `json:"caption,omitempty" maxLength:"500"`
		SortOrder *int   `json:"sort_order,omitempty"`
		IsActive  *bool  `json:"is_active,omitempty"`
	}
}

type DeleteSlideshowImageInput struct {
	ImageID uuid.UUID `path:"imageID"`
}

func RegisterSiteRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-site-config",
		Method:      http.MethodGet,
		Path:        "/site/config",
		Summary:     "Get the public site content",
		Tags:        []string{"Site"},
	}, func(ctx context.Context, _ *struct{}) (*SiteConfigOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}

		cfg, err := store.Site().GetConfig(ctx, tenant.ID)
		if errors.Is(err, domain.ErrNotFound) {
			// Fresh tenants have no saved config yet; serve defaults.
			cfg = &domain.SiteConfig{TenantID: tenant.ID, SiteTitle: tenant.Name}
		} else if err != nil {
			return nil, huma.Error500InternalServerError("failed to load site config", err)
		}

		return &SiteConfigOutput{Body: cfg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-site-config",
		Method:      http.MethodPut,
		Path:        "/site/config",
		Summary:     "Update the public site content",
		Tags:        []string{"Site"},
	}, func(ctx context.Context, input *UpdateSiteConfigInput) (*SiteConfigOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		cfg, err := store.Site().GetConfig(ctx, tenant.ID)
		if errors.Is(err, domain.ErrNotFound) {
			cfg = &domain.SiteConfig{TenantID: tenant.ID}
		} else if err != nil {
			return nil, huma.Error500InternalServerError("failed to load site config", err)
		}

		if input.Body.SiteTitle != "" {
			cfg.SiteTitle = input.Body.SiteTitle
		}
		if input.Body.WelcomeMessage != "" {
			cfg.WelcomeMessage = input.Body.WelcomeMessage
		}
		if input.Body.ParentNames != "" {
			cfg.ParentNames = input.Body.ParentNames
		}
		if input.Body.DueDate != nil {
			cfg.DueDate = input.Body.DueDate
		}
		if input.Body.ThemeColor != "" {
			cfg.ThemeColor = input.Body.ThemeColor
		}
		if input.Body.Extra != nil {
			cfg.Extra = input.Body.Extra
		}

		if err = store.Site().UpsertConfig(ctx, cfg); err != nil {
			return nil, huma.Error500InternalServerError("failed to save site config", err)
		}

		return &SiteConfigOutput{Body: cfg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-slideshow",
		Method:      http.MethodGet,
		Path:        "/site/slideshow",
		Summary:     "List slideshow images",
		Tags:        []string{"Site"},
	}, func(ctx context.Context, _ *struct{}) (*ListSlideshowOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}

		images, err := store.Site().ListSlideshowImages(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list slideshow", err)
		}

		return &ListSlideshowOutput{Body: images}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-slideshow-image",
		Method:      http.MethodPost,
		Path:        "/site/slideshow",
		Summary:     "Add an uploaded image to the slideshow",
		Tags:        []string{"Site"},
	}, func(ctx context.Context, input *AddSlideshowImageInput) (*SlideshowImageOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		// The file must exist and belong to this tenant.
		if _, err = store.Site().GetFile(ctx, tenant.ID, input.Body.FileID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("file not found")
			}
			return nil, huma.Error500InternalServerError("failed to load file", err)
		}

		img := &domain.SlideshowImage{
			ID:        uuid.New(),
			TenantID:  tenant.ID,
			FileID:    input.Body.FileID,
			Caption:   input.Body.Caption,
			SortOrder: input.Body.SortOrder,
			IsActive:  true,
			CreatedAt: time.Now(),
		}

		if err = store.Site().CreateSlideshowImage(ctx, img); err != nil {
			return nil, huma.Error500InternalServerError("failed to add slideshow image", err)
		}

		return &SlideshowImageOutput{Body: img}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-slideshow-image",
		Method:      http.MethodPut,
		Path:        "/site/slideshow/{imageID}",
		Summary:     "Update a slideshow image",
		Tags:        []string{"Site"},
	}, func(ctx context.Context, input *UpdateSlideshowImageInput) (*SlideshowImageOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		images, err := store.Site().ListSlideshowImages(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load slideshow", err)
		}

		var img *domain.SlideshowImage
		for _, candidate := range images {
			if candidate.ID == input.ImageID {
				img = candidate
				break
			}
		}
		if img == nil {
			return nil, huma.Error404NotFound("slideshow image not found")
		}

		if input.Body.Caption != "" {
			img.Caption = input.Body.Caption
		}
		if input.Body.SortOrder != nil {
			img.SortOrder = *input.Body.SortOrder
		}
		if input.Body.IsActive != nil {
			img.IsActive = *input.Body.IsActive
		}

		if err = store.Site().UpdateSlideshowImage(ctx, img); err != nil {
			return nil, huma.Error500InternalServerError("failed to update slideshow image", err)
		}

		return &SlideshowImageOutput{Body: img}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-slideshow-image",
		Method:      http.MethodDelete,
		Path:        "/site/slideshow/{imageID}",
		Summary:     "Remove a slideshow image",
		Tags:        []string{"Site"},
	}, func(ctx context.Context, input *DeleteSlideshowImageInput) (*struct{}, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		if err = store.Site().DeleteSlideshowImage(ctx, tenant.ID, input.ImageID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("slideshow image not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete slideshow image", err)
		}

		return nil, nil
	})
}

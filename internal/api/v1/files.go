package v1

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/domain"
)

// FileStore abstracts upload persistence for handler testing.
// *storage.Local satisfies this interface.
type FileStore interface {
	Save(tenantID uuid.UUID, fileName, contentType string, r io.Reader) (*domain.File, error)
	Open(path string) (io.ReadCloser, error)
	Remove(f *domain.File) error
}

type UploadFileInput struct {
	RawBody multipart.Form
}

type UploadFileOutput struct {
	Body *domain.File
}

type ListFilesOutput struct {
	Body []*domain.File
}

type FileContentInput struct {
	FileID    uuid.UUID `path:"fileID"`
	Thumbnail bool      `query:"thumbnail" default:"false"`
}

type FileContentOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type DeleteFileInput struct {
	FileID uuid.UUID `path:"fileID"`
}

func RegisterFileRoutes(api huma.API, store DataStore, files FileStore) {
	huma.Register(api, huma.Operation{
		OperationID: "upload-file",
		Method:      http.MethodPost,
		Path:        "/files/upload",
		Summary:     "Upload a file",
		Description: "Multipart upload; image files also get a thumbnail.",
		Tags:        []string{"Files"},
	}, func(ctx context.Context, input *UploadFileInput) (*UploadFileOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		headers := input.RawBody.File["file"]
		if len(headers) != 1 {
			return nil, huma.Error400BadRequest("exactly one file part named \"file\" is required")
		}
		header := headers[0]

		src, err := header.Open()
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read upload", err)
		}
		defer src.Close()

		f, err := files.Save(tenant.ID, header.Filename, header.Header.Get("Content-Type"), src)
		if err != nil {
			if errors.Is(err, domain.ErrInvalid) {
				return nil, huma.Error413RequestEntityTooLarge("upload too large")
			}
			return nil, huma.Error500InternalServerError("failed to store upload", err)
		}

		if err = store.Site().CreateFile(ctx, f); err != nil {
			if removeErr := files.Remove(f); removeErr != nil {
				log.Warn().Err(removeErr).Str("file_id", f.ID.String()).Msg("files: orphan cleanup failed")
			}
			return nil, huma.Error500InternalServerError("failed to record upload", err)
		}

		return &UploadFileOutput{Body: f}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-files",
		Method:      http.MethodGet,
		Path:        "/files",
		Summary:     "List uploaded files",
		Tags:        []string{"Files"},
	}, func(ctx context.Context, _ *struct{}) (*ListFilesOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}

		list, err := store.Site().ListFiles(ctx, tenant.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list files", err)
		}

		return &ListFilesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-file-content",
		Method:      http.MethodGet,
		Path:        "/files/{fileID}/content",
		Summary:     "Download a file or its thumbnail",
		Tags:        []string{"Files"},
	}, func(ctx context.Context, input *FileContentInput) (*FileContentOutput, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}

		f, err := store.Site().GetFile(ctx, tenant.ID, input.FileID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("file not found")
			}
			return nil, huma.Error500InternalServerError("failed to load file", err)
		}

		path := f.Path
		contentType := f.ContentType
		if input.Thumbnail {
			if f.ThumbnailPath == "" {
				return nil, huma.Error404NotFound("file has no thumbnail")
			}
			path = f.ThumbnailPath
			contentType = "image/jpeg"
		}

		rc, err := files.Open(path)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to open file", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to read file", err)
		}

		return &FileContentOutput{ContentType: contentType, Body: data}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-file",
		Method:      http.MethodDelete,
		Path:        "/files/{fileID}",
		Summary:     "Delete a file",
		Tags:        []string{"Files"},
	}, func(ctx context.Context, input *DeleteFileInput) (*struct{}, error) {
		tenant, err := requireTenant(ctx)
		if err != nil {
			return nil, err
		}
		if _, err = requireRole(ctx, domain.RoleAdmin); err != nil {
			return nil, err
		}

		f, err := store.Site().GetFile(ctx, tenant.ID, input.FileID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("file not found")
			}
			return nil, huma.Error500InternalServerError("failed to load file", err)
		}

		if err = store.Site().DeleteFile(ctx, tenant.ID, input.FileID); err != nil {
			return nil, huma.Error500InternalServerError("failed to delete file", err)
		}

		if err = files.Remove(f); err != nil {
			log.Warn().Err(err).Str("file_id", f.ID.String()).Msg("files: disk cleanup failed")
		}

		return nil, nil
	})
}

// Package storage persists tenant uploads on the local filesystem and
// generates image thumbnails.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/base2ml/babyraffle/internal/config"
	"github.com/base2ml/babyraffle/internal/domain"
)

// Local stores files under {root}/{tenantID}/, one directory per tenant so
// deletes and quota checks stay cheap.
type Local struct {
	root          string
	maxBytes      int64
	thumbnailSize int
}

func NewLocal(cfg config.StorageConfig) (*Local, error) {
	err := os.MkdirAll(cfg.UploadDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("storage.NewLocal: %w", err)
	}

	return &Local{
		root:          cfg.UploadDir,
		maxBytes:      cfg.MaxUploadBytes,
		thumbnailSize: cfg.ThumbnailSize,
	}, nil
}

var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Save writes the upload to disk and returns the stored file record. Image
// uploads additionally get a thumbnail; thumbnail failures are logged, not
// fatal.
func (l *Local) Save(tenantID uuid.UUID, fileName, contentType string, r io.Reader) (*domain.File, error) {
	ext := filepath.Ext(fileName)
	if mapped, ok := imageContentTypes[contentType]; ok && ext == "" {
		ext = mapped
	}

	id := uuid.New()
	dir := filepath.Join(l.root, tenantID.String())
	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("storage.Save: %w", err)
	}

	path := filepath.Join(dir, id.String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage.Save: %w", err)
	}

	written, err := io.Copy(dst, io.LimitReader(r, l.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("storage.Save: write: %w", err)
	}
	if written > l.maxBytes {
		os.Remove(path)
		return nil, fmt.Errorf("storage.Save: upload exceeds %d bytes: %w", l.maxBytes, domain.ErrInvalid)
	}

	f := &domain.File{
		ID:          id,
		TenantID:    tenantID,
		FileName:    filepath.Base(fileName),
		ContentType: contentType,
		SizeBytes:   written,
		Path:        path,
	}

	if _, ok := imageContentTypes[contentType]; ok {
		thumb, err := l.makeThumbnail(path, dir, id)
		if err != nil {
			log.Warn().Err(err).Str("file_id", id.String()).Msg("storage: thumbnail generation failed")
		} else {
			f.ThumbnailPath = thumb
		}
	}

	return f, nil
}

func (l *Local) makeThumbnail(srcPath, dir string, id uuid.UUID) (string, error) {
	img, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("storage.makeThumbnail: open: %w", err)
	}

	thumb := imaging.Fit(img, l.thumbnailSize, l.thumbnailSize, imaging.Lanczos)

	path := filepath.Join(dir, id.String()+"_thumb.jpg")
	err = imaging.Save(thumb, path, imaging.JPEGQuality(80))
	if err != nil {
		return "", fmt.Errorf("storage.makeThumbnail: save: %w", err)
	}

	return path, nil
}

// Open returns a reader for a stored file path. The path must sit under the
// storage root; anything else is treated as a traversal attempt.
func (l *Local) Open(path string) (io.ReadCloser, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: %w", err)
	}
	root, err := filepath.Abs(l.root)
	if err != nil {
		return nil, fmt.Errorf("storage.Open: %w", err)
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("storage.Open: path outside storage root: %w", domain.ErrInvalid)
	}

	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage.Open: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("storage.Open: %w", err)
	}

	return f, nil
}

// Remove deletes a stored file and its thumbnail if present.
func (l *Local) Remove(f *domain.File) error {
	err := os.Remove(f.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage.Remove: %w", err)
	}

	if f.ThumbnailPath != "" {
		err = os.Remove(f.ThumbnailPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("storage.Remove: thumbnail: %w", err)
		}
	}

	return nil
}

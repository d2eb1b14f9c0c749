package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UploadService stores uploaded images under a root directory.
type UploadService struct {
	root     string
	maxBytes int64
}

func NewUploadService(root string, maxMB int) *UploadService {
	return &UploadService{root: root, maxBytes: int64(maxMB) << 20}
}

// Root returns the directory served as static files.
func (u *UploadService) Root() string { return u.root }

// SaveImage writes fh into root/kind under a random name and returns the
// path relative to root, e.g. "products/<uuid>.png".
func (u *UploadService) SaveImage(fh *multipart.FileHeader, kind string) (string, error) {
	if fh == nil {
		return "", ValidationError("image is required")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return "", ValidationError("image must be a .jpg, .jpeg, .png or .webp file")
	}
	if u.maxBytes > 0 && fh.Size > u.maxBytes {
		return "", ValidationError(fmt.Sprintf("image must not exceed %d MB", u.maxBytes>>20))
	}

	dir := filepath.Join(u.root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", internal("create upload dir", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", internal("open upload", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", internal("create upload file", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", internal("write upload", err)
	}

	return path.Join(kind, name), nil
}

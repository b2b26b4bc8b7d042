package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// SaveImage stores an uploaded post image under
// <baseDir>/YYYY/MM/DD/<uuid>_<name> and returns its public URL. The copy
// is capped at maxBytes; oversized uploads are removed and rejected.
func SaveImage(fh *multipart.FileHeader, baseDir string, maxBytes int64) (string, error) {
	if fh.Size > 0 && fh.Size > maxBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	now := time.Now()
	year := now.Format("2006")
	month := now.Format("01")
	day := now.Format("02")
	dir := filepath.Join(baseDir, year, month, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	fname := filepath.Base(fh.Filename)
	if fname == "." || fname == "" {
		fname = "image"
	}
	safeName := uuid.NewString() + "_" + fname
	dstPath := filepath.Join(dir, safeName)

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	written, err := io.Copy(dst, &io.LimitedReader{R: src, N: maxBytes + 1})
	if err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}
	if written > maxBytes {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("image exceeds %d bytes", maxBytes)
	}

	return path.Join("/static/uploads", year, month, day, safeName), nil
}

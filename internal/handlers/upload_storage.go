package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	maxImageSize    = 5 << 20
	maxDocumentSize = 20 << 20
)

var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
}

// Uploads stores product images and the stock balance document under the
// public root and serves best-effort deletes for replaced files.
type Uploads struct {
	PublicDir string
}

// SaveImage writes a product image under uploads/products and returns the
// public URL to store on the record.
func (u *Uploads) SaveImage(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}
	return u.save(file, "products", extension)
}

// SaveDocument writes the stock balance PDF under uploads/documents.
func (u *Uploads) SaveDocument(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension != ".pdf" {
		return "", fmt.Errorf("unsupported document type: %s", extension)
	}
	if file.Size > maxDocumentSize {
		return "", fmt.Errorf("document file too large (max 20MB)")
	}
	return u.save(file, "documents", extension)
}

func (u *Uploads) save(file *multipart.FileHeader, subdir, extension string) (string, error) {
	filename := uuid.NewString() + extension

	dir := filepath.Join(u.PublicDir, "uploads", subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[UPLOAD] save: failed to create directory %s: %v", dir, err)
		return "", err
	}

	fullPath := filepath.Join(dir, filename)

	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[UPLOAD] save: failed to create file %s: %v", fullPath, err)
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Printf("[UPLOAD] save: failed to save file %s: %v", fullPath, err)
		return "", err
	}

	return "/" + path.Join("uploads", subdir, filename), nil
}

// SafeDelete removes a previously stored upload by its public URL. Only
// paths inside the uploads tree are touched; a missing file is fine.
func (u *Uploads) SafeDelete(publicURL string) error {
	trimmed := strings.TrimSpace(publicURL)
	if trimmed == "" {
		return nil
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")
	if !strings.HasPrefix(cleanRel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", publicURL)
	}

	cleanBase := filepath.Clean(u.PublicDir)
	cleanTarget := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(cleanRel)))
	if cleanTarget != cleanBase && !strings.HasPrefix(cleanTarget, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside public root: %s", publicURL)
	}

	if err := os.Remove(cleanTarget); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}

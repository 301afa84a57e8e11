package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"harvest/internal/models"
)

// fileDocument is the on-disk shape of the flat JSON store: one document
// holding every record kind.
type fileDocument struct {
	Products []models.Product  `json:"products"`
	Admins   []fileAdmin       `json:"admins"`
	Settings map[string]string `json:"settings"`
}

// fileAdmin keeps the password hash in the document; models.Admin hides
// it from JSON on purpose, so the store carries its own record.
type fileAdmin struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// FileStore persists the whole catalog as a single JSON document.
// Reads are served from memory; every mutation rewrites the file via a
// temp file and rename before the lock is released, so a crash never
// leaves a half-written document behind.
type FileStore struct {
	mu   sync.RWMutex
	path string
	doc  fileDocument
}

// OpenFileStore loads the document at path, creating an empty one (and
// any missing parent directories) on first run.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path: path,
		doc:  fileDocument{Settings: map[string]string{}},
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		if err := s.flushLocked(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read data file: %w", err)
	default:
		if err := json.Unmarshal(raw, &s.doc); err != nil {
			return nil, fmt.Errorf("decode data file %s: %w", path, err)
		}
		if s.doc.Settings == nil {
			s.doc.Settings = map[string]string{}
		}
	}

	return s, nil
}

func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.path)
	return err
}

func (s *FileStore) Close(ctx context.Context) error { return nil }

func (s *FileStore) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Product, 0, len(s.doc.Products))
	for _, p := range s.doc.Products {
		if matchesFilter(p, filter) {
			out = append(out, p)
		}
	}
	sortProducts(out, filter)
	return out, nil
}

func (s *FileStore) GetProduct(ctx context.Context, id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.doc.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}

func (s *FileStore) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := validateInput(in); err != nil {
		return models.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := newProduct(uuid.NewString(), in, time.Now().UTC())
	s.doc.Products = append(s.doc.Products, p)
	if err := s.flushLocked(); err != nil {
		s.doc.Products = s.doc.Products[:len(s.doc.Products)-1]
		return models.Product{}, err
	}
	return p, nil
}

func (s *FileStore) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Products {
		if s.doc.Products[i].ID != id {
			continue
		}
		previous := s.doc.Products[i]
		applyPatch(&s.doc.Products[i], patch, time.Now().UTC())
		if err := s.flushLocked(); err != nil {
			s.doc.Products[i] = previous
			return models.Product{}, err
		}
		return s.doc.Products[i], nil
	}
	return models.Product{}, ErrNotFound
}

func (s *FileStore) DeleteProduct(ctx context.Context, id string) (models.Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Products {
		if s.doc.Products[i].ID != id {
			continue
		}
		removed := s.doc.Products[i]
		s.doc.Products = append(s.doc.Products[:i], s.doc.Products[i+1:]...)
		if err := s.flushLocked(); err != nil {
			return models.Product{}, false, err
		}
		return removed, true, nil
	}
	return models.Product{}, false, nil
}

func (s *FileStore) LastUpdated(ctx context.Context) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *time.Time
	for _, p := range s.doc.Products {
		ts := p.Recency()
		if latest == nil || ts.After(*latest) {
			t := ts
			latest = &t
		}
	}
	return latest, nil
}

func (s *FileStore) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Settings[key], nil
}

func (s *FileStore) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Settings[key] = value
	return s.flushLocked()
}

func (s *FileStore) EnsureAdmin(ctx context.Context, username, password string) error {
	hash, err := models.HashPassword(password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Admins {
		if s.doc.Admins[i].Username == username {
			s.doc.Admins[i].Password = hash
			s.doc.Admins[i].Role = models.RoleAdmin
			return s.flushLocked()
		}
	}
	s.doc.Admins = append(s.doc.Admins, fileAdmin{
		Username: username,
		Password: hash,
		Role:     models.RoleAdmin,
	})
	return s.flushLocked()
}

func (s *FileStore) VerifyAdmin(ctx context.Context, username, password string) (models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.doc.Admins {
		if a.Username != username {
			continue
		}
		admin := models.Admin{Username: a.Username, Password: a.Password, Role: a.Role}
		if !admin.ValidatePassword(password) {
			return models.Admin{}, ErrInvalidCredentials
		}
		return admin, nil
	}
	return models.Admin{}, ErrInvalidCredentials
}

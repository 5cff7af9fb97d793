package databases

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/config"
)

const docExt = ".json"

// DocumentStore contains the methods every collection helper is built on. Each
// document is addressed by a (collection, key) pair and stored as one JSON file.
type DocumentStore interface {
	Create(ctx context.Context, collection, key string, v interface{}) error
	Read(ctx context.Context, collection, key string, v interface{}) error
	Update(ctx context.Context, collection, key string, v interface{}) error
	Delete(ctx context.Context, collection, key string) error
	List(ctx context.Context, collection string) ([]string, error)
}

type fileStore struct {
	baseDir string
}

var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// NewStore uses the values from the config and returns a file backed DocumentStore
func NewStore(conf *config.Config) (DocumentStore, error) {
	return NewFileStore(conf.DataDir)
}

// NewFileStore returns a DocumentStore rooted at baseDir, creating it if needed
func NewFileStore(baseDir string) (DocumentStore, error) {
	if baseDir == "" {
		return nil, errors.New("data directory is not set")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &fileStore{baseDir: baseDir}, nil
}

func sanitize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") || !validName.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, name)
	}
	return name, nil
}

func (s *fileStore) collectionDir(collection string) (string, error) {
	c, err := sanitize(collection)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, c), nil
}

func (s *fileStore) path(collection, key string) (string, string, error) {
	dir, err := s.collectionDir(collection)
	if err != nil {
		return "", "", err
	}
	k, err := sanitize(key)
	if err != nil {
		return "", "", err
	}
	return dir, filepath.Join(dir, k+docExt), nil
}

// writeTemp writes b to a hidden temp file inside dir and returns its name
func writeTemp(dir string, b []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}
	return name, nil
}

func (s *fileStore) Create(ctx context.Context, collection, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, key, err)
	}
	tmp, err := writeTemp(dir, b)
	if err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, key, err)
	}
	defer os.Remove(tmp)

	// link fails if target exists, which makes this an atomic create-if-absent
	err = os.Link(tmp, target)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return ErrAlreadyExists
	}

	zap.S().Debugw("hard link unavailable, falling back to exclusive create", "collection", collection, "error", err)
	err = createExclusive(target, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	})
	if err != nil && !errors.Is(err, ErrAlreadyExists) {
		return fmt.Errorf("create %s/%s: %w", collection, key, err)
	}
	return err
}

// createExclusive creates target only if it is absent and fills it with write.
// The create is exclusive but not atomic: a concurrent reader can observe the
// document before write completes. A failed write removes the target again.
func createExclusive(target string, write func(io.Writer) error) error {
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrAlreadyExists
		}
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(target)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return err
	}
	return nil
}

func (s *fileStore) Read(ctx context.Context, collection, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	b, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("read %s/%s: %w", collection, key, err)
	}
	// every document is an object; null would decode into a zero value
	if trimmed := bytes.TrimSpace(b); len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return fmt.Errorf("%w: %s/%s", ErrCorruptData, collection, key)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s/%s: %v", ErrCorruptData, collection, key, err)
	}
	return nil
}

func (s *fileStore) Update(ctx context.Context, collection, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("stat %s/%s: %w", collection, key, err)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, key, err)
	}
	tmp, err := writeTemp(dir, b)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *fileStore) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, target, err := s.path(collection, key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *fileStore) List(ctx context.Context, collection string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.collectionDir(collection)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, docExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, docExt))
	}
	sort.Strings(keys)
	return keys, nil
}

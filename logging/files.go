package logging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
)

const (
	logExt        = ".log"
	compressedExt = ".gz.b64"
)

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// ErrInvalidName is returned for log names that could escape the log directory
var ErrInvalidName = errors.New("invalid log name")

// Files manages plain-text log files and their compressed archives in one directory
type Files struct {
	Dir string
	mu  sync.Mutex
}

// NewFiles creates the log directory if needed
func NewFiles(dir string) (*Files, error) {
	if dir == "" {
		return nil, errors.New("log directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Files{Dir: dir}, nil
}

func (f *Files) path(name, ext string) (string, error) {
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return "", ErrInvalidName
	}
	return filepath.Join(f.Dir, name+ext), nil
}

// Append writes line plus a newline to <name>.log, creating the file if needed
func (f *Files) Append(name, line string) error {
	p, err := f.path(name, logExt)
	if err != nil {
		return err
	}
	file, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(line + "\n"); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Open returns an append-only handle on <name>.log, suitable as a zap sink
func (f *Files) Open(name string) (*os.File, error) {
	p, err := f.path(name, logExt)
	if err != nil {
		return nil, err
	}
	return os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

// List returns the names of the live logs and, if asked, of the compressed archives
func (f *Files) List(includeCompressed bool) ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch n := e.Name(); {
		case strings.HasSuffix(n, compressedExt):
			if includeCompressed {
				names = append(names, strings.TrimSuffix(n, compressedExt))
			}
		case strings.HasSuffix(n, logExt):
			names = append(names, strings.TrimSuffix(n, logExt))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Compress gzips <name>.log into <newID>.gz.b64. An existing archive is never overwritten.
func (f *Files) Compress(name, newID string) error {
	src, err := f.path(name, logExt)
	if err != nil {
		return err
	}
	dst, err := f.path(newID, compressedExt)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := out.WriteString(base64.StdEncoding.EncodeToString(buf.Bytes())); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Decompress returns the original text of archive id
func (f *Files) Decompress(id string) (string, error) {
	p, err := f.path(id, compressedExt)
	if err != nil {
		return "", err
	}
	encoded, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(string(encoded))
	if err != nil {
		return "", fmt.Errorf("decoding archive %s: %w", id, err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("opening archive %s: %w", id, err)
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("reading archive %s: %w", id, err)
	}
	return string(text), nil
}

// Truncate empties <name>.log in place so open append handles keep working
func (f *Files) Truncate(name string) error {
	p, err := f.path(name, logExt)
	if err != nil {
		return err
	}
	return os.Truncate(p, 0)
}

// Rotate archives every non-empty live log as <name>-<timestamp> and truncates it.
// It returns the archive ids that were written.
func (f *Files) Rotate(now time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	names, err := f.List(false)
	if err != nil {
		return nil, err
	}
	var archived []string
	for _, name := range names {
		p, _ := f.path(name, logExt)
		info, err := os.Stat(p)
		if err != nil || info.Size() == 0 {
			continue
		}
		id := fmt.Sprintf("%s-%s", name, now.UTC().Format("20060102T150405"))
		if err := f.Compress(name, id); err != nil {
			zap.S().Errorw("could not compress log", "log", name, "error", err)
			continue
		}
		if err := f.Truncate(name); err != nil {
			zap.S().Errorw("could not truncate log", "log", name, "error", err)
			continue
		}
		archived = append(archived, id)
	}
	return archived, nil
}

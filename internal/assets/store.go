// Package assets persists uploaded project images under a fixed directory and
// hands out the URL path they are served from.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tempPrefix marks in-progress uploads. They are never served or listed.
const tempPrefix = ".upload-"

var (
	ErrWrite      = errors.New("asset write failed")
	ErrInvalidRef = errors.New("invalid asset reference")
)

// WriteError reports a failure to persist an upload. It matches ErrWrite.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write asset %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

type Config struct {
	// Root is the directory files are written to.
	Root string
	// URLPrefix is the path stored files are served under, e.g. "/uploads".
	URLPrefix string
}

// Store writes uploads to disk. Safe for concurrent use.
type Store struct {
	root   string
	prefix string
	now    func() time.Time
}

// New creates the root directory if needed.
func New(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("asset root is required")
	}
	prefix := "/" + strings.Trim(cfg.URLPrefix, "/")
	if prefix == "/" {
		return nil, fmt.Errorf("asset url prefix is required")
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, &WriteError{Path: cfg.Root, Err: err}
	}
	return &Store{root: cfg.Root, prefix: prefix, now: time.Now}, nil
}

func (s *Store) Root() string      { return s.root }
func (s *Store) URLPrefix() string { return s.prefix }

// Store writes r under a fresh name built from the current time in
// milliseconds, a random UUID and the extension of originalFilename.
// The file becomes visible only once fully written.
func (s *Store) Store(ctx context.Context, r io.Reader, originalFilename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.newName(originalFilename)
	dst := filepath.Join(s.root, name)

	tmp, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return "", &WriteError{Path: dst, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &WriteError{Path: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", &WriteError{Path: dst, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", &WriteError{Path: dst, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", &WriteError{Path: dst, Err: err}
	}

	return s.prefix + "/" + name, nil
}

func (s *Store) newName(originalFilename string) string {
	ext := filepath.Ext(filepath.Base(strings.ReplaceAll(originalFilename, `\`, "/")))
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext)
}

// Open returns the stored file behind ref.
func (s *Store) Open(ref string) (*os.File, error) {
	p, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Exists reports whether ref names a stored regular file.
func (s *Store) Exists(ref string) bool {
	p, err := s.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// StoredAt returns the write time encoded in a name produced by Store. ok is
// false for files that were not named by Store.
func (s *Store) StoredAt(ref string) (time.Time, bool) {
	p, err := s.resolve(ref)
	if err != nil {
		return time.Time{}, false
	}
	millis, _, found := strings.Cut(filepath.Base(p), "-")
	if !found {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// PruneTemp removes upload temp files last modified more than olderThan ago,
// left behind when a process died mid-upload. Returns how many were removed.
func (s *Store) PruneTemp(olderThan time.Duration) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("list assets: %w", err)
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove temp upload %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Remove deletes the file behind ref. A missing file is not an error.
func (s *Store) Remove(ref string) error {
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove asset %s: %w", ref, err)
	}
	return nil
}

// List returns references for every stored file, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}

	refs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		refs = append(refs, s.prefix+"/"+e.Name())
	}
	sort.Strings(refs)
	return refs, nil
}

// resolve maps a reference to a path inside root. Only direct children of
// the prefix are accepted.
func (s *Store) resolve(ref string) (string, error) {
	clean := path.Clean("/" + strings.TrimPrefix(ref, "/"))
	name, ok := strings.CutPrefix(clean, s.prefix+"/")
	if !ok || name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return filepath.Join(s.root, name), nil
}

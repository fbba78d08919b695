// Package uploads keeps uploaded files on local disk and expires them.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/leadflow/backend/internal/apperr"
)

// File describes one stored upload as reported back to the client.
type File struct {
	OriginalName string    `json:"originalName"`
	StoredName   string    `json:"storedName"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Entry is a directory listing row.
type Entry struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

func (s *Store) Dir() string { return s.dir }

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}

// Save writes r to a new file named <unix-millis>-<sanitized original name>.
func (s *Store) Save(originalName string, r io.Reader) (*File, error) {
	uploadedAt := s.now()
	base := strconv.FormatInt(uploadedAt.UnixMilli(), 10) + "-" + sanitizeName(originalName)

	var (
		f      *os.File
		stored string
		err    error
	)
	for attempt := 0; attempt < 10; attempt++ {
		stored = base
		if attempt > 0 {
			stored = fmt.Sprintf("%d-%s", attempt, base)
		}
		f, err = os.OpenFile(filepath.Join(s.dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	path := f.Name()
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", err)
	}
	return &File{
		OriginalName: originalName,
		StoredName:   stored,
		Size:         size,
		Path:         path,
		UploadedAt:   uploadedAt,
	}, nil
}

// Read returns the bytes of a previously stored file. Paths outside the
// store directory are reported as not found.
func (s *Store) Read(path string) ([]byte, error) {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return nil, fmt.Errorf("upload %s: %w", path, apperr.ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("upload %s: %w", path, apperr.ErrNotFound)
		}
		return nil, err
	}
	return data, nil
}

// List returns stored uploads, newest first.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		out = append(out, Entry{Name: de.Name(), Size: info.Size(), UploadedAt: info.ModTime()})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].Name > out[j].Name
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// PurgeOlderThan deletes stored uploads last modified more than age ago
// and reports how many were removed.
func (s *Store) PurgeOlderThan(age time.Duration) (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-age)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.UploadedAt.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

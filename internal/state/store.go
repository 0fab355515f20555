// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	progerrors "github.com/tuulbelt/cli-progress-reporting/internal/errors"
)

// FileMode is the permission applied to every state file (rw-r--r--).
const FileMode fs.FileMode = 0o644

const (
	progressPrefix = "progress-"
	groupMarker    = "multi-"
	groupPrefix    = progressPrefix + groupMarker
	fileSuffix     = ".json"
)

// Op names a store operation reported to an Observer.
type Op string

// Store operations.
const (
	OpWrite  Op = "write"
	OpRead   Op = "read"
	OpRemove Op = "remove"
)

// Observer receives one call per completed store operation. err is nil on
// success. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveOperation(op Op, elapsed time.Duration, err error)
}

// Config configures a Store.
type Config struct {
	// Dir is the base directory for state files. When empty the platform
	// temporary directory is used, resolved again on every operation.
	Dir string

	// Logger receives debug output for each operation. Defaults to a no-op logger.
	Logger *zap.Logger

	// Observer is notified after each operation. Optional.
	Observer Observer
}

// Store reads and writes state files using write-to-temp-and-rename. It holds
// no per-file state and is safe for concurrent use.
type Store struct {
	dir      string
	logger   *zap.Logger
	observer Observer
}

// NewStore creates a Store from cfg.
func NewStore(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		dir:      cfg.Dir,
		logger:   logger,
		observer: cfg.Observer,
	}
}

// Dir returns the base directory in effect for the current operation.
func (s *Store) Dir() string {
	if s.dir != "" {
		return s.dir
	}
	return os.TempDir()
}

// ProgressPath returns the path of the state file for tracker id.
// The id must already be validated.
func (s *Store) ProgressPath(id string) string {
	return filepath.Join(s.Dir(), progressPrefix+id+fileSuffix)
}

// GroupPath returns the path of the aggregate file for group id.
// The id must already be validated.
func (s *Store) GroupPath(id string) string {
	return filepath.Join(s.Dir(), groupPrefix+id+fileSuffix)
}

// SharedGroupFile reports whether tracker id maps onto the file name of a
// group aggregate, and which group. Tracker "multi-x" and group "x" both
// live in progress-multi-x.json.
func SharedGroupFile(id string) (string, bool) {
	group, ok := strings.CutPrefix(id, groupMarker)
	return group, ok && group != ""
}

// Write atomically replaces path with data. The content is written to a
// uniquely named temporary file in the same directory, flushed to disk and
// renamed onto path. On failure path is left untouched.
func (s *Store) Write(path string, data []byte) (err error) {
	start := time.Now()
	defer func() { s.observe(OpWrite, start, err) }()

	tempFile, err := s.tempName(path)
	if err != nil {
		return err
	}

	if err := writeTemp(tempFile, data); err != nil {
		// Clean up temp file
		_ = os.Remove(tempFile)
		return &progerrors.IOError{Op: "write temporary file", Path: tempFile, Err: err}
	}

	// Atomic rename
	if err := os.Rename(tempFile, path); err != nil {
		_ = os.Remove(tempFile)
		return &progerrors.IOError{Op: "rename temporary file onto", Path: path, Err: err}
	}

	s.logger.Debug("state written", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// CreateIfAbsent writes data to path only when path does not exist yet. The
// content is staged in a temporary file and hard-linked onto path, so a
// concurrent creator can never be overwritten. It reports whether this call
// created the file.
func (s *Store) CreateIfAbsent(path string, data []byte) (created bool, err error) {
	start := time.Now()
	defer func() { s.observe(OpWrite, start, err) }()

	tempFile, err := s.tempName(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = os.Remove(tempFile) }()

	if err := writeTemp(tempFile, data); err != nil {
		return false, &progerrors.IOError{Op: "write temporary file", Path: tempFile, Err: err}
	}
	if err := os.Link(tempFile, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			s.logger.Debug("state already present", zap.String("path", path))
			return false, nil
		}
		return false, &progerrors.IOError{Op: "link temporary file onto", Path: path, Err: err}
	}

	s.logger.Debug("state created", zap.String("path", path), zap.Int("bytes", len(data)))
	return true, nil
}

func (s *Store) tempName(path string) (string, error) {
	suffix, err := uuid.NewRandom()
	if err != nil {
		return "", &progerrors.IOError{Op: "generate temporary name for", Path: path, Err: err}
	}
	dir, base := filepath.Split(path)
	return filepath.Join(dir, "."+base+"."+suffix.String()+".tmp"), nil
}

func writeTemp(name string, data []byte) error {
	file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FileMode)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return err
	}
	// OpenFile honours the umask; state files must stay world-readable.
	if err := file.Chmod(FileMode); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// Read returns the full content of path in a single read. A missing file
// yields an error matching errors.ErrNotFound.
func (s *Store) Read(path string) (data []byte, err error) {
	start := time.Now()
	defer func() { s.observe(OpRead, start, err) }()
	return s.read(path)
}

func (s *Store) read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("no state file at %s: %w", path, progerrors.ErrNotFound)
		}
		return nil, &progerrors.IOError{Op: "read", Path: path, Err: err}
	}
	s.logger.Debug("state read", zap.String("path", path), zap.Int("bytes", len(data)))
	return data, nil
}

// Remove deletes path. Removing a file that does not exist succeeds.
func (s *Store) Remove(path string) (err error) {
	start := time.Now()
	defer func() { s.observe(OpRemove, start, err) }()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &progerrors.IOError{Op: "remove", Path: path, Err: err}
	}
	s.logger.Debug("state removed", zap.String("path", path))
	return nil
}

// Exists reports whether path is present.
func (s *Store) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, &progerrors.IOError{Op: "stat", Path: path, Err: err}
	}
}

// WriteProgress encodes p and writes it to path.
func (s *Store) WriteProgress(path string, p Progress) error {
	return s.Write(path, EncodeProgress(p))
}

// ReadProgress reads and decodes the Progress stored at path. The observer
// sees one read operation whose error includes decode failures.
func (s *Store) ReadProgress(path string) (p Progress, err error) {
	start := time.Now()
	defer func() { s.observe(OpRead, start, err) }()

	data, err := s.read(path)
	if err != nil {
		return Progress{}, err
	}
	p, err = DecodeProgress(data)
	if err != nil {
		return Progress{}, withPath(err, path)
	}
	return p, nil
}

// WriteGroup encodes g and writes it to path.
func (s *Store) WriteGroup(path string, g Group) error {
	return s.Write(path, EncodeGroup(g))
}

// CreateGroupIfAbsent encodes g and writes it to path unless path exists.
func (s *Store) CreateGroupIfAbsent(path string, g Group) (bool, error) {
	return s.CreateIfAbsent(path, EncodeGroup(g))
}

// ReadGroup reads and decodes the Group stored at path, reported to the
// observer like ReadProgress.
func (s *Store) ReadGroup(path string) (g Group, err error) {
	start := time.Now()
	defer func() { s.observe(OpRead, start, err) }()

	data, err := s.read(path)
	if err != nil {
		return Group{}, err
	}
	g, err = DecodeGroup(data)
	if err != nil {
		return Group{}, withPath(err, path)
	}
	return g, nil
}

// ListTrackers returns the sorted ids of every tracker file in the base
// directory. Group members appear under their scoped "group-member" id.
func (s *Store) ListTrackers() ([]string, error) {
	return s.list(func(name string) (string, bool) {
		if strings.HasPrefix(name, groupPrefix) {
			return "", false
		}
		return trimName(name, progressPrefix)
	})
}

// ListGroups returns the sorted ids of every group aggregate in the base
// directory.
func (s *Store) ListGroups() ([]string, error) {
	return s.list(func(name string) (string, bool) {
		return trimName(name, groupPrefix)
	})
}

func (s *Store) list(match func(name string) (string, bool)) ([]string, error) {
	dir := s.Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &progerrors.IOError{Op: "list", Path: dir, Err: err}
	}

	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := match(entry.Name())
		if !ok || ValidateID("id", id) != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func trimName(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileSuffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, prefix), fileSuffix), true
}

func withPath(err error, path string) error {
	var decodeErr *progerrors.DecodeError
	if errors.As(err, &decodeErr) && decodeErr.Path == "" {
		decodeErr.Path = path
	}
	return err
}

func (s *Store) observe(op Op, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveOperation(op, time.Since(start), err)
	}
}

// Package landing is the file-per-batch raw JSON store partitioned by source and
// processing status.
package landing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/viktsys/marketetl/apperrors"
	"github.com/viktsys/marketetl/models"
	"go.uber.org/zap"
)

const rawDir = "raw"

// LandedFile describes a raw file written by Save.
type LandedFile struct {
	Path       string
	Dir        string
	Name       string
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Store reads and writes raw files under root.
type Store struct {
	root string
	log  *zap.Logger
}

func NewStore(root string, log *zap.Logger) *Store {
	return &Store{root: root, log: log}
}

// RawDir is where unprocessed files of the source live.
func (s *Store) RawDir(source models.Source) string {
	return filepath.Join(s.root, rawDir, source.DataType())
}

// Save writes body as a new raw file named <source>_<YYYYMMDD_HHMMSS_mmm>.json.
func (s *Store) Save(source models.Source, body []byte, now time.Time) (LandedFile, error) {
	dir := s.RawDir(source)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return LandedFile{}, fmt.Errorf("failed to create raw directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%03d.json", source, now.Format("20060102_150405"), now.Nanosecond()/int(time.Millisecond))
	path := filepath.Join(dir, name)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "    "); err != nil {
		// keep what the API sent so the transform stage can record the failure
		pretty.Reset()
		pretty.Write(body)
	}

	if err := os.WriteFile(path, pretty.Bytes(), 0o644); err != nil {
		return LandedFile{}, fmt.Errorf("failed to write raw file: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return LandedFile{}, fmt.Errorf("failed to stat raw file: %w", err)
	}

	s.log.Debug("Saved raw file", zap.String("path", path), zap.Int("bytes", pretty.Len()))
	return LandedFile{
		Path:       path,
		Dir:        dir,
		Name:       name,
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
	}, nil
}

// ReadSnapshots returns the snapshots of a raw file. A top-level array yields its
// elements, a single object yields one snapshot.
func (s *Store) ReadSnapshots(path string) ([]json.RawMessage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file: %w", err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file %s", apperrors.ErrMalformedPayload, filepath.Base(path))
	}

	if content[0] == '[' {
		var snapshots []json.RawMessage
		if err := json.Unmarshal(content, &snapshots); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedPayload, err)
		}
		return snapshots, nil
	}

	if !json.Valid(content) {
		return nil, fmt.Errorf("%w: invalid json in %s", apperrors.ErrMalformedPayload, filepath.Base(path))
	}
	return []json.RawMessage{content}, nil
}

// Move relocates a raw file into <root>/<status>/<data type>/. On failure the
// original path is returned along with the error.
func (s *Store) Move(status models.Status, source models.Source, path string) (string, error) {
	target := filepath.Join(s.root, string(status), source.DataType())
	if err := os.MkdirAll(target, 0o755); err != nil {
		return path, fmt.Errorf("failed to create %s directory: %w", status, err)
	}

	newPath := filepath.Join(target, filepath.Base(path))
	if err := os.Rename(path, newPath); err != nil {
		return path, fmt.Errorf("failed to move %s: %w", filepath.Base(path), err)
	}

	s.log.Info("Moved raw file",
		zap.String("from", path),
		zap.String("to", newPath))
	return newPath, nil
}

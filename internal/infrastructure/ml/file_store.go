package ml

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
)

// FileArtifactStore keeps one artifact as a JSON file.
type FileArtifactStore struct {
	path string
}

var _ port.ArtifactStore = (*FileArtifactStore)(nil)

// NewFileArtifactStore creates a store for the file at path.
func NewFileArtifactStore(path string) *FileArtifactStore {
	return &FileArtifactStore{path: path}
}

// Path returns the artifact location.
func (s *FileArtifactStore) Path() string {
	return s.path
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so readers never observe a partial artifact.
func (s *FileArtifactStore) Save(ctx context.Context, meta model.ArtifactMetadata, pipeline port.FittedPipeline) (string, error) {
	p, ok := pipeline.(*Pipeline)
	if !ok {
		return "", fmt.Errorf("artifact store: unsupported pipeline type %T", pipeline)
	}
	artifact := &Artifact{Format: FormatVersion, Meta: meta, Pipeline: p}
	if err := artifact.Validate(); err != nil {
		return "", fmt.Errorf("artifact store: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("artifact store: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("artifact store: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("artifact store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("artifact store: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("artifact store: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("artifact store: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return "", fmt.Errorf("artifact store: rename: %w", err)
	}
	return s.path, nil
}

// Load reads and validates the artifact. Every failure is an *model.ArtifactLoadError.
func (s *FileArtifactStore) Load(_ context.Context) (port.Model, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &model.ArtifactLoadError{Path: s.path, Err: err}
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, &model.ArtifactLoadError{Path: s.path, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := artifact.Validate(); err != nil {
		return nil, &model.ArtifactLoadError{Path: s.path, Err: err}
	}
	return &artifact, nil
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// fileAttemptRepository keeps attempts as a JSON array on local disk
type fileAttemptRepository struct {
	path string
}

// NewFileAttemptRepository creates an AttemptRepository backed by the file at path
func NewFileAttemptRepository(path string) AttemptRepository {
	return &fileAttemptRepository{path: path}
}

// Load returns the stored attempts; a missing file is an empty history
func (r *fileAttemptRepository) Load(ctx context.Context) ([]Attempt, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read attempts file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var attempts []Attempt
	if err := json.Unmarshal(data, &attempts); err != nil {
		return nil, fmt.Errorf("failed to decode attempts file: %w", err)
	}
	return attempts, nil
}

// Save writes to a temp file next to the target and renames it into place
func (r *fileAttemptRepository) Save(ctx context.Context, attempts []Attempt) error {
	if attempts == nil {
		attempts = []Attempt{}
	}
	data, err := json.Marshal(attempts)
	if err != nil {
		return fmt.Errorf("failed to encode attempts: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create attempts directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp attempts file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write attempts: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp attempts file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		return fmt.Errorf("failed to replace attempts file: %w", err)
	}
	return nil
}

package quota

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

// FileStore keeps QuotaState in a JSON file.
type FileStore struct {
	Path string
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Name() string { return "file" }

// Load reads the state. Returns a zero state if the file doesn't exist.
func (f *FileStore) Load(_ context.Context) (model.QuotaState, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.QuotaState{}, nil
		}
		return model.QuotaState{}, fmt.Errorf("read quota state: %w", err)
	}
	var state model.QuotaState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.QuotaState{}, fmt.Errorf("decode quota state: %w", err)
	}
	return state, nil
}

// Save writes the state, creating the parent directory if needed.
func (f *FileStore) Save(_ context.Context, state model.QuotaState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	return os.WriteFile(f.Path, data, 0644)
}

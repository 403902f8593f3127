package game

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SnapshotStore persists whole-session snapshots keyed by player
type SnapshotStore interface {
	Save(ctx context.Context, playerID string, snap Snapshot) error
	Load(ctx context.Context, playerID string) (Snapshot, error)
	Delete(ctx context.Context, playerID string) error
	List(ctx context.Context) ([]string, error)
}

// FileSnapshotStore keeps one JSON file per player in a directory
type FileSnapshotStore struct {
	dir       string
	stateLock sync.RWMutex
}

// NewFileSnapshotStore creates a store rooted at dir
func NewFileSnapshotStore(dir string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileSnapshotStore{dir: dir}, nil
}

// fileKey escapes a player id into one file name, distinct for distinct ids
func fileKey(playerID string) string {
	return strings.ReplaceAll(url.PathEscape(playerID), ":", "%3A")
}

func (fs *FileSnapshotStore) path(playerID string) string {
	return filepath.Join(fs.dir, fileKey(playerID)+".json")
}

// Save writes the snapshot atomically through a temp file
func (fs *FileSnapshotStore) Save(_ context.Context, playerID string, snap Snapshot) error {
	fs.stateLock.Lock()
	defer fs.stateLock.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := fs.path(playerID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, fs.path(playerID)); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

func (fs *FileSnapshotStore) Load(_ context.Context, playerID string) (Snapshot, error) {
	fs.stateLock.RLock()
	defer fs.stateLock.RUnlock()

	data, err := os.ReadFile(fs.path(playerID))
	if os.IsNotExist(err) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return snap, nil
}

func (fs *FileSnapshotStore) Delete(_ context.Context, playerID string) error {
	fs.stateLock.Lock()
	defer fs.stateLock.Unlock()

	if err := os.Remove(fs.path(playerID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List returns the player ids of stored snapshots. The ids are read back from
// the snapshots rather than unescaped from file names.
func (fs *FileSnapshotStore) List(_ context.Context) ([]string, error) {
	fs.stateLock.RLock()
	defer fs.stateLock.RUnlock()

	matches, err := filepath.Glob(filepath.Join(fs.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	players := make([]string, 0, len(matches))
	for _, match := range matches {
		data, err := os.ReadFile(match)
		if err != nil {
			continue
		}
		var snap Snapshot
		if json.Unmarshal(data, &snap) != nil || snap["player"] == "" {
			continue
		}
		players = append(players, snap["player"])
	}
	return players, nil
}

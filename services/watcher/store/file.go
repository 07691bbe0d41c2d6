package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type cursorFile struct {
	Cursor string `json:"cursor"`
}

// cursor persistence in a single JSON file. writes go to a temp file
// in the same directory followed by a rename, so a crash mid-write
// never leaves a half-written cursor behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) FileStore {
	return FileStore{path: path}
}

func (s FileStore) Load(ctx context.Context) (string, bool, error) {
	contents, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	var f cursorFile
	err = json.Unmarshal(contents, &f)
	if err != nil {
		return "", false, fmt.Errorf("corrupt cursor file %s: %w", s.path, err)
	}
	if f.Cursor == "" {
		return "", false, nil
	}
	return f.Cursor, true, nil
}

func (s FileStore) Save(ctx context.Context, value string) error {
	err := os.MkdirAll(filepath.Dir(s.path), 0755)
	if err != nil {
		return err
	}

	contents, err := json.Marshal(cursorFile{Cursor: value})
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	err = os.WriteFile(tmp, contents, 0600)
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s FileStore) Clear(ctx context.Context) error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

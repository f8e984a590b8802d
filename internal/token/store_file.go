package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists the token pair as a JSON file with 0600 permissions.
// The file is re-read on every access so concurrent processes sharing the
// same path observe each other's logins and logouts.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type tokenFile struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) AccessToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf, err := s.read()
	if err != nil {
		return "", err
	}
	return tf.Access, nil
}

func (s *FileStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf, err := s.read()
	if err != nil {
		return "", err
	}
	return tf.Refresh, nil
}

func (s *FileStore) SetAccessToken(_ context.Context, access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf, err := s.read()
	if err != nil {
		return err
	}
	tf.Access = access
	return s.write(tf)
}

func (s *FileStore) SetTokens(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(tokenFile{Access: access, Refresh: refresh})
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

func (s *FileStore) read() (tokenFile, error) {
	var tf tokenFile
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tf, nil
		}
		return tf, fmt.Errorf("read tokens: %w", err)
	}
	if err := json.Unmarshal(raw, &tf); err != nil {
		// A corrupt token file is equivalent to no session.
		return tokenFile{}, nil
	}
	return tf, nil
}

func (s *FileStore) write(tf tokenFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	raw, err := json.Marshal(tf)
	if err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write tokens: %w", err)
	}
	return nil
}

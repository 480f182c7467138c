package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const tempPrefix = ".tmp-"

// LocalStore keeps one file per id under a root directory.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Put writes to a temporary file first so readers never see partial content.
func (s *LocalStore) Put(id string, content io.Reader) error {
	if err := validateID(id); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.root, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		return fmt.Errorf("cannot write content '%s': %w", id, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write content '%s': %w", id, err)
	}
	if err := os.Rename(f.Name(), filepath.Join(s.root, id)); err != nil {
		return fmt.Errorf("cannot store content '%s': %w", id, err)
	}
	return nil
}

func (s *LocalStore) Get(id string) (io.ReadCloser, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot open content '%s': %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open content '%s': %w", id, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.root, id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot delete content '%s': %w", id, ErrNotFound)
	}
	return err
}

func (s *LocalStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("cannot list store: %w", err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		ids = append(ids, entry.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *LocalStore) Clear() error {
	ids, err := s.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Delete(id); err != nil {
			return err
		}
	}
	return nil
}

// Package snapshots persists the snapshot history as one JSON document.
// The whole document is read into memory on load and rewritten in full on
// save; there is no incremental persistence.
package snapshots

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"binance-portfolio-tracker/internal/domain"
)

// Store reads and writes the history document at a fixed path.
type Store struct {
	path string
}

// NewStore builds a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the full document. A missing file is an empty history, not an
// error.
func (s *Store) Load() (domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return domain.Document{Version: domain.DocumentVersion}, nil
	}
	if err != nil {
		return domain.Document{}, errors.Wrapf(err, "read %s", s.path)
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Document{}, errors.Wrapf(err, "decode %s", s.path)
	}

	return doc, nil
}

// Save rewrites the full document atomically via a temp file and rename.
func (s *Store) Save(doc domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot history")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return errors.Wrapf(err, "create temp file in %s", dir)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "close %s", tmp.Name())
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrapf(err, "rename %s to %s", tmp.Name(), s.path)
	}

	return nil
}

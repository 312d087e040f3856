// Package meta persists the small change-detection record that survives
// across runs: the last generated date-range anchor and the content digest
// of the raw event set.
package meta

import (
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	appLog "papercal/internal/log"
)

// Record is the persisted state. Exactly two fields; anything else found
// in the file is ignored.
type Record struct {
	LastAnchor string `yaml:"_last_anchor"`
	EventsHash string `yaml:"events_hash"`
}

// Store reads and writes the record at a fixed path.
type Store struct {
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Store{fs: fs, path: path}
}

// Load returns the persisted record, or a zero record if the file is
// missing or unreadable. A corrupt meta file only costs one regeneration,
// so it is never fatal.
func (s *Store) Load() Record {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return Record{}
	}
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		appLog.Warn("meta: unparsable meta file, using empty record", "path", s.path, "err", err)
		return Record{}
	}
	return rec
}

// Save overwrites the record. Called only at successful completion.
func (s *Store) Save(rec Record) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return afero.WriteFile(s.fs, s.path, data, 0o600)
}

// ShouldSkip decides whether regeneration can be skipped: only when both
// the anchor and the digest match the previous run and force is off.
func ShouldSkip(prev Record, anchor, digest string, force bool) bool {
	if force {
		return false
	}
	return prev.LastAnchor == anchor && prev.EventsHash == digest && digest != ""
}

package checkpoint

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nematoken/soldrop/pkg/persist"
)

// DefaultDir returns the default checkpoint directory (~/.soldrop/checkpoints).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return filepath.Join(home, ".soldrop", "checkpoints")
}

// FilePath returns the snapshot file path for a distribution phase.
func FilePath(dir string, phase int) string {
	return filepath.Join(dir, fmt.Sprintf("phase%d.json", phase))
}

// Store owns the on-disk snapshot file for one run. It is the sole reader and
// writer of that file; concurrent stores against the same path are
// unsupported.
type Store struct {
	path   string
	codec  persist.Codec
	logger *slog.Logger
}

// NewStore creates a checkpoint store backed by the file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		codec:  persist.NewJSONCodec(),
		logger: logger,
	}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a snapshot file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)

	return err == nil
}

// Load returns the persisted snapshot only if its phase and recipient count
// exactly match the arguments. Any read, schema, or decode failure, and any
// mismatch, yields (nil, false): a corrupt or stale checkpoint must never
// abort a run, it degrades to "start fresh".
func (s *Store) Load(phase, expectedCount int) (*Snapshot, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("checkpoint unreadable, starting fresh", "path", s.path, "error", err)
		}

		return nil, false
	}

	schemaErr := validateSchema(data)
	if schemaErr != nil {
		s.logger.Warn("checkpoint failed schema validation, starting fresh",
			"path", s.path, "error", schemaErr)

		return nil, false
	}

	var snap Snapshot

	decodeErr := s.codec.Decode(bytes.NewReader(data), &snap)
	if decodeErr != nil {
		s.logger.Warn("checkpoint undecodable, starting fresh", "path", s.path, "error", decodeErr)

		return nil, false
	}

	if snap.Phase != phase {
		s.logger.Warn("checkpoint is for a different phase, discarding",
			"checkpoint_phase", snap.Phase, "run_phase", phase)

		return nil, false
	}

	if snap.RecipientCount != expectedCount {
		s.logger.Warn("checkpoint recipient count mismatch, discarding",
			"checkpoint_count", snap.RecipientCount, "run_count", expectedCount)

		return nil, false
	}

	return &snap, true
}

// Peek reads the snapshot without the phase and recipient-count match that
// Load enforces. Inspection tools use it; the executor never should.
func (s *Store) Peek() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	schemaErr := validateSchema(data)
	if schemaErr != nil {
		return nil, schemaErr
	}

	var snap Snapshot

	decodeErr := s.codec.Decode(bytes.NewReader(data), &snap)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", decodeErr)
	}

	return &snap, nil
}

// Save writes the full snapshot, replacing any prior content atomically.
// Callers treat a returned error as degraded resume granularity, not as a
// fatal condition.
func (s *Store) Save(snap Snapshot) error {
	err := persist.SaveAtomic(s.path, s.codec, snap)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	return nil
}

// Clear removes the snapshot file. Removing an absent file is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear checkpoint: %w", err)
	}

	return nil
}

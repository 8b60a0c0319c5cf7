package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permissions for state files and their directories.
const (
	filePerm = 0o600
	dirPerm  = 0o750
)

// SaveAtomic writes state to path, replacing any prior content atomically.
// The state is first written to a temp file in the same directory and then
// renamed over the target, so a concurrent reader never observes a partially
// written file.
func SaveAtomic(path string, codec Codec, state any) error {
	dir := filepath.Dir(path)

	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tmpName := tmp.Name()

	encodeErr := codec.Encode(tmp, state)

	syncErr := tmp.Sync()
	closeErr := tmp.Close()

	if encodeErr != nil || syncErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)

		if encodeErr != nil {
			return fmt.Errorf("encode state: %w", encodeErr)
		}

		if syncErr != nil {
			return fmt.Errorf("sync state file: %w", syncErr)
		}

		return fmt.Errorf("close state file: %w", closeErr)
	}

	chmodErr := os.Chmod(tmpName, filePerm)
	if chmodErr != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("chmod state file: %w", chmodErr)
	}

	renameErr := os.Rename(tmpName, path)
	if renameErr != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("replace state file: %w", renameErr)
	}

	return nil
}

// Load reads state from path into the given pointer.
func Load(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}

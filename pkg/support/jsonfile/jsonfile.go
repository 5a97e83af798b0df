// Package jsonfile reads and writes Go values as JSON documents on disk.
//
// It is a thin wrapper over encoding/json, used for small persisted artifacts
// like dataset split definitions.
package jsonfile

import (
	"encoding/json"
	"os"
	"path"

	"github.com/pkg/errors"

	"github.com/gomlx/reid/pkg/support/fsutil"
)

// Write serializes value as an indented JSON document at filePath, creating
// parent directories if needed.
func Write(filePath string, value any) error {
	if err := fsutil.MkdirIfMissing(path.Dir(filePath)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal value for %q", filePath)
	}
	if err = os.WriteFile(filePath, data, 0666); err != nil {
		return errors.Wrapf(err, "failed to write %q", filePath)
	}
	return nil
}

// Read deserializes the JSON document at filePath into value, which must be
// a pointer.
func Read(filePath string, value any) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", filePath)
	}
	if err = json.Unmarshal(data, value); err != nil {
		return errors.Wrapf(err, "failed to parse JSON in %q", filePath)
	}
	return nil
}

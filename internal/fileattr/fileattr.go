// Package fileattr restores file timestamps and manages the hidden
// attribute. Creation time and the hidden flag are Windows concepts; on
// other platforms those operations are no-ops and hiding relies on the
// leading-dot naming convention.
package fileattr

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
)

// RestoreTimes sets the access and modification times of path to t and, on
// the OS filesystem of platforms that track it, the creation time as well.
// Both steps are attempted; their errors are joined.
func RestoreTimes(fs afero.Fs, path string, t time.Time) error {
	var errs []error
	if err := fs.Chtimes(path, t, t); err != nil {
		errs = append(errs, fmt.Errorf("set modification time: %w", err))
	}
	if _, ok := fs.(*afero.OsFs); ok && CreationTimeSupported {
		if err := setCreationTime(path, t); err != nil {
			errs = append(errs, fmt.Errorf("set creation time: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Hidden reports whether path carries the hidden attribute. A missing file
// is not hidden.
func Hidden(path string) (bool, error) {
	return isHidden(path)
}

// Hide sets the hidden attribute on an existing file.
func Hide(path string) error {
	return setHidden(path, true)
}

// WithWritable runs fn with path temporarily un-hidden, since hidden files
// cannot be overwritten or replaced on Windows. Afterwards the attribute is
// re-applied if it was set before or hide is true, even when fn fails.
func WithWritable(path string, hide bool, fn func() error) (err error) {
	wasHidden, err := isHidden(path)
	if err != nil {
		return fmt.Errorf("read attributes of %s: %w", path, err)
	}
	if wasHidden {
		if err := setHidden(path, false); err != nil {
			return fmt.Errorf("clear hidden attribute of %s: %w", path, err)
		}
	}

	defer func() {
		if !hide && !wasHidden {
			return
		}
		if _, statErr := os.Stat(path); statErr != nil {
			return
		}
		if hErr := setHidden(path, true); hErr != nil && err == nil {
			err = fmt.Errorf("set hidden attribute of %s: %w", path, hErr)
		}
	}()

	return fn()
}

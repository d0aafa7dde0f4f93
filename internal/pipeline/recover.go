package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/logging"
	"github.com/kyleseven/ReLive-Compress/internal/naming"
)

// RecoveryReport lists the work files found by RecoverWorkFiles.
type RecoveryReport struct {
	Removed  []string // Partial outputs deleted; the original was intact.
	Restored []string // Complete outputs renamed back over a missing original.
	Failed   []error
}

// RecoverWorkFiles cleans up engine outputs left in dir by an interrupted
// run. When the original still exists the work file is partial and is
// removed. When the original is gone the run died between deleting it and
// renaming the finished output, so the work file is renamed back. With apply
// false nothing is changed and the report describes what would be done.
// Per-file errors are collected in the report; only a listing failure is
// returned.
func RecoverWorkFiles(fsys afero.Fs, dir, suffix, ext string, apply bool, log *logging.Logger) (RecoveryReport, error) {
	var rep RecoveryReport

	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return rep, fmt.Errorf("list %s: %w", dir, err)
	}

	verb := func(done, planned string) string {
		if apply {
			return done
		}
		return planned
	}

	for _, fi := range entries {
		if !fi.Mode().IsRegular() || !naming.IsWorkFile(fi.Name(), suffix, ext) {
			continue
		}
		work := filepath.Join(dir, fi.Name())
		orig, _ := naming.OriginalPath(work, suffix, filepath.Ext(work))

		_, statErr := fsys.Stat(orig)
		switch {
		case statErr == nil:
			if apply {
				if err := fsys.Remove(work); err != nil {
					rep.Failed = append(rep.Failed, fmt.Errorf("remove %s: %w", fi.Name(), err))
					log.Warn("Could not remove leftover %s: %v", fi.Name(), err)
					continue
				}
			}
			rep.Removed = append(rep.Removed, work)
			log.Warn("%s leftover partial output %s", verb("Removed", "Would remove"), fi.Name())

		case errors.Is(statErr, fs.ErrNotExist):
			if apply {
				if err := fsys.Rename(work, orig); err != nil {
					rep.Failed = append(rep.Failed, fmt.Errorf("restore %s: %w", fi.Name(), err))
					log.Warn("Could not restore %s from %s: %v", filepath.Base(orig), fi.Name(), err)
					continue
				}
			}
			rep.Restored = append(rep.Restored, orig)
			log.Warn("%s %s from finished output %s", verb("Restored", "Would restore"), filepath.Base(orig), fi.Name())
			if apply {
				// The original's times went with it; the output carries the encode time.
				log.Warn("Capture time of %s could not be recovered; by modification time it now counts as new and will be compressed again", filepath.Base(orig))
			}

		default:
			rep.Failed = append(rep.Failed, fmt.Errorf("stat %s: %w", filepath.Base(orig), statErr))
			log.Warn("Could not check %s: %v", filepath.Base(orig), statErr)
		}
	}
	return rep, nil
}

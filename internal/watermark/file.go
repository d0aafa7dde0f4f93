package watermark

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/spf13/afero"

	"github.com/kyleseven/ReLive-Compress/internal/fileattr"
)

// FileStore keeps the watermark as decimal ASCII in a single file.
type FileStore struct {
	fs   afero.Fs
	path string
	hide bool
}

// NewFileStore returns a store backed by path on fs. When hide is set the
// file is given the hidden attribute on platforms that have one.
func NewFileStore(fs afero.Fs, path string, hide bool) *FileStore {
	return &FileStore{fs: fs, path: path, hide: hide}
}

func (s *FileStore) Location() string { return s.path }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("read watermark %s: %w", s.path, err)
	}
	v, err := parseValue(s.path, string(data))
	if err != nil {
		return State{}, err
	}
	return State{Value: v, Found: true}, nil
}

// Save writes v to a sibling temp file and renames it over the watermark so
// a crash never leaves a truncated value behind.
func (s *FileStore) Save(ctx context.Context, v int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	current, err := s.Load(ctx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}
	if err := checkRegression(s.path, current, v); err != nil {
		return err
	}

	write := func() error {
		tmp := s.path + ".tmp"
		if err := afero.WriteFile(s.fs, tmp, []byte(strconv.FormatInt(v, 10)), 0o644); err != nil {
			return fmt.Errorf("write watermark: %w", err)
		}
		if err := s.fs.Rename(tmp, s.path); err != nil {
			_ = s.fs.Remove(tmp)
			return fmt.Errorf("replace watermark %s: %w", s.path, err)
		}
		return nil
	}
	if _, ok := s.fs.(*afero.OsFs); !ok {
		return write()
	}
	return fileattr.WithWritable(s.path, s.hide, write)
}

func (s *FileStore) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove watermark %s: %w", s.path, err)
	}
	return nil
}

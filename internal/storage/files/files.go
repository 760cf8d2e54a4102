// Package files keeps avatars in a directory on the local filesystem.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"contacts_api/internal/storage"
)

type Dir struct {
	root string
}

func New(root string) (*Dir, error) {
	const op = "storage.files.New"

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Dir{root: root}, nil
}

// Save moves the file at src into the directory under name. When rename
// fails (for instance across devices) the file is copied and src removed.
func (d *Dir) Save(_ context.Context, src, name string) error {
	const op = "storage.files.Save"

	dst := d.path(name)

	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	const op = "storage.files.Open"

	f, err := os.Open(d.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrAvatarNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return f, nil
}

// path keeps name inside root.
func (d *Dir) path(name string) string {
	return filepath.Join(d.root, filepath.Base(name))
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, in)

	return err
}

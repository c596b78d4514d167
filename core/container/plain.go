package container

import (
	"context"
	"os"
	"path/filepath"

	"rom-manager/core/errors"
	"rom-manager/core/library"
)

// Plain treats a file as a container holding only itself.
type Plain struct{}

func (Plain) Family() Family {
	return FamilyPlain
}

// Extension is empty: plain files keep the extension of their rom name.
func (Plain) Extension() string {
	return ""
}

func (Plain) List(_ context.Context, path string) ([]Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	return []Entry{{Name: filepath.Base(path), Size: info.Size()}}, nil
}

func (Plain) Materialize(_ context.Context, path string, _ []string, _ *library.Scratch) ([]string, error) {
	return []string{path}, nil
}

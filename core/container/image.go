package container

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"rom-manager/core/errors"
	"rom-manager/core/library"
)

// Decoder tools for compressed disc images.
const (
	MaxCSOTool    = "maxcso"
	DolphinTool   = "dolphin-tool"
	decodedISOExt = ".iso"
)

// decodeFunc writes the decoded image of src to dst.
type decodeFunc func(ctx context.Context, r Runner, src, dst string) error

// Image is a compressed disc image decoded whole into a single ISO.
type Image struct {
	runner Runner
	ext    string
	decode decodeFunc
}

// NewCSO returns the adapter for CSO images, decoded by maxcso.
func NewCSO(runner Runner) *Image {
	return &Image{runner: runner, ext: "cso", decode: func(ctx context.Context, r Runner, src, dst string) error {
		_, err := run(ctx, r, src, "", MaxCSOTool, "--decompress", src, "-o", dst)
		return err
	}}
}

// NewRVZ returns the adapter for RVZ images, decoded by dolphin-tool.
func NewRVZ(runner Runner) *Image {
	return &Image{runner: runner, ext: "rvz", decode: func(ctx context.Context, r Runner, src, dst string) error {
		_, err := run(ctx, r, src, "", DolphinTool, "convert", "-i", src, "-o", dst, "-f", "iso")
		return err
	}}
}

func (i *Image) Family() Family {
	return FamilyImage
}

func (i *Image) Extension() string {
	return i.ext
}

// List reports one virtual entry. Its size is only known after decode.
func (i *Image) List(_ context.Context, path string) ([]Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	return []Entry{{Name: decodedName(path, decodedISOExt)}}, nil
}

func (i *Image) Materialize(ctx context.Context, path string, _ []string, scratch *library.Scratch) ([]string, error) {
	dst := scratch.Path(decodedName(path, decodedISOExt))
	if err := i.decode(ctx, i.runner, path, dst); err != nil {
		return nil, err
	}
	if _, err := os.Stat(dst); err != nil {
		return nil, errors.NewDecodeError(path, nil, "", errors.New("decoder produced no output"))
	}
	return []string{dst}, nil
}

func decodedName(path, ext string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

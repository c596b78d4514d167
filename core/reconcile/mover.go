package reconcile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"rom-manager/core/catalog"
	"rom-manager/core/errors"
	"rom-manager/core/library"

	"go.uber.org/zap"
)

// Journal records how to undo the filesystem changes made for one input.
type Journal struct {
	undo []func() error
}

func (j *Journal) record(fn func() error) {
	j.undo = append(j.undo, fn)
}

// Len returns the number of recorded changes.
func (j *Journal) Len() int {
	return len(j.undo)
}

// Rollback undoes every recorded change, newest first.
func (j *Journal) Rollback() error {
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

// Mover relocates files and keeps their romfile records in step.
type Mover struct {
	layout *library.Layout
	logger *zap.Logger
}

// NewMover returns a mover for layout.
func NewMover(layout *library.Layout, logger *zap.Logger) *Mover {
	return &Mover{layout: layout, logger: logger}
}

// Place moves src to dst, records the romfile at dst and binds roms to it.
func (m *Mover) Place(ctx context.Context, cat catalog.Catalog, j *Journal, src, dst string, roms []catalog.Rom) (*catalog.Romfile, error) {
	if err := m.move(j, src, dst); err != nil {
		return nil, err
	}

	romfile, err := upsert(ctx, cat, dst)
	if err != nil {
		return nil, err
	}
	for _, rom := range roms {
		if err := cat.SetRomRomfile(ctx, rom.ID, romfile.ID); err != nil {
			return nil, err
		}
	}

	m.logger.Info("Placed file", zap.String("from", src), zap.String("to", dst), zap.Int("roms", len(roms)))
	return romfile, nil
}

// Quarantine moves src into the system's Trash directory and records it as a
// romfile backing no rom.
func (m *Mover) Quarantine(ctx context.Context, cat catalog.Catalog, j *Journal, src string, system catalog.System) (*catalog.Romfile, error) {
	dst := available(m.layout.TrashPath(system.Name, src))
	if err := m.move(j, src, dst); err != nil {
		return nil, err
	}

	romfile, err := upsert(ctx, cat, dst)
	if err != nil {
		return nil, err
	}

	m.logger.Warn("Quarantined file", zap.String("from", src), zap.String("to", dst))
	return romfile, nil
}

// Relocate moves an existing romfile to dst and updates its record. Rom
// bindings are kept.
func (m *Mover) Relocate(ctx context.Context, cat catalog.Catalog, j *Journal, romfile catalog.Romfile, dst string) (string, error) {
	dst = available(dst)
	if err := m.move(j, romfile.Path, dst); err != nil {
		return "", err
	}

	info, err := os.Stat(dst)
	if err != nil {
		return "", errors.WrapIO("stat", dst, err)
	}
	if err := cat.UpdateRomfile(ctx, romfile.ID, dst, info.Size()); err != nil {
		return "", err
	}

	m.logger.Info("Moved file", zap.String("from", romfile.Path), zap.String("to", dst))
	return dst, nil
}

func (m *Mover) move(j *Journal, src, dst string) error {
	if src == dst {
		return nil
	}
	if _, err := os.Stat(dst); err == nil {
		return errors.WrapIO("move", dst, os.ErrExist)
	}
	if err := moveFile(src, dst); err != nil {
		return err
	}
	j.record(func() error { return moveFile(dst, src) })
	return nil
}

func upsert(ctx context.Context, cat catalog.Catalog, path string) (*catalog.Romfile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	return cat.UpsertRomfile(ctx, path, info.Size())
}

// moveFile renames src to dst, copying across filesystems when needed.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WrapIO("mkdir", filepath.Dir(dst), err)
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return errors.WrapIO("rename", src, err)
	}

	if err := copyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return errors.WrapIO("remove", src, os.Remove(src))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.WrapIO("open", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.WrapIO("stat", src, err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return errors.WrapIO("create", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.WrapIO("copy", dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return errors.WrapIO("sync", dst, err)
	}
	return errors.WrapIO("close", dst, out.Close())
}

// available returns path, or path with a numeric suffix when it is taken.
func available(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

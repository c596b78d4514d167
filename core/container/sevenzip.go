package container

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rom-manager/core/errors"
	"rom-manager/core/library"
)

// SevenZipTool is the executable driving 7z and zip archives.
const SevenZipTool = "7z"

// SevenZip lists, extracts and renames archive members with the 7z tool.
type SevenZip struct {
	runner Runner
	ext    string
}

// NewSevenZip returns an adapter for archives with extension ext.
func NewSevenZip(runner Runner, ext string) *SevenZip {
	return &SevenZip{runner: runner, ext: ext}
}

func (s *SevenZip) Family() Family {
	return FamilyArchive
}

func (s *SevenZip) Extension() string {
	return s.ext
}

// List runs `7z l -slt` and returns every file member with its size and CRC.
func (s *SevenZip) List(ctx context.Context, path string) ([]Entry, error) {
	out, err := run(ctx, s.runner, path, "", SevenZipTool, "l", "-slt", path)
	if err != nil {
		return nil, err
	}
	entries, err := parseSevenZipListing(out)
	if err != nil {
		return nil, errors.NewDecodeError(path, []string{SevenZipTool, "l", "-slt", path}, "", err)
	}
	return entries, nil
}

// Materialize extracts the named members into the scratch directory.
func (s *SevenZip) Materialize(ctx context.Context, path string, names []string, scratch *library.Scratch) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}

	args := append([]string{"x", "-y", path}, names...)
	if _, err := run(ctx, s.runner, path, scratch.Dir(), SevenZipTool, args...); err != nil {
		return nil, err
	}

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = scratch.Path(name)
		if _, err := os.Stat(paths[i]); err != nil {
			return nil, errors.NewDecodeError(path, append([]string{SevenZipTool}, args...), "", fmt.Errorf("member %q was not extracted", name))
		}
	}
	return paths, nil
}

// RenameEntry renames a member inside the archive.
func (s *SevenZip) RenameEntry(ctx context.Context, path, oldName, newName string) error {
	_, err := run(ctx, s.runner, path, "", SevenZipTool, "rn", path, oldName, newName)
	return err
}

// parseSevenZipListing reads technical listing output. Members start after the
// "----------" separator, one block per "Path =" line; folders are skipped.
func parseSevenZipListing(out []byte) ([]Entry, error) {
	var (
		entries []Entry
		current *Entry
		folder  bool
		started bool
	)

	flush := func() {
		if current != nil && !folder {
			entries = append(entries, *current)
		}
		current = nil
		folder = false
	}

	hasSeparator := bytes.HasPrefix(out, []byte("----------")) || bytes.Contains(out, []byte("\n----------"))
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	skippedArchive := false
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if !started {
			if hasSeparator {
				started = strings.HasPrefix(line, "----------")
				continue
			}
			started = true
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Path":
			// Without a separator the first Path is the archive itself.
			if !hasSeparator && !skippedArchive {
				skippedArchive = true
				continue
			}
			flush()
			current = &Entry{Name: value}
		case "Size":
			if current == nil {
				continue
			}
			if value == "" {
				continue
			}
			size, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid size %q for %s: %w", value, current.Name, err)
			}
			current.Size = size
		case "CRC":
			if current != nil {
				current.CRC = strings.ToLower(value)
			}
		case "Folder":
			if current != nil && value == "+" {
				folder = true
			}
		case "Attributes":
			if current != nil && strings.HasPrefix(value, "D") {
				folder = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return entries, nil
}

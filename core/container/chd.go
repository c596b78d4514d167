package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rom-manager/core/errors"
	"rom-manager/core/library"
)

// ChdmanTool decodes CHD images.
const ChdmanTool = "chdman"

// ErrTrackLayout marks a decode whose tracks do not fit the requested layout.
var ErrTrackLayout = errors.New("track layout mismatch")

// CHD decodes CD images stored as CHD. Tracks come out of chdman as a single
// bin which is split by the sizes the catalog expects.
type CHD struct {
	runner Runner
}

// NewCHD returns the CHD adapter.
func NewCHD(runner Runner) *CHD {
	return &CHD{runner: runner}
}

func (c *CHD) Family() Family {
	return FamilyTrackImage
}

func (c *CHD) Extension() string {
	return "chd"
}

// List reports a single virtual track. Multi-track layouts come from the cue sheet.
func (c *CHD) List(_ context.Context, path string) ([]Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	return []Entry{{Name: decodedName(path, ".bin")}}, nil
}

// Materialize decodes the image as a single track.
func (c *CHD) Materialize(ctx context.Context, path string, _ []string, scratch *library.Scratch) ([]string, error) {
	bin, err := c.extract(ctx, path, scratch)
	if err != nil {
		return nil, err
	}
	return []string{bin}, nil
}

// DecodeTracks decodes the image and splits it into exactly len(tracks) files.
func (c *CHD) DecodeTracks(ctx context.Context, path string, tracks []Track, scratch *library.Scratch) ([]string, error) {
	if len(tracks) == 0 {
		return nil, errors.NewDecodeError(path, nil, "", fmt.Errorf("%w: no tracks requested", ErrTrackLayout))
	}

	bin, err := c.extract(ctx, path, scratch)
	if err != nil {
		return nil, err
	}
	defer os.Remove(bin)

	return splitTracks(path, bin, tracks, scratch)
}

func (c *CHD) extract(ctx context.Context, path string, scratch *library.Scratch) (string, error) {
	// chdman writes into its own directory so track names cannot collide with its output.
	dir := scratch.Path(".chdman")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapIO("mkdir", dir, err)
	}
	cue := filepath.Join(dir, decodedName(path, ".cue"))
	bin := filepath.Join(dir, decodedName(path, ".bin"))
	if _, err := run(ctx, c.runner, path, "", ChdmanTool, "extractcd", "-i", path, "-o", cue, "-ob", bin, "-f"); err != nil {
		return "", err
	}
	_ = os.Remove(cue)
	if _, err := os.Stat(bin); err != nil {
		return "", errors.NewDecodeError(path, nil, "", errors.New("chdman produced no bin"))
	}
	return bin, nil
}

// splitTracks cuts bin into consecutive pieces of the requested sizes. The
// sizes must account for every byte of bin.
func splitTracks(path, bin string, tracks []Track, scratch *library.Scratch) ([]string, error) {
	in, err := os.Open(bin)
	if err != nil {
		return nil, errors.WrapIO("open", bin, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, errors.WrapIO("stat", bin, err)
	}

	var total int64
	for _, t := range tracks {
		total += t.Size
	}
	if total != info.Size() {
		return nil, errors.NewDecodeError(path, nil, "",
			fmt.Errorf("%w: track sizes add up to %d bytes but the image decodes to %d", ErrTrackLayout, total, info.Size()))
	}

	paths := make([]string, 0, len(tracks))
	for _, t := range tracks {
		dst := scratch.Path(t.Name)
		if err := copyN(dst, in, t.Size); err != nil {
			return nil, err
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

func copyN(dst string, src io.Reader, n int64) error {
	out, err := os.Create(dst)
	if err != nil {
		return errors.WrapIO("create", dst, err)
	}
	if _, err := io.CopyN(out, src, n); err != nil {
		out.Close()
		return errors.WrapIO("write", dst, err)
	}
	return errors.WrapIO("close", dst, out.Close())
}

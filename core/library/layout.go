package library

import (
	"os"
	"path/filepath"
	"strings"

	"rom-manager/core/errors"

	"github.com/google/uuid"
)

// TrashDirectoryName is the per-system quarantine folder.
const TrashDirectoryName = "Trash"

// Layout resolves canonical locations inside the library. It is built once
// from configuration and passed to every component that touches the disk.
type Layout struct {
	root string
	tmp  string
}

// NewLayout validates cfg and returns the layout it describes.
func NewLayout(cfg Config) (*Layout, error) {
	if strings.TrimSpace(cfg.RootDirectory) == "" {
		return nil, errors.NewConfigurationError("library.root_directory", "", "must not be empty")
	}

	root, err := filepath.Abs(cfg.RootDirectory)
	if err != nil {
		return nil, errors.NewConfigurationError("library.root_directory", cfg.RootDirectory, err.Error())
	}

	tmp := cfg.TmpDirectory
	if tmp == "" {
		tmp = os.TempDir()
	}
	tmp, err = filepath.Abs(tmp)
	if err != nil {
		return nil, errors.NewConfigurationError("library.tmp_directory", cfg.TmpDirectory, err.Error())
	}

	return &Layout{root: root, tmp: tmp}, nil
}

// Root returns the absolute library root.
func (l *Layout) Root() string {
	return l.root
}

// Tmp returns the absolute scratch root.
func (l *Layout) Tmp() string {
	return l.tmp
}

// SystemDirectory returns <root>/<system>.
func (l *Layout) SystemDirectory(system string) string {
	return filepath.Join(l.root, sanitize(system))
}

// TrashDirectory returns <root>/<system>/Trash.
func (l *Layout) TrashDirectory(system string) string {
	return filepath.Join(l.SystemDirectory(system), TrashDirectoryName)
}

// TrashPath returns the quarantine destination for the file at path.
func (l *Layout) TrashPath(system, path string) string {
	return filepath.Join(l.TrashDirectory(system), filepath.Base(path))
}

// NewScratch creates a private directory under the scratch root.
func (l *Layout) NewScratch() (*Scratch, error) {
	if err := os.MkdirAll(l.tmp, 0o755); err != nil {
		return nil, errors.WrapIO("mkdir", l.tmp, err)
	}
	dir := filepath.Join(l.tmp, "rom-manager-"+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, errors.WrapIO("mkdir", dir, err)
	}
	return &Scratch{dir: dir}, nil
}

// Scratch is a temporary directory removed by Close.
type Scratch struct {
	dir string
}

// Dir returns the scratch directory.
func (s *Scratch) Dir() string {
	return s.dir
}

// Path joins name onto the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Close removes the scratch directory and everything in it.
func (s *Scratch) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}

// sanitize keeps catalog names from escaping their parent directory.
func sanitize(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "." || name == ".." {
		return "_"
	}
	return name
}

// ReplaceExtension swaps the extension of name for ext (given without dot).
func ReplaceExtension(name, ext string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return stem + "." + ext
}

// Extension returns the lowercase extension of path without the dot.
func Extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

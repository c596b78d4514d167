package container

import (
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Registry maps lowercase file extensions to adapters. Unknown extensions
// are plain files. Known container extensions whose tool is not installed
// are recorded as unsupported and must not be read as plain files.
type Registry struct {
	adapters    map[string]Adapter
	unsupported map[string]string
	plain       Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters:    make(map[string]Adapter),
		unsupported: make(map[string]string),
		plain:       Plain{},
	}
}

// Register binds ext (with or without a leading dot) to a.
func (r *Registry) Register(ext string, a Adapter) {
	ext = normalizeExt(ext)
	r.adapters[ext] = a
	delete(r.unsupported, ext)
}

// MarkUnsupported records that ext is a container format whose tool is
// missing.
func (r *Registry) MarkUnsupported(ext, tool string) {
	ext = normalizeExt(ext)
	if _, ok := r.adapters[ext]; ok {
		return
	}
	r.unsupported[ext] = tool
}

// MissingTool returns the tool needed to read path when its format is known
// but the tool is not installed.
func (r *Registry) MissingTool(path string) (string, bool) {
	tool, ok := r.unsupported[normalizeExt(filepath.Ext(path))]
	return tool, ok
}

// Lookup returns the adapter for path's extension.
func (r *Registry) Lookup(path string) Adapter {
	if a, ok := r.adapters[normalizeExt(filepath.Ext(path))]; ok {
		return a
	}
	return r.plain
}

// Extensions lists the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.adapters))
	for ext := range r.adapters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// LookPathFunc resolves a tool name on PATH.
type LookPathFunc func(file string) (string, error)

// DefaultRegistry registers every adapter whose external tool is installed.
// Extensions of a format whose tool is missing are marked unsupported.
func DefaultRegistry(runner Runner, lookPath LookPathFunc, logger *zap.Logger) *Registry {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	r := NewRegistry()

	tools := []struct {
		tool    string
		exts    []string
		adapter func(ext string) Adapter
	}{
		{SevenZipTool, []string{"7z", "zip"}, func(ext string) Adapter { return NewSevenZip(runner, ext) }},
		{ChdmanTool, []string{"chd"}, func(string) Adapter { return NewCHD(runner) }},
		{MaxCSOTool, []string{"cso"}, func(string) Adapter { return NewCSO(runner) }},
		{DolphinTool, []string{"rvz"}, func(string) Adapter { return NewRVZ(runner) }},
	}

	for _, t := range tools {
		path, err := lookPath(t.tool)
		if err != nil {
			logger.Warn("Container tool not found, its formats will be skipped",
				zap.String("tool", t.tool), zap.Strings("extensions", t.exts))
			for _, ext := range t.exts {
				r.MarkUnsupported(ext, t.tool)
			}
			continue
		}
		logger.Debug("Container tool found", zap.String("tool", t.tool), zap.String("path", path))
		for _, ext := range t.exts {
			r.Register(ext, t.adapter(ext))
		}
	}
	return r
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"rom-manager/core/catalog"
	"rom-manager/core/catalog/catalogtest"
	"rom-manager/core/container"
	"rom-manager/core/errors"
	"rom-manager/core/hashing"
	"rom-manager/core/library"
	"rom-manager/core/prompt"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// member is one file stored in a jsonArchive.
type member struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// jsonArchive is an archive format whose members are kept as JSON, so tests
// can exercise the archive flows without 7z installed.
type jsonArchive struct{}

func (jsonArchive) Family() container.Family {
	return container.FamilyArchive
}

func (jsonArchive) Extension() string {
	return "7z"
}

func (jsonArchive) List(_ context.Context, path string) ([]container.Entry, error) {
	members, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	entries := make([]container.Entry, len(members))
	for i, m := range members {
		sum, err := hashing.Hash(bytes.NewReader(m.Data), 0, hashing.CRC)
		if err != nil {
			return nil, err
		}
		entries[i] = container.Entry{Name: m.Name, Size: sum.Size, CRC: sum.Digest}
	}
	return entries, nil
}

func (jsonArchive) Materialize(_ context.Context, path string, names []string, scratch *library.Scratch) ([]string, error) {
	members, err := readArchive(path)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(names))
	for _, name := range names {
		m, ok := findMember(members, name)
		if !ok {
			return nil, errors.NewDecodeError(path, nil, "", fmt.Errorf("no member %q", name))
		}
		out := scratch.Path(name)
		if err := os.WriteFile(out, m.Data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, out)
	}
	return paths, nil
}

func (jsonArchive) RenameEntry(_ context.Context, path, oldName, newName string) error {
	members, err := readArchive(path)
	if err != nil {
		return err
	}
	for i := range members {
		if members[i].Name == oldName {
			members[i].Name = newName
		}
	}
	return writeMembers(path, members)
}

func readArchive(path string) ([]member, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var members []member
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, errors.NewDecodeError(path, nil, "", err)
	}
	return members, nil
}

func writeMembers(path string, members []member) error {
	raw, err := json.Marshal(members)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func findMember(members []member, name string) (member, bool) {
	for _, m := range members {
		if m.Name == name {
			return m, true
		}
	}
	return member{}, false
}

// copyRunner stands in for chdman: extractcd copies the image to the
// requested bin, so an image file holds its raw track data.
type copyRunner struct{}

func (copyRunner) Run(_ context.Context, _ string, name string, args ...string) ([]byte, error) {
	if name != container.ChdmanTool {
		return nil, fmt.Errorf("unexpected tool %s", name)
	}
	var in, bin string
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "-i":
			in = args[i+1]
		case "-ob":
			bin = args[i+1]
		}
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return []byte(err.Error()), err
	}
	return nil, os.WriteFile(bin, data, 0o644)
}

// testEnv is a library, catalog and engine rooted in temporary directories.
type testEnv struct {
	t      *testing.T
	store  *catalog.Store
	fx     *catalogtest.Fixture
	layout *library.Layout
	engine *Engine
	inbox  string
	algo   hashing.Algorithm
	ctx    context.Context
}

// testRegistry reads 7z as jsonArchive and chd through copyRunner.
func testRegistry() *container.Registry {
	registry := container.NewRegistry()
	registry.Register("7z", jsonArchive{})
	registry.Register("chd", container.NewCHD(copyRunner{}))
	return registry
}

func newTestEnv(t *testing.T, decider prompt.Decider) *testEnv {
	t.Helper()
	return newTestEnvWithRegistry(t, decider, testRegistry())
}

func newTestEnvWithRegistry(t *testing.T, decider prompt.Decider, registry *container.Registry) *testEnv {
	t.Helper()

	store := catalogtest.NewStore(t)
	layout, err := library.NewLayout(library.Config{
		RootDirectory: filepath.Join(t.TempDir(), "roms"),
		TmpDirectory:  t.TempDir(),
	})
	require.NoError(t, err)

	return &testEnv{
		t:      t,
		store:  store,
		fx:     catalogtest.NewFixture(t, store),
		layout: layout,
		engine: NewEngine(store, registry, layout, decider, zap.NewNop()),
		inbox:  t.TempDir(),
		algo:   hashing.CRC,
		ctx:    context.Background(),
	}
}

// rom inserts a rom whose digests are those of data.
func (e *testEnv) rom(game *catalog.Game, name string, data []byte) *catalog.Rom {
	e.t.Helper()
	digest := func(algo hashing.Algorithm) string {
		sum, err := hashing.Hash(bytes.NewReader(data), 0, algo)
		require.NoError(e.t, err)
		return sum.Digest
	}
	return e.fx.Rom(game, name, int64(len(data)), digest(hashing.CRC), digest(hashing.MD5), digest(hashing.SHA1))
}

// file writes data to name inside the inbox.
func (e *testEnv) file(name string, data []byte) string {
	e.t.Helper()
	path := filepath.Join(e.inbox, name)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(e.t, os.WriteFile(path, data, 0o644))
	return path
}

// archive writes a jsonArchive named name inside the inbox.
func (e *testEnv) archive(name string, members ...member) string {
	e.t.Helper()
	path := filepath.Join(e.inbox, name)
	require.NoError(e.t, writeMembers(path, members))
	return path
}

func (e *testEnv) importPaths(system *catalog.System, paths ...string) ([]ImportReport, error) {
	return e.engine.Import(e.ctx, ImportRequest{System: *system, Algorithm: e.algo, Paths: paths})
}

// payload returns n deterministic bytes derived from seed.
func payload(seed byte, n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = seed + byte(i*7)
	}
	return data
}

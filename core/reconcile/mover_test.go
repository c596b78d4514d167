package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"rom-manager/core/catalog"
	"rom-manager/core/library"
	"rom-manager/core/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestJournal_RollbackNewestFirst(t *testing.T) {
	var order []int
	j := &Journal{}
	for i := 1; i <= 3; i++ {
		i := i
		j.record(func() error {
			order = append(order, i)
			return nil
		})
	}
	assert.Equal(t, 3, j.Len())

	require.NoError(t, j.Rollback())
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Zero(t, j.Len())
}

func TestJournal_RollbackJoinsErrors(t *testing.T) {
	j := &Journal{}
	ran := false
	j.record(func() error {
		ran = true
		return nil
	})
	j.record(func() error { return os.ErrPermission })

	err := j.Rollback()
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.True(t, ran)
}

func TestMover_RefusesOccupiedDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("b"), 0o644))

	m := NewMover(nil, zap.NewNop())
	j := &Journal{}
	err := m.move(j, src, dst)
	assert.ErrorIs(t, err, os.ErrExist)
	assert.Zero(t, j.Len())
	assert.FileExists(t, src)
}

func TestMover_MoveAndUndo(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "file.bin")
	dst := filepath.Join(dir, "out", "nested", "file.bin")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	m := NewMover(nil, zap.NewNop())
	j := &Journal{}
	require.NoError(t, m.move(j, src, dst))
	assert.FileExists(t, dst)
	assert.NoFileExists(t, src)

	require.NoError(t, j.Rollback())
	assert.FileExists(t, src)
	assert.NoFileExists(t, dst)
}

func TestMover_QuarantineAvoidsCollisions(t *testing.T) {
	env := newTestEnv(t, prompt.Decline{})
	system := env.fx.System("Atari - 7800", false)
	mover := NewMover(env.layout, zap.NewNop())

	var paths []string
	for i := 0; i < 3; i++ {
		src := env.file("bad.a78", payload(byte(i), 32))
		err := env.store.Transaction(env.ctx, func(cat catalog.Catalog) error {
			romfile, err := mover.Quarantine(env.ctx, cat, &Journal{}, src, *system)
			if err == nil {
				paths = append(paths, romfile.Path)
			}
			return err
		})
		require.NoError(t, err)
	}

	trash := env.layout.TrashDirectory(system.Name)
	assert.Equal(t, []string{
		filepath.Join(trash, "bad.a78"),
		filepath.Join(trash, "bad (1).a78"),
		filepath.Join(trash, "bad (2).a78"),
	}, paths)
	assert.Len(t, env.fx.Romfiles(), 3)
}

func TestPlacement(t *testing.T) {
	layout, err := library.NewLayout(library.Config{RootDirectory: "/library"})
	require.NoError(t, err)

	console := catalog.System{Name: "Sony - PlayStation 3"}
	arcade := catalog.System{Name: "MAME", Arcade: true}
	game := catalog.Game{Name: "Some Game"}
	folder := catalog.Game{Name: "Folder Game", Jbfolder: true}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "plain rom",
			got:  entryDestination(layout, console, game, catalog.Rom{Name: "disc.iso"}),
			want: "/library/Sony - PlayStation 3/disc.iso",
		},
		{
			name: "update package uses game name",
			got:  entryDestination(layout, console, game, catalog.Rom{Name: "patch.pkg"}),
			want: "/library/Sony - PlayStation 3/Some Game.pkg",
		},
		{
			name: "arcade rom nests under game",
			got:  entryDestination(layout, arcade, game, catalog.Rom{Name: "rom.bin"}),
			want: "/library/MAME/Some Game/rom.bin",
		},
		{
			name: "folder game nests under game",
			got:  entryDestination(layout, console, folder, catalog.Rom{Name: "PS3_GAME/EBOOT.BIN"}),
			want: "/library/Sony - PlayStation 3/Folder Game/PS3_GAME/EBOOT.BIN",
		},
		{
			name: "single rom archive keeps rom name",
			got:  archiveDestination(layout, console, game, []catalog.Rom{{Name: "disc.iso"}}, "7z"),
			want: "/library/Sony - PlayStation 3/disc.7z",
		},
		{
			name: "multi rom archive uses game name",
			got:  archiveDestination(layout, console, game, []catalog.Rom{{Name: "a"}, {Name: "b"}}, "zip"),
			want: "/library/Sony - PlayStation 3/Some Game.zip",
		},
		{
			name: "arcade archive uses game name",
			got:  archiveDestination(layout, arcade, game, []catalog.Rom{{Name: "a.bin"}}, "zip"),
			want: "/library/MAME/Some Game.zip",
		},
		{
			name: "image keeps rom stem",
			got:  imageDestination(layout, console, catalog.Rom{Name: "disc.iso"}, "cso"),
			want: "/library/Sony - PlayStation 3/disc.cso",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), tt.got)
		})
	}
}

// Package catalogtest builds throwaway catalogs for tests.
package catalogtest

import (
	"context"
	"path/filepath"
	"testing"

	"rom-manager/core/catalog"
	"rom-manager/core/database"

	"github.com/stretchr/testify/require"
)

// NewStore returns a migrated catalog backed by a sqlite file in t.TempDir().
func NewStore(t testing.TB) *catalog.Store {
	t.Helper()

	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   filepath.Join(t.TempDir(), "catalog.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := catalog.NewStore(db)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

// Fixture inserts catalog records directly.
type Fixture struct {
	t     testing.TB
	store *catalog.Store
}

// NewFixture wraps store for seeding.
func NewFixture(t testing.TB, store *catalog.Store) *Fixture {
	return &Fixture{t: t, store: store}
}

// System inserts a system.
func (f *Fixture) System(name string, arcade bool) *catalog.System {
	f.t.Helper()
	s := &catalog.System{Name: name, Arcade: arcade}
	require.NoError(f.t, f.store.DB().Create(s).Error)
	return s
}

// Header attaches a copier header of size bytes to system.
func (f *Fixture) Header(system *catalog.System, size int64) *catalog.Header {
	f.t.Helper()
	h := &catalog.Header{SystemID: system.ID, Name: system.Name + " header", Size: size}
	require.NoError(f.t, f.store.DB().Create(h).Error)
	return h
}

// Game inserts a game in system.
func (f *Fixture) Game(system *catalog.System, name string) *catalog.Game {
	f.t.Helper()
	g := &catalog.Game{Name: name, SystemID: system.ID}
	require.NoError(f.t, f.store.DB().Create(g).Error)
	return g
}

// Rom inserts a rom of game. Digests are stored as given.
func (f *Fixture) Rom(game *catalog.Game, name string, size int64, crc, md5, sha1 string) *catalog.Rom {
	f.t.Helper()
	r := &catalog.Rom{Name: name, Size: size, CRC: crc, MD5: md5, SHA1: sha1, GameID: game.ID}
	require.NoError(f.t, f.store.DB().Create(r).Error)
	return r
}

// Save persists changes made to a record.
func (f *Fixture) Save(value any) {
	f.t.Helper()
	require.NoError(f.t, f.store.DB().Save(value).Error)
}

// Reload returns the current state of a rom.
func (f *Fixture) Reload(rom *catalog.Rom) *catalog.Rom {
	f.t.Helper()
	var fresh catalog.Rom
	require.NoError(f.t, f.store.DB().First(&fresh, rom.ID).Error)
	return &fresh
}

// Romfiles returns every romfile ordered by id.
func (f *Fixture) Romfiles() []catalog.Romfile {
	f.t.Helper()
	var romfiles []catalog.Romfile
	require.NoError(f.t, f.store.DB().Order("id").Find(&romfiles).Error)
	return romfiles
}

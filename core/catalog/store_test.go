package catalog_test

import (
	"context"
	"regexp"
	"testing"

	"rom-manager/core/catalog"
	"rom-manager/core/catalog/catalogtest"
	"rom-manager/core/errors"
	"rom-manager/core/hashing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestStore_Lookups(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)
	fx := catalogtest.NewFixture(t, store)

	nes := fx.System("Nintendo - NES", false)
	snes := fx.System("Nintendo - SNES", false)
	fx.Header(nes, 16)

	game := fx.Game(nes, "Game (USA)")
	rom := fx.Rom(game, "Game (USA).nes", 1024, "deadbeef", "", "")
	fx.Rom(fx.Game(snes, "Other"), "Other.sfc", 1024, "deadbeef", "", "")

	systems, err := store.FindSystems(ctx)
	require.NoError(t, err)
	require.Len(t, systems, 2)
	assert.Equal(t, "Nintendo - NES", systems[0].Name)

	header, err := store.FindHeaderBySystemID(ctx, nes.ID)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, int64(16), header.Size)

	header, err = store.FindHeaderBySystemID(ctx, snes.ID)
	require.NoError(t, err)
	assert.Nil(t, header)

	missing, err := store.FindSystemByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	roms, err := store.FindRomsByHash(ctx, nes.ID, hashing.CRC, 1024, "deadbeef", false)
	require.NoError(t, err)
	require.Len(t, roms, 1)
	assert.Equal(t, rom.ID, roms[0].ID)

	// size-only and digest-only never match
	roms, err = store.FindRomsByHash(ctx, nes.ID, hashing.CRC, 1025, "deadbeef", false)
	require.NoError(t, err)
	assert.Empty(t, roms)
	roms, err = store.FindRomsByHash(ctx, nes.ID, hashing.CRC, 1024, "deadbeee", false)
	require.NoError(t, err)
	assert.Empty(t, roms)

	roms, err = store.FindRomsByHash(ctx, nes.ID, hashing.CRC, 1024, "deadbeef", true)
	require.NoError(t, err)
	assert.Empty(t, roms)
}

func TestStore_RomfileLifecycle(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)
	fx := catalogtest.NewFixture(t, store)

	sys := fx.System("Sega - Mega Drive", false)
	game := fx.Game(sys, "Sonic")
	rom := fx.Rom(game, "Sonic.md", 4, "11111111", "", "")

	romfile, err := store.UpsertRomfile(ctx, "/roms/Sonic.md", 4)
	require.NoError(t, err)
	again, err := store.UpsertRomfile(ctx, "/roms/Sonic.md", 8)
	require.NoError(t, err)
	assert.Equal(t, romfile.ID, again.ID)
	assert.Equal(t, int64(8), again.Size)
	assert.Len(t, fx.Romfiles(), 1)

	require.NoError(t, store.SetRomRomfile(ctx, rom.ID, romfile.ID))
	assert.Equal(t, romfile.ID, *fx.Reload(rom).RomfileID)

	filed, err := store.FindRomsByHash(ctx, sys.ID, hashing.CRC, 4, "11111111", true)
	require.NoError(t, err)
	assert.Len(t, filed, 1)

	romfiles, err := store.FindRomfilesBySystem(ctx, sys.ID)
	require.NoError(t, err)
	require.Len(t, romfiles, 1)
	assert.Equal(t, "/roms/Sonic.md", romfiles[0].Path)

	bound, err := store.FindRomsWithRomfileBySystem(ctx, sys.ID)
	require.NoError(t, err)
	assert.Len(t, bound, 1)

	require.NoError(t, store.UpdateRomfile(ctx, romfile.ID, "/roms/Trash/Sonic.md", 4))
	moved, err := store.FindRomfileByID(ctx, romfile.ID)
	require.NoError(t, err)
	assert.Equal(t, "/roms/Trash/Sonic.md", moved.Path)

	err = store.UpdateRomfile(ctx, 999, "/x", 1)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	err = store.SetRomRomfile(ctx, 999, romfile.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestStore_UnboundRomfilesExcludedFromSystem(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)
	fx := catalogtest.NewFixture(t, store)
	sys := fx.System("Atari - 2600", false)

	_, err := store.UpsertRomfile(ctx, "/roms/Atari - 2600/Trash/junk.bin", 3)
	require.NoError(t, err)

	romfiles, err := store.FindRomfilesBySystem(ctx, sys.ID)
	require.NoError(t, err)
	assert.Empty(t, romfiles)
}

func TestStore_GameRomsNoParents(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)
	fx := catalogtest.NewFixture(t, store)

	sys := fx.System("Arcade", true)
	parent := fx.Game(sys, "pacman")
	parentRom := fx.Rom(parent, "pm1.bin", 1, "aaaaaaaa", "", "")
	clone := fx.Game(sys, "puckman")
	own := fx.Rom(clone, "pk1.bin", 1, "bbbbbbbb", "", "")
	merged := fx.Rom(clone, "pm1.bin", 1, "aaaaaaaa", "", "")
	merged.ParentID = &parentRom.ID
	fx.Save(merged)

	roms, err := store.FindGameRomsNoParents(ctx, clone.ID)
	require.NoError(t, err)
	require.Len(t, roms, 1)
	assert.Equal(t, own.ID, roms[0].ID)
}

func TestStore_Settings(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)

	_, ok, err := store.GetSetting(ctx, catalog.SettingHashAlgorithm)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetSetting(ctx, catalog.SettingHashAlgorithm, "SHA1"))
	require.NoError(t, store.SetSetting(ctx, catalog.SettingHashAlgorithm, "MD5"))

	value, ok, err := store.GetSetting(ctx, catalog.SettingHashAlgorithm)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MD5", value)
}

func TestStore_UpdateCompletion(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)
	fx := catalogtest.NewFixture(t, store)

	sys := fx.System("Nintendo - Game Boy", false)
	a := fx.Game(sys, "A")
	romA := fx.Rom(a, "A.gb", 1, "00000001", "", "")
	b := fx.Game(sys, "B")
	fx.Rom(b, "B.gb", 1, "00000002", "", "")

	romfile, err := store.UpsertRomfile(ctx, "/roms/A.gb", 1)
	require.NoError(t, err)
	require.NoError(t, store.SetRomRomfile(ctx, romA.ID, romfile.ID))
	require.NoError(t, store.UpdateCompletion(ctx, sys.ID))

	gameA, err := store.FindGameByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, gameA.Complete)
	gameB, err := store.FindGameByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, gameB.Complete)
	system, err := store.FindSystemByID(ctx, sys.ID)
	require.NoError(t, err)
	assert.False(t, system.Complete)
}

func TestStore_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	store := catalogtest.NewStore(t)
	fx := catalogtest.NewFixture(t, store)

	err := store.Transaction(ctx, func(tx catalog.Catalog) error {
		if _, err := tx.UpsertRomfile(ctx, "/roms/x.bin", 1); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")
	assert.Empty(t, fx.Romfiles())

	err = store.Transaction(ctx, func(tx catalog.Catalog) error {
		_, err := tx.UpsertRomfile(ctx, "/roms/y.bin", 1)
		return err
	})
	require.NoError(t, err)
	assert.Len(t, fx.Romfiles(), 1)
}

func TestStore_VerifySchema(t *testing.T) {
	store := catalogtest.NewStore(t)
	assert.NoError(t, store.VerifySchema(context.Background()))
}

func TestStore_VerifySchema_MissingColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("id", "bigint", "NO", "PRI", nil, "auto_increment").
		AddRow("name", "varchar(255)", "NO", "UNI", nil, "").
		AddRow("arcade", "tinyint(1)", "NO", "", "0", "")
	mock.ExpectQuery(regexp.QuoteMeta("SHOW COLUMNS FROM `systems`")).WillReturnRows(rows)

	err = catalog.NewStore(gormDB).VerifySchema(context.Background())
	var cfgErr *errors.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "systems", cfgErr.Value)
	assert.Contains(t, cfgErr.Message, "complete")
}

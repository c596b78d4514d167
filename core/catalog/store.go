package catalog

import (
	"context"
	"fmt"
	"strconv"

	"rom-manager/core/database"
	"rom-manager/core/errors"
	"rom-manager/core/hashing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements Catalog on top of GORM.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the catalog tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate catalog: %w", err)
	}
	return nil
}

// VerifySchema checks that every catalog table carries the columns this
// version reads and writes.
func (s *Store) VerifySchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse model: %w", err)
		}

		expected := make([]string, 0, len(stmt.Schema.DBNames))
		expected = append(expected, stmt.Schema.DBNames...)

		missing, err := database.MissingColumns(db, stmt.Schema.Table, expected)
		if err != nil {
			return err
		}
		if len(missing) == len(expected) {
			return errors.NewConfigurationError("database", stmt.Schema.Table, "table is missing; run with database.auto_migrate enabled")
		}
		if len(missing) > 0 {
			return errors.NewConfigurationError("database", stmt.Schema.Table, fmt.Sprintf("missing columns %v", missing))
		}
	}
	return nil
}

func (s *Store) FindSystems(ctx context.Context) ([]System, error) {
	var systems []System
	if err := s.db.WithContext(ctx).Order("name").Find(&systems).Error; err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	return systems, nil
}

func (s *Store) FindSystemByID(ctx context.Context, id int64) (*System, error) {
	var system System
	return first(s.db.WithContext(ctx).Where("id = ?", id), &system, "system")
}

func (s *Store) FindHeaderBySystemID(ctx context.Context, systemID int64) (*Header, error) {
	var header Header
	return first(s.db.WithContext(ctx).Where("system_id = ?", systemID), &header, "header")
}

func (s *Store) FindGameByID(ctx context.Context, id int64) (*Game, error) {
	var game Game
	return first(s.db.WithContext(ctx).Where("id = ?", id), &game, "game")
}

func (s *Store) FindRomsByHash(ctx context.Context, systemID int64, algo hashing.Algorithm, size int64, digest string, filed bool) ([]Rom, error) {
	q := s.db.WithContext(ctx).
		Model(&Rom{}).
		Select("roms.*").
		Joins("JOIN games ON games.id = roms.game_id").
		Where("games.system_id = ?", systemID).
		Where("roms.size = ?", size).
		Where(clause.Eq{Column: clause.Column{Table: "roms", Name: algo.Column()}, Value: digest})

	if filed {
		q = q.Where("roms.romfile_id IS NOT NULL")
	} else {
		q = q.Where("roms.romfile_id IS NULL")
	}

	var roms []Rom
	if err := q.Order("roms.id").Find(&roms).Error; err != nil {
		return nil, fmt.Errorf("failed to find roms by %s: %w", algo, err)
	}
	return roms, nil
}

func (s *Store) FindGameRomsNoParents(ctx context.Context, gameID int64) ([]Rom, error) {
	var roms []Rom
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND parent_id IS NULL", gameID).
		Order("id").
		Find(&roms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list roms of game %d: %w", gameID, err)
	}
	return roms, nil
}

func (s *Store) FindRomsWithRomfileBySystem(ctx context.Context, systemID int64) ([]Rom, error) {
	var roms []Rom
	err := s.db.WithContext(ctx).
		Model(&Rom{}).
		Select("roms.*").
		Joins("JOIN games ON games.id = roms.game_id").
		Where("games.system_id = ? AND roms.romfile_id IS NOT NULL", systemID).
		Order("roms.romfile_id, roms.id").
		Find(&roms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list filed roms of system %d: %w", systemID, err)
	}
	return roms, nil
}

func (s *Store) FindRomfilesBySystem(ctx context.Context, systemID int64) ([]Romfile, error) {
	db := s.db.WithContext(ctx)
	bound := db.Model(&Rom{}).
		Select("roms.romfile_id").
		Joins("JOIN games ON games.id = roms.game_id").
		Where("games.system_id = ? AND roms.romfile_id IS NOT NULL", systemID)

	var romfiles []Romfile
	if err := db.Where("id IN (?)", bound).Order("id").Find(&romfiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list romfiles of system %d: %w", systemID, err)
	}
	return romfiles, nil
}

func (s *Store) FindRomfileByPath(ctx context.Context, path string) (*Romfile, error) {
	var romfile Romfile
	return first(s.db.WithContext(ctx).Where("path = ?", path), &romfile, "romfile")
}

func (s *Store) FindRomfileByID(ctx context.Context, id int64) (*Romfile, error) {
	var romfile Romfile
	return first(s.db.WithContext(ctx).Where("id = ?", id), &romfile, "romfile")
}

// UpsertRomfile creates the romfile at path or refreshes its size.
func (s *Store) UpsertRomfile(ctx context.Context, path string, size int64) (*Romfile, error) {
	existing, err := s.FindRomfileByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if existing != nil {
		if existing.Size != size {
			if err := db.Model(existing).Update("size", size).Error; err != nil {
				return nil, fmt.Errorf("failed to update romfile %s: %w", path, err)
			}
			existing.Size = size
		}
		return existing, nil
	}

	romfile := &Romfile{Path: path, Size: size}
	if err := db.Create(romfile).Error; err != nil {
		return nil, fmt.Errorf("failed to create romfile %s: %w", path, err)
	}
	return romfile, nil
}

func (s *Store) UpdateRomfile(ctx context.Context, id int64, path string, size int64) error {
	res := s.db.WithContext(ctx).
		Model(&Romfile{}).
		Where("id = ?", id).
		Updates(map[string]any{"path": path, "size": size})
	if res.Error != nil {
		return fmt.Errorf("failed to update romfile %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFoundError("romfile", strconv.FormatInt(id, 10))
	}
	return nil
}

func (s *Store) SetRomRomfile(ctx context.Context, romID, romfileID int64) error {
	res := s.db.WithContext(ctx).
		Model(&Rom{}).
		Where("id = ?", romID).
		Update("romfile_id", romfileID)
	if res.Error != nil {
		return fmt.Errorf("failed to bind rom %d: %w", romID, res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NewNotFoundError("rom", strconv.FormatInt(romID, 10))
	}
	return nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var setting Setting
	found, err := first(s.db.WithContext(ctx).Where(&Setting{Key: key}), &setting, "setting")
	if err != nil {
		return "", false, err
	}
	if found == nil {
		return "", false, nil
	}
	return found.Value, true, nil
}

func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}
	return nil
}

// UpdateCompletion marks games complete when every rom they own is filed, and
// the system complete when all of its games are.
func (s *Store) UpdateCompletion(ctx context.Context, systemID int64) error {
	db := s.db.WithContext(ctx)

	err := db.Exec(`UPDATE games SET complete = NOT EXISTS (
		SELECT 1 FROM roms
		WHERE roms.game_id = games.id AND roms.parent_id IS NULL AND roms.romfile_id IS NULL
	) WHERE system_id = ?`, systemID).Error
	if err != nil {
		return fmt.Errorf("failed to update game completion: %w", err)
	}

	err = db.Exec(`UPDATE systems SET complete = NOT EXISTS (
		SELECT 1 FROM games WHERE games.system_id = systems.id AND games.complete = ?
	) WHERE id = ?`, false, systemID).Error
	if err != nil {
		return fmt.Errorf("failed to update system completion: %w", err)
	}
	return nil
}

func (s *Store) Transaction(ctx context.Context, fn func(Catalog) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// first loads one record into dest, mapping "no rows" to (nil, nil).
func first[T any](q *gorm.DB, dest *T, resource string) (*T, error) {
	res := q.Limit(1).Find(dest)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to find %s: %w", resource, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return dest, nil
}

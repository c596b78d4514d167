package catalog

import (
	"context"

	"rom-manager/core/hashing"
)

// Catalog is the record store consumed by the reconciliation engine.
// Lookups returning a single record yield (nil, nil) when nothing matches.
type Catalog interface {
	FindSystems(ctx context.Context) ([]System, error)
	FindSystemByID(ctx context.Context, id int64) (*System, error)
	FindHeaderBySystemID(ctx context.Context, systemID int64) (*Header, error)
	FindGameByID(ctx context.Context, id int64) (*Game, error)

	// FindRomsByHash returns roms of the system with exactly this size and
	// digest. filed selects roms already bound to a romfile or unbound ones.
	FindRomsByHash(ctx context.Context, systemID int64, algo hashing.Algorithm, size int64, digest string, filed bool) ([]Rom, error)
	// FindGameRomsNoParents returns the roms a game owns itself, ordered by id.
	FindGameRomsNoParents(ctx context.Context, gameID int64) ([]Rom, error)
	FindRomsWithRomfileBySystem(ctx context.Context, systemID int64) ([]Rom, error)
	FindRomfilesBySystem(ctx context.Context, systemID int64) ([]Romfile, error)

	FindRomfileByPath(ctx context.Context, path string) (*Romfile, error)
	FindRomfileByID(ctx context.Context, id int64) (*Romfile, error)
	UpsertRomfile(ctx context.Context, path string, size int64) (*Romfile, error)
	UpdateRomfile(ctx context.Context, id int64, path string, size int64) error
	SetRomRomfile(ctx context.Context, romID, romfileID int64) error

	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error

	// UpdateCompletion recomputes the complete flags of a system and its games.
	UpdateCompletion(ctx context.Context, systemID int64) error

	// Transaction runs fn against a catalog bound to one transaction.
	// Returning an error from fn rolls every write back.
	Transaction(ctx context.Context, fn func(Catalog) error) error
}

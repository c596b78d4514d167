package reconcile

import (
	"context"

	"rom-manager/core/catalog"

	"golang.org/x/sync/errgroup"
)

// checkIndex holds the filed state of one system.
type checkIndex struct {
	// Romfiles backing at least one rom, ordered by id.
	Romfiles []catalog.Romfile
	// Roms groups bound roms by romfile id, each group ordered by rom id.
	Roms map[int64][]catalog.Rom
}

// buildCheckIndex loads romfiles and their roms concurrently.
func buildCheckIndex(ctx context.Context, cat catalog.Catalog, systemID int64) (*checkIndex, error) {
	var (
		romfiles []catalog.Romfile
		roms     []catalog.Rom
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		romfiles, err = cat.FindRomfilesBySystem(gctx, systemID)
		return err
	})
	g.Go(func() error {
		var err error
		roms, err = cat.FindRomsWithRomfileBySystem(gctx, systemID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &checkIndex{Romfiles: romfiles, Roms: make(map[int64][]catalog.Rom, len(romfiles))}
	for _, rom := range roms {
		idx.Roms[*rom.RomfileID] = append(idx.Roms[*rom.RomfileID], rom)
	}
	return idx, nil
}

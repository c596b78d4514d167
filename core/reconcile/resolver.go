package reconcile

import (
	"context"
	"fmt"
	"os"
	"path"

	"rom-manager/core/catalog"
	"rom-manager/core/container"
	"rom-manager/core/hashing"
	"rom-manager/core/library"
	"rom-manager/core/prompt"

	"go.uber.org/zap"
)

// Resolver maps container entries to catalog roms.
type Resolver struct {
	decider prompt.Decider
	logger  *zap.Logger
}

// NewResolver returns a resolver that defers ties to decider.
func NewResolver(decider prompt.Decider, logger *zap.Logger) *Resolver {
	return &Resolver{decider: decider, logger: logger}
}

// Request describes one resolution pass over a container.
type Request struct {
	Path    string
	Adapter container.Adapter
	Entries []container.Entry
	System  catalog.System
	Header  *catalog.Header
	Algo    hashing.Algorithm
	Scratch *library.Scratch
	// Claimed holds rom ids taken earlier in the same pass. Resolve adds
	// every rom it matches.
	Claimed map[int64]struct{}
}

func (r *Request) headerSize() int64 {
	if r.Header == nil {
		return 0
	}
	return r.Header.Size
}

// cheap reports whether the listing CRC can stand in for a decode.
func (r *Request) cheap(e container.Entry) bool {
	return e.CRC != "" && r.Algo == hashing.CRC && r.Header == nil
}

// Resolve returns one Resolution per entry, in listing order.
func (r *Resolver) Resolve(ctx context.Context, cat catalog.Catalog, req Request) ([]Resolution, error) {
	if req.Claimed == nil {
		req.Claimed = make(map[int64]struct{})
	}

	sums, err := r.identify(ctx, req)
	if err != nil {
		return nil, err
	}

	resolutions := make([]Resolution, len(req.Entries))
	for i, entry := range req.Entries {
		res, err := r.lookup(ctx, cat, req, entry, sums[i])
		if err != nil {
			return nil, err
		}
		if res.Kind == Matched {
			req.Claimed[res.Rom.ID] = struct{}{}
		}
		resolutions[i] = res
	}
	return resolutions, nil
}

// identify computes the (size, digest) of every entry. Entries whose listing
// metadata cannot be used are extracted and hashed one at a time, so scratch
// never holds more than one of them.
func (r *Resolver) identify(ctx context.Context, req Request) ([]hashing.Sum, error) {
	sums := make([]hashing.Sum, len(req.Entries))
	for i, e := range req.Entries {
		if req.cheap(e) {
			sums[i] = hashing.Sum{Size: e.Size, Digest: e.CRC}
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sum, err := r.hashEntry(ctx, req, e.Name)
		if err != nil {
			return nil, err
		}
		sums[i] = sum
	}
	return sums, nil
}

func (r *Resolver) hashEntry(ctx context.Context, req Request, name string) (hashing.Sum, error) {
	paths, err := req.Adapter.Materialize(ctx, req.Path, []string{name}, req.Scratch)
	if err != nil {
		return hashing.Sum{}, err
	}
	defer func() {
		for _, p := range paths {
			if p != req.Path {
				_ = os.Remove(p)
			}
		}
	}()
	if len(paths) != 1 {
		return hashing.Sum{}, fmt.Errorf("%s: extracting %q produced %d files", req.Path, name, len(paths))
	}
	return hashing.HashFile(paths[0], req.headerSize(), req.Algo)
}

func (r *Resolver) lookup(ctx context.Context, cat catalog.Catalog, req Request, entry container.Entry, sum hashing.Sum) (Resolution, error) {
	res := Resolution{Entry: entry, Sum: sum}
	log := r.logger.With(zap.String("path", req.Path), zap.String("entry", entry.Name))

	found, err := cat.FindRomsByHash(ctx, req.System.ID, req.Algo, sum.Size, sum.Digest, false)
	if err != nil {
		return res, err
	}

	candidates := found[:0:0]
	for _, rom := range found {
		if _, taken := req.Claimed[rom.ID]; !taken {
			candidates = append(candidates, rom)
		}
	}

	switch len(candidates) {
	case 0:
		filed, err := cat.FindRomsByHash(ctx, req.System.ID, req.Algo, sum.Size, sum.Digest, true)
		if err != nil {
			return res, err
		}
		if len(filed) > 0 {
			res.Kind = AlreadyFiled
			res.Rom = &filed[0]
			log.Warn("Entry duplicates a rom that is already filed", zap.String("rom", filed[0].Name))
			return res, nil
		}
		res.Kind = NoMatch
		log.Info("Entry matched no rom", zap.Int64("size", sum.Size), zap.String("digest", sum.Digest))
		return res, nil
	case 1:
		return matched(res, candidates[0], log), nil
	}

	// Several roms share the identity: prefer an exact file name match.
	base := path.Base(entry.Name)
	var named []catalog.Rom
	for _, rom := range candidates {
		if rom.Name == base {
			named = append(named, rom)
		}
	}
	if len(named) == 1 {
		return matched(res, named[0], log), nil
	}
	if len(named) > 1 {
		candidates = named
	}

	choices, err := withGames(ctx, cat, candidates)
	if err != nil {
		return res, err
	}
	index, ok, err := r.decider.Choose(ctx, entry.Name, choices)
	if err != nil {
		return res, err
	}
	if !ok || index < 0 || index >= len(candidates) {
		res.Kind = Ambiguous
		res.Candidates = candidates
		log.Info("Entry left unresolved", zap.Int("candidates", len(candidates)))
		return res, nil
	}
	return matched(res, candidates[index], log), nil
}

// withGames pairs each rom with the name of its game.
func withGames(ctx context.Context, cat catalog.Catalog, roms []catalog.Rom) ([]prompt.Candidate, error) {
	names := make(map[int64]string)
	choices := make([]prompt.Candidate, len(roms))
	for i, rom := range roms {
		name, ok := names[rom.GameID]
		if !ok {
			game, err := cat.FindGameByID(ctx, rom.GameID)
			if err != nil {
				return nil, err
			}
			if game != nil {
				name = game.Name
			}
			names[rom.GameID] = name
		}
		choices[i] = prompt.Candidate{Rom: rom, Game: name}
	}
	return choices, nil
}

func matched(res Resolution, rom catalog.Rom, log *zap.Logger) Resolution {
	res.Rom = &rom
	if rom.RomfileID != nil {
		res.Kind = AlreadyFiled
		log.Warn("Entry duplicates a rom that is already filed", zap.String("rom", rom.Name))
		return res
	}
	res.Kind = Matched
	log.Debug("Entry matched", zap.String("rom", rom.Name))
	return res
}

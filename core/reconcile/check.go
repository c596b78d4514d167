package reconcile

import (
	"context"
	"fmt"
	"os"
	"sort"

	"rom-manager/core/catalog"
	"rom-manager/core/container"
	"rom-manager/core/errors"
	"rom-manager/core/hashing"
	"rom-manager/core/library"
	"rom-manager/core/logger"

	"go.uber.org/zap"
)

// CheckRequest selects the system to verify and the preferred algorithm.
type CheckRequest struct {
	System    catalog.System
	Algorithm hashing.Algorithm
}

// PlanCheck verifies every romfile of the system and plans a quarantine move
// for each invalid one. It does NOT move anything; use ApplyCheck for that.
func (e *Engine) PlanCheck(ctx context.Context, req CheckRequest) (*CheckPlan, error) {
	unlock, err := e.lockSystem(ctx, req.System.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := logger.WithSystem(e.logger, req.System.ID, req.System.Name)

	idx, err := buildCheckIndex(ctx, e.catalog, req.System.ID)
	if err != nil {
		return nil, err
	}
	header, err := e.catalog.FindHeaderBySystemID(ctx, req.System.ID)
	if err != nil {
		return nil, err
	}

	v := &verifier{
		registry: e.registry,
		layout:   e.layout,
		header:   header,
		algo:     req.Algorithm,
		log:      log,
	}

	plan := &CheckPlan{
		SystemID:   req.System.ID,
		SystemName: req.System.Name,
		Algorithm:  req.Algorithm.String(),
	}
	for _, romfile := range idx.Romfiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		roms := idx.Roms[romfile.ID]
		verdict, reason, err := v.verify(ctx, romfile, roms)
		if err != nil {
			return nil, err
		}

		plan.Results = append(plan.Results, CheckResult{
			RomfileID: romfile.ID,
			Path:      romfile.Path,
			Roms:      len(roms),
			Verdict:   verdict,
			Reason:    reason,
		})
		plan.Summary.Romfiles++

		switch verdict {
		case VerdictValid:
			plan.Summary.Valid++
		case VerdictMissing:
			plan.Summary.Missing++
			log.Warn("Romfile is missing", zap.String("path", romfile.Path))
		case VerdictSkipped:
			plan.Summary.Skipped++
			log.Warn("Romfile skipped", zap.String("path", romfile.Path), zap.String("reason", reason))
		case VerdictInvalid:
			plan.Summary.Invalid++
			log.Warn("Romfile failed verification", zap.String("path", romfile.Path), zap.String("reason", reason))
			to := e.layout.TrashPath(req.System.Name, romfile.Path)
			if to != romfile.Path {
				plan.Moves = append(plan.Moves, Move{RomfileID: romfile.ID, From: romfile.Path, To: to, Reason: reason})
			}
		}
	}
	return plan, nil
}

// ApplyCheck executes the moves of a check plan in one transaction.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func (e *Engine) ApplyCheck(ctx context.Context, plan *CheckPlan, opts CheckOptions) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun || len(plan.Moves) == 0 {
		return 0, nil
	}

	unlock, err := e.lockSystem(ctx, plan.SystemID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	journal := &Journal{}
	err = e.catalog.Transaction(ctx, func(cat catalog.Catalog) error {
		for _, move := range plan.Moves {
			romfile, err := cat.FindRomfileByID(ctx, move.RomfileID)
			if err != nil {
				return err
			}
			if romfile == nil || romfile.Path != move.From {
				return fmt.Errorf("romfile %d changed since the plan was made", move.RomfileID)
			}
			if _, err := e.mover.Relocate(ctx, cat, journal, *romfile, move.To); err != nil {
				return err
			}
			executed++
		}
		return nil
	})
	if err != nil {
		if rbErr := journal.Rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		return 0, err
	}
	return executed, nil
}

// verifier re-hashes romfiles of one system.
type verifier struct {
	registry *container.Registry
	layout   *library.Layout
	header   *catalog.Header
	algo     hashing.Algorithm
	log      *zap.Logger
}

func (v *verifier) headerSize() int64 {
	if v.header == nil {
		return 0
	}
	return v.header.Size
}

// algorithmFor returns the preferred algorithm if the rom has that digest,
// otherwise the first algorithm it does have.
func (v *verifier) algorithmFor(rom catalog.Rom) (hashing.Algorithm, bool) {
	if rom.Digest(v.algo) != "" {
		return v.algo, true
	}
	for _, a := range hashing.Algorithms {
		if rom.Digest(a) != "" {
			return a, true
		}
	}
	return "", false
}

// verify returns the verdict for one romfile. Decode failures mean the file
// is damaged and yield Invalid; other failures abort the check.
func (v *verifier) verify(ctx context.Context, romfile catalog.Romfile, roms []catalog.Rom) (Verdict, string, error) {
	if _, err := os.Stat(romfile.Path); err != nil {
		if os.IsNotExist(err) {
			return VerdictMissing, "file not found", nil
		}
		return "", "", errors.WrapIO("stat", romfile.Path, err)
	}
	if tool, ok := v.registry.MissingTool(romfile.Path); ok {
		return VerdictSkipped, tool + " not installed", nil
	}

	scratch, err := v.layout.NewScratch()
	if err != nil {
		return "", "", err
	}
	defer scratch.Close()

	adapter := v.registry.Lookup(romfile.Path)
	v.log.Debug("Verifying romfile", zap.String("path", romfile.Path), zap.String("family", adapter.Family().String()), zap.Int("roms", len(roms)))

	var reason string
	switch {
	case adapter.Family() == container.FamilyArchive:
		reason, err = v.verifyArchive(ctx, romfile.Path, adapter, roms, scratch)
	case adapter.Family() == container.FamilyTrackImage && len(roms) > 1:
		reason, err = v.verifyTracks(ctx, romfile.Path, adapter, roms, scratch)
	default:
		reason, err = v.verifySingle(ctx, romfile.Path, adapter, roms, scratch)
	}
	if err != nil {
		if errors.Is(err, errors.ErrDecode) {
			return VerdictInvalid, err.Error(), nil
		}
		return "", "", err
	}
	if reason != "" {
		return VerdictInvalid, reason, nil
	}
	return VerdictValid, "", nil
}

func (v *verifier) verifySingle(ctx context.Context, path string, adapter container.Adapter, roms []catalog.Rom, scratch *library.Scratch) (string, error) {
	if len(roms) != 1 {
		return fmt.Sprintf("file backs %d roms", len(roms)), nil
	}
	entries, err := adapter.List(ctx, path)
	if err != nil {
		return "", err
	}
	if len(entries) != 1 {
		return fmt.Sprintf("expected 1 entry, found %d", len(entries)), nil
	}
	paths, err := adapter.Materialize(ctx, path, []string{entries[0].Name}, scratch)
	if err != nil {
		return "", err
	}
	return v.compareFiles(path, paths, roms)
}

func (v *verifier) verifyArchive(ctx context.Context, path string, adapter container.Adapter, roms []catalog.Rom, scratch *library.Scratch) (string, error) {
	entries, err := adapter.List(ctx, path)
	if err != nil {
		return "", err
	}
	if len(entries) != len(roms) {
		return fmt.Sprintf("archive holds %d entries for %d roms", len(entries), len(roms)), nil
	}

	byName := make(map[string]catalog.Rom, len(roms))
	for _, rom := range roms {
		byName[rom.Name] = rom
	}

	var (
		names   []string
		pending []catalog.Rom
	)
	for _, entry := range entries {
		rom, ok := byName[entry.Name]
		if !ok {
			return fmt.Sprintf("entry %q matches no rom", entry.Name), nil
		}
		algo, ok := v.algorithmFor(rom)
		if !ok {
			return fmt.Sprintf("rom %q has no digest", rom.Name), nil
		}
		if algo == hashing.CRC && v.header == nil && entry.CRC != "" {
			if entry.Size != rom.Size || entry.CRC != rom.CRC {
				return fmt.Sprintf("entry %q does not match its rom", entry.Name), nil
			}
			continue
		}
		names = append(names, entry.Name)
		pending = append(pending, rom)
	}
	if len(names) == 0 {
		return "", nil
	}

	paths, err := adapter.Materialize(ctx, path, names, scratch)
	if err != nil {
		return "", err
	}
	return v.compareFiles(path, paths, pending)
}

func (v *verifier) verifyTracks(ctx context.Context, path string, adapter container.Adapter, roms []catalog.Rom, scratch *library.Scratch) (string, error) {
	decoder, ok := adapter.(container.TrackDecoder)
	if !ok {
		return fmt.Sprintf("file backs %d roms", len(roms)), nil
	}

	ordered := append([]catalog.Rom(nil), roms...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	tracks := make([]container.Track, len(ordered))
	for i, rom := range ordered {
		tracks[i] = container.Track{Name: rom.Name, Size: rom.Size}
	}
	paths, err := decoder.DecodeTracks(ctx, path, tracks, scratch)
	if err != nil {
		return "", err
	}
	return v.compareFiles(path, paths, ordered)
}

// compareFiles hashes each decoded file and compares it with the rom at the
// same position. Files other than the romfile itself are removed.
func (v *verifier) compareFiles(romfile string, paths []string, roms []catalog.Rom) (string, error) {
	defer func() {
		for _, p := range paths {
			if p != romfile {
				_ = os.Remove(p)
			}
		}
	}()

	for i, p := range paths {
		rom := roms[i]
		algo, ok := v.algorithmFor(rom)
		if !ok {
			return fmt.Sprintf("rom %q has no digest", rom.Name), nil
		}
		sum, err := hashing.HashFile(p, v.headerSize(), algo)
		if err != nil {
			return "", err
		}
		if sum.Size != rom.Size {
			return fmt.Sprintf("%s: size %d, expected %d", rom.Name, sum.Size, rom.Size), nil
		}
		if sum.Digest != rom.Digest(algo) {
			return fmt.Sprintf("%s: %s %s, expected %s", rom.Name, algo, sum.Digest, rom.Digest(algo)), nil
		}
	}
	return "", nil
}

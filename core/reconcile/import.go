package reconcile

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"rom-manager/core/catalog"
	"rom-manager/core/container"
	"rom-manager/core/errors"
	"rom-manager/core/hashing"
	"rom-manager/core/library"
	"rom-manager/core/logger"

	"go.uber.org/zap"
)

// ImportRequest names the inputs to reconcile into one system.
type ImportRequest struct {
	System    catalog.System
	Algorithm hashing.Algorithm
	// Paths are files or directories; directories are walked recursively.
	Paths []string
}

// Import reconciles every input file into the library, one transaction per
// file. A failing input is rolled back and reported; the remaining inputs are
// still processed and the failures are returned together.
func (e *Engine) Import(ctx context.Context, req ImportRequest) ([]ImportReport, error) {
	unlock, err := e.lockSystem(ctx, req.System.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := logger.WithSystem(e.logger, req.System.ID, req.System.Name)

	header, err := e.catalog.FindHeaderBySystemID(ctx, req.System.ID)
	if err != nil {
		return nil, err
	}

	inputs, err := e.collectInputs(req.Paths, log)
	if err != nil {
		return nil, err
	}

	run := &importRun{
		engine: e,
		system: req.System,
		header: header,
		algo:   req.Algorithm,
		log:    log,
	}

	var (
		reports []ImportReport
		errs    []error
	)
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := run.importFile(ctx, input)
		if err != nil {
			log.Error("Import failed", zap.String("path", input), zap.Error(err))
			report.Outcome = OutcomeFailed
			report.Reason = err.Error()
			errs = append(errs, err)
		}
		reports = append(reports, report)
	}

	if err := e.catalog.UpdateCompletion(ctx, req.System.ID); err != nil {
		errs = append(errs, err)
	}
	return reports, errors.Join(errs...)
}

// collectInputs expands directories into their files in lexical order.
// Cue sheets next to a track image are consumed by that image, also when
// the image itself is skipped for a missing tool.
func (e *Engine) collectInputs(paths []string, log *zap.Logger) ([]string, error) {
	var files []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.WrapIO("resolve", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, errors.WrapIO("stat", abs, err)
		}
		if !info.IsDir() {
			files = append(files, abs)
			continue
		}
		err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapIO("walk", abs, err)
		}
	}

	inputs := files[:0]
	for _, f := range files {
		if library.Extension(f) == "cue" {
			image := library.ReplaceExtension(f, "chd")
			_, missing := e.registry.MissingTool(image)
			if missing || e.registry.Lookup(image).Family() == container.FamilyTrackImage {
				if _, err := os.Stat(image); err == nil {
					log.Debug("Cue sheet will be imported with its image", zap.String("path", f))
					continue
				}
			}
		}
		inputs = append(inputs, f)
	}
	return inputs, nil
}

// importRun carries the per-request state shared by every input.
type importRun struct {
	engine *Engine
	system catalog.System
	header *catalog.Header
	algo   hashing.Algorithm
	log    *zap.Logger
}

// inputTx is the state of one input inside its transaction.
type inputTx struct {
	*importRun
	cat     catalog.Catalog
	journal *Journal
	scratch *library.Scratch
	report  *ImportReport
	claimed map[int64]struct{}
}

func (r *importRun) importFile(ctx context.Context, path string) (ImportReport, error) {
	report := ImportReport{Input: path, Outcome: OutcomeSkipped}
	e := r.engine

	existing, err := e.catalog.FindRomfileByPath(ctx, path)
	if err != nil {
		return report, err
	}
	if existing != nil {
		report.Reason = "already registered"
		r.log.Debug("Skipping known file", zap.String("path", path))
		return report, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			report.Reason = "file disappeared"
			r.log.Warn("Skipping vanished file", zap.String("path", path))
			return report, nil
		}
		return report, errors.WrapIO("stat", path, err)
	}
	if tool, ok := e.registry.MissingTool(path); ok {
		report.Reason = tool + " not installed"
		r.log.Warn("Skipping file whose container tool is missing", zap.String("path", path), zap.String("tool", tool))
		return report, nil
	}

	scratch, err := e.layout.NewScratch()
	if err != nil {
		return report, err
	}
	defer scratch.Close()

	journal := &Journal{}
	err = e.catalog.Transaction(ctx, func(cat catalog.Catalog) error {
		tx := &inputTx{
			importRun: r,
			cat:       cat,
			journal:   journal,
			scratch:   scratch,
			report:    &report,
			claimed:   make(map[int64]struct{}),
		}
		return tx.dispatch(ctx, path)
	})
	if err != nil {
		if rbErr := journal.Rollback(); rbErr != nil {
			r.log.Error("Failed to undo file moves", zap.String("path", path), zap.Error(rbErr))
			err = errors.Join(err, rbErr)
		}
		report.Placements = nil
		report.Quarantined = ""
		return report, err
	}
	return report, nil
}

func (t *inputTx) dispatch(ctx context.Context, path string) error {
	adapter := t.engine.registry.Lookup(path)
	switch adapter.Family() {
	case container.FamilyArchive:
		return t.importArchive(ctx, path, adapter)
	case container.FamilyTrackImage:
		return t.importTrackImage(ctx, path, adapter)
	default:
		return t.importSingle(ctx, path, adapter)
	}
}

func (t *inputTx) resolve(ctx context.Context, path string, adapter container.Adapter, entries []container.Entry) ([]Resolution, error) {
	return t.engine.resolver.Resolve(ctx, t.cat, Request{
		Path:    path,
		Adapter: adapter,
		Entries: entries,
		System:  t.system,
		Header:  t.header,
		Algo:    t.algo,
		Scratch: t.scratch,
		Claimed: t.claimed,
	})
}

// importSingle handles plain files, whole-decoded images and single-track images.
func (t *inputTx) importSingle(ctx context.Context, path string, adapter container.Adapter) error {
	entries, err := adapter.List(ctx, path)
	if err != nil {
		return err
	}
	results, err := t.resolve(ctx, path, adapter, entries)
	if err != nil {
		return err
	}
	if len(results) != 1 {
		return t.quarantine(ctx, path)
	}

	res := results[0]
	switch res.Kind {
	case Matched:
		if adapter.Family() != container.FamilyPlain {
			dst := imageDestination(t.engine.layout, t.system, *res.Rom, adapter.Extension())
			return t.place(ctx, path, dst, []catalog.Rom{*res.Rom})
		}
		game, err := t.findGame(ctx, res.Rom.GameID)
		if err != nil {
			return err
		}
		return t.place(ctx, path, entryDestination(t.engine.layout, t.system, *game, *res.Rom), []catalog.Rom{*res.Rom})
	case AlreadyFiled:
		t.report.Reason = "duplicate of " + res.Rom.Name
		return nil
	default:
		return t.quarantine(ctx, path)
	}
}

func (t *inputTx) importArchive(ctx context.Context, path string, adapter container.Adapter) error {
	entries, err := adapter.List(ctx, path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return t.quarantine(ctx, path)
	}

	results, err := t.resolve(ctx, path, adapter, entries)
	if err != nil {
		return err
	}

	if len(entries) == 1 {
		switch results[0].Kind {
		case NoMatch, Ambiguous:
			return t.quarantine(ctx, path)
		case AlreadyFiled:
			t.report.Reason = "duplicate of " + results[0].Rom.Name
			return nil
		}
	}

	var matches []Resolution
	for _, res := range results {
		switch res.Kind {
		case Matched:
			matches = append(matches, res)
		case NoMatch, Ambiguous:
			t.report.Dropped = append(t.report.Dropped, res.Entry.Name)
			t.log.Info("Dropping unmatched entry", zap.String("path", path), zap.String("entry", res.Entry.Name))
		}
	}
	if len(matches) == 0 {
		t.report.Reason = "no entry matched"
		return nil
	}

	game, whole, err := t.wholeGame(ctx, matches, len(entries))
	if err != nil {
		return err
	}
	if whole {
		return t.repack(ctx, path, adapter, game, matches)
	}
	return t.split(ctx, path, adapter, matches)
}

// wholeGame reports whether the matches are exactly the roms of one game and
// every entry of the archive matched.
func (t *inputTx) wholeGame(ctx context.Context, matches []Resolution, entries int) (*catalog.Game, bool, error) {
	if len(matches) != entries {
		return nil, false, nil
	}
	gameID := matches[0].Rom.GameID
	for _, m := range matches[1:] {
		if m.Rom.GameID != gameID {
			return nil, false, nil
		}
	}

	roms, err := t.cat.FindGameRomsNoParents(ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	if len(roms) != len(matches) {
		return nil, false, nil
	}
	want := make(map[int64]struct{}, len(roms))
	for _, rom := range roms {
		want[rom.ID] = struct{}{}
	}
	for _, m := range matches {
		if _, ok := want[m.Rom.ID]; !ok {
			return nil, false, nil
		}
	}

	game, err := t.findGame(ctx, gameID)
	if err != nil {
		return nil, false, err
	}
	return game, true, nil
}

// repack renames members to their rom names and files the archive itself.
func (t *inputTx) repack(ctx context.Context, path string, adapter container.Adapter, game *catalog.Game, matches []Resolution) error {
	roms := make([]catalog.Rom, len(matches))
	for i, m := range matches {
		roms[i] = *m.Rom
		if m.Entry.Name == m.Rom.Name {
			continue
		}
		renamer, ok := adapter.(container.Renamer)
		if !ok {
			return errors.NewConfigurationError("container", path, "format cannot rename members")
		}
		if err := renamer.RenameEntry(ctx, path, m.Entry.Name, m.Rom.Name); err != nil {
			return err
		}
		oldName, newName := m.Entry.Name, m.Rom.Name
		t.journal.record(func() error {
			return renamer.RenameEntry(context.Background(), path, newName, oldName)
		})
	}

	dst := archiveDestination(t.engine.layout, t.system, *game, roms, adapter.Extension())
	return t.place(ctx, path, dst, roms)
}

// split extracts each matched member and files it on its own. The source
// archive is left where it is.
func (t *inputTx) split(ctx context.Context, path string, adapter container.Adapter, matches []Resolution) error {
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.Entry.Name
	}
	extracted, err := adapter.Materialize(ctx, path, names, t.scratch)
	if err != nil {
		return err
	}

	for i, m := range matches {
		game, err := t.findGame(ctx, m.Rom.GameID)
		if err != nil {
			return err
		}
		dst := entryDestination(t.engine.layout, t.system, *game, *m.Rom)
		if err := t.place(ctx, extracted[i], dst, []catalog.Rom{*m.Rom}); err != nil {
			return err
		}
	}
	return nil
}

// importTrackImage files a CHD, together with its cue sheet when present.
func (t *inputTx) importTrackImage(ctx context.Context, path string, adapter container.Adapter) error {
	cuePath := library.ReplaceExtension(path, "cue")
	if _, err := os.Stat(cuePath); err != nil {
		return t.importSingle(ctx, path, adapter)
	}

	plain := container.Plain{}
	cueEntries, err := plain.List(ctx, cuePath)
	if err != nil {
		return err
	}
	cueResults, err := t.resolve(ctx, cuePath, plain, cueEntries)
	if err != nil {
		return err
	}
	cue := cueResults[0]
	switch cue.Kind {
	case NoMatch, Ambiguous:
		// Without a cue sheet the tracks cannot be laid out; the image stays put.
		return t.quarantine(ctx, cuePath)
	case AlreadyFiled:
		t.report.Reason = "cue sheet duplicates " + cue.Rom.Name
		return nil
	}
	cueRom := *cue.Rom

	gameRoms, err := t.cat.FindGameRomsNoParents(ctx, cueRom.GameID)
	if err != nil {
		return err
	}
	var tracks []catalog.Rom
	for _, rom := range gameRoms {
		if rom.ID != cueRom.ID {
			tracks = append(tracks, rom)
		}
	}

	valid, err := t.verifyTracks(ctx, path, adapter, tracks)
	if err != nil {
		return err
	}
	if !valid {
		// The cue sheet matched and stays where it is.
		return t.quarantine(ctx, path)
	}

	dir := t.engine.layout.SystemDirectory(t.system.Name)
	if err := t.place(ctx, cuePath, filepath.Join(dir, cueRom.Name), []catalog.Rom{cueRom}); err != nil {
		return err
	}
	return t.place(ctx, path, filepath.Join(dir, library.ReplaceExtension(cueRom.Name, adapter.Extension())), tracks)
}

// verifyTracks decodes the image into the expected tracks and compares each
// track with its rom by position.
func (t *inputTx) verifyTracks(ctx context.Context, path string, adapter container.Adapter, tracks []catalog.Rom) (bool, error) {
	decoder, ok := adapter.(container.TrackDecoder)
	if !ok || len(tracks) == 0 {
		return false, nil
	}

	layout := make([]container.Track, len(tracks))
	for i, rom := range tracks {
		layout[i] = container.Track{Name: rom.Name, Size: rom.Size}
	}
	paths, err := decoder.DecodeTracks(ctx, path, layout, t.scratch)
	if err != nil {
		if errors.Is(err, container.ErrTrackLayout) {
			t.log.Warn("Image does not fit its track layout", zap.String("path", path), zap.Error(err))
			return false, nil
		}
		return false, err
	}
	defer func() {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}()

	var headerSize int64
	if t.header != nil {
		headerSize = t.header.Size
	}
	for i, p := range paths {
		sum, err := hashing.HashFile(p, headerSize, t.algo)
		if err != nil {
			return false, err
		}
		if sum.Size != tracks[i].Size || sum.Digest != tracks[i].Digest(t.algo) {
			t.log.Warn("Track mismatch", zap.String("path", path), zap.String("track", tracks[i].Name))
			return false, nil
		}
	}
	return true, nil
}

func (t *inputTx) findGame(ctx context.Context, id int64) (*catalog.Game, error) {
	game, err := t.cat.FindGameByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, errors.NewNotFoundError("game", strconv.FormatInt(id, 10))
	}
	return game, nil
}

func (t *inputTx) place(ctx context.Context, src, dst string, roms []catalog.Rom) error {
	if _, err := t.engine.mover.Place(ctx, t.cat, t.journal, src, dst, roms); err != nil {
		return err
	}
	names := make([]string, len(roms))
	for i, rom := range roms {
		names[i] = rom.Name
	}
	t.report.Outcome = OutcomePlaced
	t.report.Placements = append(t.report.Placements, Placement{Path: dst, Roms: names})
	return nil
}

func (t *inputTx) quarantine(ctx context.Context, path string) error {
	romfile, err := t.engine.mover.Quarantine(ctx, t.cat, t.journal, path, t.system)
	if err != nil {
		return err
	}
	if t.report.Outcome != OutcomePlaced {
		t.report.Outcome = OutcomeQuarantined
	}
	t.report.Quarantined = romfile.Path
	return nil
}

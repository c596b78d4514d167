package reconcile

import (
	"path/filepath"

	"rom-manager/core/catalog"
	"rom-manager/core/library"
)

// isUpdate reports whether name is an update or DLC package, which is filed
// under its game name.
func isUpdate(name string) bool {
	switch library.Extension(name) {
	case "pkg", "rap":
		return true
	default:
		return false
	}
}

// entryDestination is where a single extracted rom is filed.
func entryDestination(layout *library.Layout, system catalog.System, game catalog.Game, rom catalog.Rom) string {
	dir := layout.SystemDirectory(system.Name)
	switch {
	case system.Arcade || game.Jbfolder:
		return filepath.Join(dir, game.Name, rom.Name)
	case isUpdate(rom.Name):
		return filepath.Join(dir, game.Name+filepath.Ext(rom.Name))
	default:
		return filepath.Join(dir, rom.Name)
	}
}

// archiveDestination is where a whole-game archive is filed.
func archiveDestination(layout *library.Layout, system catalog.System, game catalog.Game, roms []catalog.Rom, ext string) string {
	dir := layout.SystemDirectory(system.Name)
	if len(roms) == 1 && !system.Arcade && !isUpdate(roms[0].Name) {
		return filepath.Join(dir, library.ReplaceExtension(roms[0].Name, ext))
	}
	return filepath.Join(dir, game.Name+"."+ext)
}

// imageDestination is where a single-rom image container is filed.
func imageDestination(layout *library.Layout, system catalog.System, rom catalog.Rom, ext string) string {
	return filepath.Join(layout.SystemDirectory(system.Name), library.ReplaceExtension(rom.Name, ext))
}

// Package reconcile keeps the library directory and the catalog in agreement.
//
// Two flows share one core:
//
//   - Check re-hashes every filed romfile of a system and plans a move into
//     the system's Trash directory for each one that no longer matches the
//     roms it backs. Nothing moves until ApplyCheck is called with a
//     confirmed plan.
//   - Import lists each input file, hashes its entries, resolves them against
//     the catalog and files the result at its canonical path. Multi-entry
//     archives holding exactly one game are repacked whole; anything else is
//     split into per-rom files. Unmatched inputs are quarantined.
//
// Every input (import) or plan (check) runs inside one catalog transaction.
// File moves are recorded in a Journal and undone newest-first when the
// transaction fails, so the tree and the catalog change together or not at
// all.
//
// Work on a single system is serialized by a per-system lock.
package reconcile

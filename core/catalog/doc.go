// Package catalog holds the known-good metadata the library is reconciled
// against: systems, their optional copier headers, games, roms and the
// romfiles on disk that back them.
//
// The Catalog interface is what the reconciliation engine consumes; Store is
// its GORM implementation for SQLite and MySQL. Populating systems, games and
// roms from preservation datasets happens outside this package.
//
// Every method of a Catalog returned by Transaction runs on the same
// transaction, so an import of one file either lands completely or not at all.
package catalog

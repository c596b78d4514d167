// Package settings resolves persisted user preferences stored in the catalog.
//
// The only setting today is HASH_ALGORITHM, the digest used to identify
// files when no --hash flag is given.
package settings

// Package library describes the on-disk layout of the managed collection:
// one directory per system under the configured root, a Trash folder per
// system for quarantined files, and disposable scratch directories used while
// decoding containers.
package library

// Package hashing computes the (size, digest) identity used to match files
// against catalog entries.
//
// Streams are hashed through a fixed buffer, so arbitrarily large disc images
// never need to fit in memory. Systems that prepend a copier header declare
// its length; those bytes are skipped and count toward neither size nor digest.
//
// # Usage
//
//	algo, err := hashing.ParseAlgorithm("sha1")
//	sum, err := hashing.HashFile("/roms/game.nes", 16, algo)
//	fmt.Println(sum.Size, sum.Digest)
package hashing

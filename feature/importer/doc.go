// Package importer files new inputs into the library for one system and
// summarizes what happened to each of them.
package importer

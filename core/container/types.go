package container

import (
	"context"

	"rom-manager/core/library"
)

// Family groups container formats that share a reconciliation strategy.
type Family int

const (
	// FamilyPlain is a bare file: its single entry is itself.
	FamilyPlain Family = iota
	// FamilyArchive holds named members with cheap listing metadata.
	FamilyArchive
	// FamilyImage decodes whole into a single virtual entry.
	FamilyImage
	// FamilyTrackImage decodes into one or more tracks described by a cue sheet.
	FamilyTrackImage
)

func (f Family) String() string {
	switch f {
	case FamilyPlain:
		return "plain"
	case FamilyArchive:
		return "archive"
	case FamilyImage:
		return "image"
	case FamilyTrackImage:
		return "track-image"
	default:
		return "unknown"
	}
}

// Entry is one member of a container as reported by its listing.
type Entry struct {
	// Name is the member path inside the container.
	Name string `json:"name" yaml:"name"`
	// Size is the declared uncompressed size, 0 when unknown before decode.
	Size int64 `json:"size" yaml:"size"`
	// CRC is the lowercase CRC32 from the listing, empty when unavailable.
	CRC string `json:"crc,omitempty" yaml:"crc,omitempty"`
}

// Track names one expected track of a multi-track image and its size.
type Track struct {
	Name string
	Size int64
}

// Adapter lists and decodes one container format.
type Adapter interface {
	// Family reports the reconciliation strategy for this format.
	Family() Family
	// Extension is the canonical lowercase extension written by this adapter.
	Extension() string
	// List returns the entries of the container at path.
	List(ctx context.Context, path string) ([]Entry, error)
	// Materialize decodes the named entries into scratch and returns their
	// paths in the same order. Plain files return their own path.
	Materialize(ctx context.Context, path string, names []string, scratch *library.Scratch) ([]string, error)
}

// Renamer is implemented by adapters that can rename a member in place.
type Renamer interface {
	RenameEntry(ctx context.Context, path, oldName, newName string) error
}

// TrackDecoder is implemented by adapters that split an image into tracks.
// It returns exactly len(tracks) files, in order, or a decode error.
type TrackDecoder interface {
	DecodeTracks(ctx context.Context, path string, tracks []Track, scratch *library.Scratch) ([]string, error)
}

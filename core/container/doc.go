// Package container lists and decodes the file formats a library can hold.
//
// Each format is an Adapter belonging to a Family that decides how the
// reconciliation engine treats it:
//
//   - plain files are their own single entry
//   - archives (7z, zip) list members with sizes and CRCs without decoding
//   - images (cso, rvz) decode whole into one ISO
//   - track images (chd) decode into the tracks a cue sheet describes
//
// Decoding shells out to 7z, chdman, maxcso and dolphin-tool through a Runner.
// DefaultRegistry only registers formats whose tool is found on PATH.
package container

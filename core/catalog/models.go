package catalog

import "rom-manager/core/hashing"

// System groups the games of one platform.
type System struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name;type:varchar(255);not null;uniqueIndex"`
	Arcade   bool   `gorm:"column:arcade;not null;default:false"`
	Complete bool   `gorm:"column:complete;not null;default:false"`
}

// TableName overrides the table name.
func (System) TableName() string {
	return "systems"
}

// Header is a copier header prepended to dumps of a system.
type Header struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	SystemID int64  `gorm:"column:system_id;not null;uniqueIndex"`
	Name     string `gorm:"column:name;type:varchar(255)"`
	Size     int64  `gorm:"column:size;not null"`
}

// TableName overrides the table name.
func (Header) TableName() string {
	return "headers"
}

// Game is one catalog title. Clones point at their parent.
type Game struct {
	ID       int64  `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name;type:varchar(255);not null"`
	SystemID int64  `gorm:"column:system_id;not null;index"`
	ParentID *int64 `gorm:"column:parent_id"`
	Jbfolder bool   `gorm:"column:jbfolder;not null;default:false"`
	Complete bool   `gorm:"column:complete;not null;default:false"`
}

// TableName overrides the table name.
func (Game) TableName() string {
	return "games"
}

// Rom is a known-good file of a game. Digests are lowercase hex, empty when absent.
type Rom struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	Name      string `gorm:"column:name;type:varchar(255);not null"`
	Size      int64  `gorm:"column:size;not null;index:idx_roms_identity"`
	CRC       string `gorm:"column:crc;type:varchar(8);index:idx_roms_identity"`
	MD5       string `gorm:"column:md5;type:varchar(32)"`
	SHA1      string `gorm:"column:sha1;type:varchar(40)"`
	GameID    int64  `gorm:"column:game_id;not null;index"`
	ParentID  *int64 `gorm:"column:parent_id"`
	RomfileID *int64 `gorm:"column:romfile_id;index"`
}

// TableName overrides the table name.
func (Rom) TableName() string {
	return "roms"
}

// Digest returns the stored digest for algo.
func (r Rom) Digest(algo hashing.Algorithm) string {
	switch algo {
	case hashing.MD5:
		return r.MD5
	case hashing.SHA1:
		return r.SHA1
	default:
		return r.CRC
	}
}

// Romfile is a file on disk backing one or more roms.
type Romfile struct {
	ID   int64  `gorm:"column:id;primaryKey"`
	Path string `gorm:"column:path;type:varchar(768);not null;uniqueIndex"`
	Size int64  `gorm:"column:size;not null"`
}

// TableName overrides the table name.
func (Romfile) TableName() string {
	return "romfiles"
}

// Setting is a persisted key/value option.
type Setting struct {
	Key   string `gorm:"column:key;type:varchar(64);primaryKey"`
	Value string `gorm:"column:value;type:varchar(255)"`
}

// TableName overrides the table name.
func (Setting) TableName() string {
	return "settings"
}

// SettingHashAlgorithm stores the preferred digest algorithm.
const SettingHashAlgorithm = "HASH_ALGORITHM"

// models lists every table owned by the catalog, in migration order.
var models = []any{&System{}, &Header{}, &Game{}, &Rom{}, &Romfile{}, &Setting{}}

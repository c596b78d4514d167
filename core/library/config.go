package library

// Config holds configuration for the on-disk library.
type Config struct {
	// RootDirectory is where every system directory is created.
	RootDirectory string `mapstructure:"root_directory" default:"roms"`
	// TmpDirectory holds scratch space for decoded containers. Empty means the OS temp dir.
	TmpDirectory string `mapstructure:"tmp_directory" default:""`
	// DefaultHash is the algorithm used when neither a flag nor a stored setting selects one.
	DefaultHash string `mapstructure:"default_hash" default:"CRC"`
}

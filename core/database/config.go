package database

// Config holds configuration for the catalog database connection.
type Config struct {
	// Driver is the database driver (sqlite, mysql).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Name is the database name, or the file path for sqlite.
	Name string `mapstructure:"name" default:"rom-manager.db"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// TimeoutSeconds bounds connection setup and I/O for mysql.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// AutoMigrate creates or updates the catalog tables at startup.
	AutoMigrate bool `mapstructure:"auto_migrate" default:"true"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

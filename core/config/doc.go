// Package config provides configuration management for the ROM manager.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Defaults live next to each field as `default` struct tags.
//
// # Configuration Structure
//
//   - Log: logging level and format (LOG_LEVEL, LOG_FORMAT)
//   - Database: catalog driver and connection (DATABASE_DRIVER, DATABASE_NAME, ...)
//   - Library: root and scratch directories, default hash (LIBRARY_ROOT_DIRECTORY, ...)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Library.RootDirectory)
package config

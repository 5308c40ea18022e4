// Package config provides functionality for managing configuration options
// for the application using command-line flags and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"log"
	"os"
)

// Options holds the configuration values for the server.
type Options struct {
	// Address defines the contact server's listening address (ip:port).
	Address string

	// AdminAddress defines the admin HTTP API's listening address (ip:port).
	AdminAddress string

	// AdminToken is the bearer token protecting the admin API. An empty
	// token disables the API.
	AdminToken string

	// DatabaseDSN holds the Postgres connection string. Empty means the
	// flat-file stores are used instead.
	DatabaseDSN string

	// DataDir is the directory holding the contact and credential files.
	DataDir string

	// AuditLog is the path of the audit trail file.
	AuditLog string

	// LogLevel sets the structured logger's verbosity.
	LogLevel string

	// Config is the path to the Config file.
	Config string
}

// options holds the current configuration values.
var options = &Options{}

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Address, "a", ":50000", "run contact server on ip:port")
	flag.StringVar(&options.AdminAddress, "m", "localhost:8080", "run admin API on ip:port")
	flag.StringVar(&options.AdminToken, "t", "", "admin API bearer token")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address")
	flag.StringVar(&options.DataDir, "f", "files", "directory for contact and credential files")
	flag.StringVar(&options.AuditLog, "l", "files/log.txt", "audit log file")
	flag.StringVar(&options.LogLevel, "v", "Info", "log level")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Address = serverAddress
	}
	if adminAddress := os.Getenv("ADMIN_ADDRESS"); adminAddress != "" {
		options.AdminAddress = adminAddress
	}
	if adminToken := os.Getenv("ADMIN_TOKEN"); adminToken != "" {
		options.AdminToken = adminToken
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}

	return options
}

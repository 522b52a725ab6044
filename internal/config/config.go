package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port string

	// Local store
	DataBackend  string
	SQLiteDBPath string

	// Remote log
	RemoteBackend string
	GistToken     string

	// Worker
	SyncSchedule string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/dailymoney.db"),

		RemoteBackend: getEnv("REMOTE_BACKEND", "gist"),
		GistToken:     getEnv("GIST_TOKEN", ""),

		SyncSchedule: getEnv("SYNC_SCHEDULE", "@hourly"),
	}
}

// Validate checks the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	switch c.RemoteBackend {
	case "gist", "drive", "memory":
	default:
		problems = append(problems, fmt.Sprintf("invalid remote backend '%s': must be one of [gist drive memory]", c.RemoteBackend))
	}

	if _, err := cron.ParseStandard(c.SyncSchedule); err != nil {
		problems = append(problems, fmt.Sprintf("invalid sync schedule '%s': %v", c.SyncSchedule, err))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

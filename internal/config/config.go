package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the binaries need at startup.
type Config struct {
	// DataDir is the directory all JSON documents live under.
	DataDir string
	// LogFile is where the structured log is written. The TUI owns the
	// terminal, so logs always go to a file.
	LogFile string
	// Debug widens the log level to debug.
	Debug bool
}

// Load reads configuration from the environment, after loading an
// optional .env file from the working directory.
func Load() (*Config, error) {
	// A missing .env is fine; explicit env vars win either way.
	_ = godotenv.Load()

	dataDir := os.Getenv("TASKBOARD_DATA_DIR")
	if dataDir == "" {
		var err error
		dataDir, err = defaultDataDir()
		if err != nil {
			return nil, err
		}
	}

	return &Config{
		DataDir: dataDir,
		LogFile: getEnv("TASKBOARD_LOG_FILE", filepath.Join(dataDir, "taskboard.log")),
		Debug:   getEnvAsBool("TASKBOARD_DEBUG", false),
	}, nil
}

// defaultDataDir resolves the XDG data directory with a home-directory
// fallback.
func defaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskboard"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

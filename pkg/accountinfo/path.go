package accountinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvVar is the environment variable that overrides the default
// account info file location.
const EnvVar = "STRATUS_ACCOUNT_INFO"

// DefaultPath is the account info file location used when neither an
// explicit path nor the environment variable is given.
const DefaultPath = "~/.stratus_account_info"

// pathConfig is filled from the environment by env.Parse.
type pathConfig struct {
	AccountInfoPath string `env:"STRATUS_ACCOUNT_INFO" envDefault:"~/.stratus_account_info"`
}

// ResolvePath returns the account info file location. A non-empty
// explicit path wins, then STRATUS_ACCOUNT_INFO, then DefaultPath. A
// leading ~ in the chosen value is expanded to the user's home
// directory. Nothing is created or checked on disk.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return expandUser(explicit)
	}

	var cfg pathConfig
	if err := env.Parse(&cfg); err != nil {
		return "", fmt.Errorf("parse environment: %w", err)
	}
	return expandUser(cfg.AccountInfoPath)
}

// expandUser replaces a leading ~ with the user's home directory.
// Paths without a tilde prefix pass through untouched.
func expandUser(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

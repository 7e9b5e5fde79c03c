package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	consts "github.com/khanhnv2901/vigilante/internal/shared/constants"
)

// dataDirEnvVar overrides the platform data directory.
const dataDirEnvVar = "VIGILANTE_DATA_DIR"

const appDirName = "vigilante"

// getDataDir returns the appropriate data directory for the current OS
// following XDG Base Directory specification on Linux/Unix
func getDataDir() (string, error) {
	baseDir := os.Getenv(dataDirEnvVar)

	if baseDir == "" {
		switch runtime.GOOS {
		case "windows":
			// Windows: %LOCALAPPDATA%\vigilante
			baseDir = os.Getenv("LOCALAPPDATA")
			if baseDir == "" {
				baseDir = os.Getenv("APPDATA")
			}
			if baseDir == "" {
				return "", fmt.Errorf("could not determine Windows data directory")
			}
			baseDir = filepath.Join(baseDir, appDirName)

		case "darwin":
			// macOS: ~/Library/Application Support/vigilante
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("could not determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, "Library", "Application Support", appDirName)

		default:
			// Linux/Unix: $XDG_DATA_HOME/vigilante > ~/.local/share/vigilante
			if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
				baseDir = filepath.Join(xdgDataHome, appDirName)
			} else {
				homeDir, err := os.UserHomeDir()
				if err != nil {
					return "", fmt.Errorf("could not determine home directory: %w", err)
				}
				baseDir = filepath.Join(homeDir, ".local", "share", appDirName)
			}
		}
	}

	if err := os.MkdirAll(baseDir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return baseDir, nil
}

// getReportsDir returns the directory exported reports default to.
func getReportsDir() (string, error) {
	dataDir, err := getDataDir()
	if err != nil {
		return "", err
	}

	reportsDir := filepath.Join(dataDir, "reports")
	if err := os.MkdirAll(reportsDir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	return reportsDir, nil
}

// defaultConfigPath is where initConfig looks when --config is not set.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "~/" + configFileName + ".yaml"
	}
	return filepath.Join(homeDir, configFileName+".yaml")
}

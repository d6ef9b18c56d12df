package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "enigma"

// PlatformConfigDir returns the platform-specific settings directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/enigma/
//   - Linux:   $XDG_CONFIG_HOME/enigma/ or ~/.config/enigma/
//   - Windows: %APPDATA%\enigma\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "windows":
		return windowsDataDir()
	default:
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
}

// PlatformDataDir returns the platform-specific directory for the journal.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/enigma/
//   - Linux:   $XDG_DATA_HOME/enigma/ or ~/.local/share/enigma/
//   - Windows: %APPDATA%\enigma\
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return macOSDataDir()
	case "windows":
		return windowsDataDir()
	default:
		return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	}
}

func macOSDataDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, "Library", "Application Support", appName)
}

func windowsDataDir() string {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "AppData", "Roaming", appName)
}

// xdgDir follows the XDG base directory layout: $env/enigma, falling back
// to ~/fallback/enigma.
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, fallback, appName)
}

// SupportedConfigFormats returns the settings file extensions Load understands.
func SupportedConfigFormats() []string {
	return []string{"toml", "json", "yaml", "yml"}
}

// FindConfigFile looks for config.<ext> in the current directory and then
// in PlatformConfigDir. It returns "" if none exists.
func FindConfigFile() string {
	for _, dir := range []string{".", PlatformConfigDir()} {
		for _, ext := range SupportedConfigFormats() {
			path := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

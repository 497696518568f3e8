package core

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "kpsh"

type Paths struct {
	DataDir     string
	ConfigDir   string
	LogFile     string
	HistoryFile string
	ConfigFile  string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		dataDir := filepath.Join(xdg.DataHome, appName)
		configDir := filepath.Join(xdg.ConfigHome, appName)

		defaultPaths = &Paths{
			DataDir:     dataDir,
			ConfigDir:   configDir,
			LogFile:     filepath.Join(xdg.StateHome, appName, "kpsh.log"),
			HistoryFile: filepath.Join(dataDir, "history.db"),
			ConfigFile:  filepath.Join(configDir, "config.yaml"),
		}

		for _, dir := range []string{dataDir, filepath.Dir(defaultPaths.LogFile)} {
			if err := os.MkdirAll(dir, 0700); err != nil {
				panic(err)
			}
		}
	}
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func ConfigDir() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigDir
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func HistoryFile() string {
	ensureDefaultPaths()
	return defaultPaths.HistoryFile
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

// ResetPaths clears the cached paths and reloads the XDG base directories
// from the environment. This is primarily used for testing purposes.
func ResetPaths() {
	xdg.Reload()
	defaultPaths = nil
}

package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/tphakala/aliendaw/internal/errors"
)

const appDirName = "aliendaw"

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in order. When one of them already holds a config file only that one is
// returned.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "get-home-directory").
			Build()
	}

	var paths []string
	switch runtime.GOOS {
	case "windows":
		paths = []string{filepath.Join(homeDir, "AppData", "Roaming", appDirName)}
	default:
		paths = []string{filepath.Join(homeDir, ".config", appDirName), filepath.Join("/etc", appDirName)}
	}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Dir(exe))
	}

	for _, path := range paths {
		if _, err := os.Stat(filepath.Join(path, configName+".yaml")); err == nil {
			return []string{path}, nil
		}
	}
	return paths, nil
}

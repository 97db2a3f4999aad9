package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/ini.v1"
)

// Config file location:
//   - Windows: %APPDATA%\Rescale\ServiceTray\svctray.conf
//   - Unix: ~/.config/rescale/svctray.conf
//
// INI format:
//
//	[filter]
//	name = ^(wuauserv|Spooler)$
//	display-name =
//
//	[menu]
//	manage = manage
//	show = displayname
//
//	[notify]
//	notify = onerror
//	started-icon = info
//	stopped-icon = warning
//	error-icon = error
//
//	[watch]
//	watch = 5000
//	gc = 0
//	timeout = 30
//
//	[paths]
//	icon =
//	service-manager = services.msc
//	log-file =
const fileName = "svctray.conf"

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", errors.New("neither APPDATA nor USERPROFILE environment variable set")
			}
			appData = filepath.Join(userProfile, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "Rescale", "ServiceTray")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "rescale")
	}

	return filepath.Join(configDir, fileName), nil
}

func defaultServiceManager() string {
	if runtime.GOOS == "windows" {
		return "services.msc"
	}
	return ""
}

// ReadFile returns the raw values set in the ini file at path, keyed by
// field key. Unknown keys are ignored. A missing file yields an error
// satisfying errors.Is(err, os.ErrNotExist).
func ReadFile(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	values := make(map[string]string)
	for _, f := range Fields {
		section := iniFile.Section(f.Section)
		if section.HasKey(f.Key) {
			values[f.Key] = section.Key(f.Key).String()
		}
	}
	return values, nil
}

// Load builds options from the file at path with overrides applied on top.
// An empty path skips the file. When optional is true a missing file is
// treated as empty.
func Load(path string, optional bool, overrides map[string]string) (*Options, error) {
	values := make(map[string]string)

	if path != "" {
		fileValues, err := ReadFile(path)
		switch {
		case err == nil:
			values = fileValues
		case errors.Is(err, os.ErrNotExist) && optional:
			path = ""
		default:
			return nil, &ConfigError{Field: "config", Value: path, Err: err}
		}
	}

	for k, v := range overrides {
		values[k] = v
	}

	opts, err := Build(values)
	if err != nil {
		return nil, err
	}
	opts.Source = path
	return opts, nil
}

// Save writes values to an ini file at path, filling unset keys with their
// defaults. Each key is preceded by its usage as a comment.
// Creates parent directories if they don't exist.
func Save(values map[string]string, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()
	for _, f := range Fields {
		section, err := iniFile.GetSection(f.Section)
		if err != nil {
			section, err = iniFile.NewSection(f.Section)
			if err != nil {
				return fmt.Errorf("failed to create %s section: %w", f.Section, err)
			}
		}
		v, ok := values[f.Key]
		if !ok {
			v = f.Default
		}
		key := section.Key(f.Key)
		key.SetValue(v)
		key.Comment = "; " + f.Usage
	}

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

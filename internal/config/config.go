// Package config locates droidops directories and parses the config file.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// AndroidFallbackDir is used when no home directory is available, which is
// the usual case for a root shell on a device.
const AndroidFallbackDir = "/data/local/tmp/droidops"

// Config file keys.
const (
	KeyPermission    = "perms.permission"
	KeyOp            = "perms.op"
	KeyZramDevice    = "zram.device"
	KeyZramSize      = "zram.size"
	KeyZramAlgorithm = "zram.algorithm"
	KeyZramMode      = "zram.algorithm_mode"
	KeyZramStreams   = "zram.streams"
	KeyZramMemLimit  = "zram.mem_limit"
)

// Dir returns the droidops config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/droidops, or AndroidFallbackDir without a home.
func Dir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "droidops")
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return AndroidFallbackDir
	}
	return filepath.Join(home, ".config", "droidops")
}

// StateDir returns the directory holding the history database, creating it
// if needed.
func StateDir() (string, error) {
	dir := AndroidFallbackDir
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dir = filepath.Join(home, ".droidops")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// File holds the key/value pairs from {dir}/config.
type File struct {
	Path   string
	Values map[string]string
}

// Load reads the config file at {dir}/config. If the file does not exist,
// an empty config is returned without an error. Malformed lines are
// silently skipped.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, "config")
	return LoadFile(path)
}

// LoadFile reads a config file at an explicit path.
//
// Example:
//
//	# zram defaults
//	zram.size = 1GiB
//	zram.algorithm = zstd
func LoadFile(path string) (*File, error) {
	cfg := &File{Path: path, Values: make(map[string]string)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || value == "" {
			continue
		}

		cfg.Values[key] = value
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// String returns the value for key, or def when unset.
func (f *File) String(key, def string) string {
	if v, ok := f.Values[key]; ok {
		return v
	}
	return def
}

// Int returns the integer value for key, or def when unset.
func (f *File) Int(key string, def int) (int, error) {
	v, ok := f.Values[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %s: invalid integer %q", f.Path, key, v)
	}
	return n, nil
}

// Bytes returns the byte size for key, or def when unset.
func (f *File) Bytes(key string, def uint64) (uint64, error) {
	v, ok := f.Values[key]
	if !ok {
		return def, nil
	}
	n, err := ParseSize(v)
	if err != nil {
		return def, fmt.Errorf("%s: %s: %w", f.Path, key, err)
	}
	return n, nil
}

// ParseSize parses a byte size such as "512MiB", "1G" or "536870912".
// "0" is accepted and means unset.
func ParseSize(s string) (uint64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n, nil
}

// Package zram provisions a compressed RAM block device as swap space.
package zram

import (
	"fmt"
	"path/filepath"
)

// AlgorithmMode controls how the compression algorithm is chosen.
type AlgorithmMode string

const (
	// ModeDirect writes the preferred algorithm without consulting the device.
	ModeDirect AlgorithmMode = "direct"
	// ModeNegotiate reads comp_algorithm and uses the preferred algorithm only
	// when the device advertises it, otherwise the currently selected one.
	ModeNegotiate AlgorithmMode = "negotiate"
)

// ParseAlgorithmMode validates a mode name.
func ParseAlgorithmMode(s string) (AlgorithmMode, error) {
	switch m := AlgorithmMode(s); m {
	case ModeDirect, ModeNegotiate:
		return m, nil
	}
	return "", fmt.Errorf("invalid algorithm mode %q (want %q or %q)", s, ModeDirect, ModeNegotiate)
}

// Config describes the device and the values written to it.
type Config struct {
	Device        string // block device name, e.g. "zram0"
	SysfsRoot     string // parent of the device's control directory
	DevRoot       string // parent of the device node
	SizeBytes     uint64
	Algorithm     string
	AlgorithmMode AlgorithmMode
	Streams       int    // 0 leaves max_comp_streams untouched
	MemLimit      uint64 // 0 leaves mem_limit untouched
}

// DefaultConfig returns the stock 512 MiB lz4 configuration for zram0.
func DefaultConfig() Config {
	return Config{
		Device:        "zram0",
		SysfsRoot:     "/sys/block",
		DevRoot:       "/dev/block",
		SizeBytes:     512 * 1024 * 1024,
		Algorithm:     "lz4",
		AlgorithmMode: ModeNegotiate,
		Streams:       4,
	}
}

// Validate checks that the configuration can be applied.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device name is empty")
	}
	if c.SizeBytes == 0 {
		return fmt.Errorf("size must be greater than zero")
	}
	if c.Algorithm == "" {
		return fmt.Errorf("algorithm is empty")
	}
	if _, err := ParseAlgorithmMode(string(c.AlgorithmMode)); err != nil {
		return err
	}
	if c.Streams < 0 {
		return fmt.Errorf("streams must not be negative")
	}
	return nil
}

// ControlPath returns the path of a control file such as "disksize".
func (c Config) ControlPath(name string) string {
	return filepath.Join(c.SysfsRoot, c.Device, name)
}

// DevicePath returns the block device node passed to mkswap and swapon.
func (c Config) DevicePath() string {
	return filepath.Join(c.DevRoot, c.Device)
}

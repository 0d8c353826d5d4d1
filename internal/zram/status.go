package zram

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSwapsPath lists active swap areas.
const DefaultSwapsPath = "/proc/swaps"

// HostMemory holds system-wide RAM and swap totals in bytes.
type HostMemory struct {
	TotalRAM  uint64
	FreeRAM   uint64
	TotalSwap uint64
	FreeSwap  uint64
}

// Status is a read-only snapshot of the device.
type Status struct {
	Device     string
	Exists     bool
	DiskSize   uint64
	Algorithm  string
	Available  []string
	Streams    int
	MemLimit   uint64
	SwapActive bool
	SwapUsed   uint64 // bytes, from /proc/swaps
	Host       HostMemory
}

// ReadStatus inspects the device's control files and the swap table.
// Missing or unreadable files leave the matching fields zero.
func ReadStatus(cfg Config, swapsPath string) *Status {
	st := &Status{Device: cfg.Device}

	if _, err := os.Stat(filepath.Join(cfg.SysfsRoot, cfg.Device)); err == nil {
		st.Exists = true
	}

	st.DiskSize, _ = strconv.ParseUint(readControl(cfg.ControlPath(StepDisksize)), 10, 64)
	st.Available, st.Algorithm = ParseAlgorithms(readControl(cfg.ControlPath(StepAlgorithm)))
	st.Streams, _ = strconv.Atoi(readControl(cfg.ControlPath(StepStreams)))
	st.MemLimit, _ = strconv.ParseUint(readControl(cfg.ControlPath(StepMemLimit)), 10, 64)

	if swapsPath == "" {
		swapsPath = DefaultSwapsPath
	}
	st.SwapActive, st.SwapUsed = findSwap(swapsPath, cfg.DevicePath(), cfg.Device)

	if host, err := readHostMemory(); err == nil {
		st.Host = host
	}
	return st
}

// findSwap looks for the device in a /proc/swaps table.
//
// Example input:
//
//	Filename                Type        Size      Used    Priority
//	/dev/block/zram0        partition   524284    10240   -2
func findSwap(swapsPath, devPath, device string) (active bool, usedBytes uint64) {
	f, err := os.Open(swapsPath)
	if err != nil {
		return false, 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Filename" {
			continue
		}
		if fields[0] != devPath && filepath.Base(fields[0]) != device {
			continue
		}
		usedKB, _ := strconv.ParseUint(fields[3], 10, 64)
		return true, usedKB * 1024
	}
	return false, 0
}

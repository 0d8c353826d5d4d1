//go:build linux

package zram

import "golang.org/x/sys/unix"

func readHostMemory() (HostMemory, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return HostMemory{}, err
	}
	unit := uint64(info.Unit)
	if unit == 0 {
		unit = 1
	}
	return HostMemory{
		TotalRAM:  uint64(info.Totalram) * unit,
		FreeRAM:   uint64(info.Freeram) * unit,
		TotalSwap: uint64(info.Totalswap) * unit,
		FreeSwap:  uint64(info.Freeswap) * unit,
	}, nil
}

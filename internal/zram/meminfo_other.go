//go:build !linux

package zram

import "errors"

func readHostMemory() (HostMemory, error) {
	return HostMemory{}, errors.New("host memory totals are only available on linux")
}

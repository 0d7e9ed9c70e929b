//go:build windows

package drive

import "golang.org/x/sys/windows"

func freeBytes(root string) (uint64, error) {
	var free, total, totalFree uint64
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return 0, err
	}
	return free, nil
}

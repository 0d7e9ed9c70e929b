//go:build !windows

package drive

import "golang.org/x/sys/unix"

func freeBytes(root string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return 0, err
	}
	// Bavail: blocks available to unprivileged users
	return st.Bavail * uint64(st.Bsize), nil
}

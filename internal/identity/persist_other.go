//go:build !windows

package identity

import "os"

// atomicReplace renames src over dst. POSIX rename(2) is already atomic.
func atomicReplace(src, dst string) error {
	return os.Rename(src, dst)
}

//go:build windows

package identity

import (
	"time"

	"golang.org/x/sys/windows"
)

// atomicReplace renames src over dst using MoveFileEx with
// MOVEFILE_REPLACE_EXISTING/MOVEFILE_WRITE_THROUGH directly, rather than
// relying on os.Rename's own MoveFileEx call, so a sharing violation from an
// antivirus scanner or an open Explorer handle on dst is retried a few times
// instead of surfacing as a write failure.
func atomicReplace(src, dst string) error {
	srcPtr, err := windows.UTF16PtrFromString(src)
	if err != nil {
		return err
	}
	dstPtr, err := windows.UTF16PtrFromString(dst)
	if err != nil {
		return err
	}

	const flags = windows.MOVEFILE_REPLACE_EXISTING | windows.MOVEFILE_WRITE_THROUGH
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		lastErr = windows.MoveFileEx(srcPtr, dstPtr, flags)
		if lastErr == nil {
			return nil
		}
		if lastErr != windows.ERROR_SHARING_VIOLATION {
			return lastErr
		}
		time.Sleep(20 * time.Millisecond)
	}
	return lastErr
}

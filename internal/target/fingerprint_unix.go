//go:build unix

package target

import (
	"os"
	"syscall"
)

// statSys extracts the platform-specific half of the metadata tuple.
func statSys(fi os.FileInfo) (ino, mode, uid, gid uint64) {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, uint64(fi.Mode()), 0, 0
	}
	return st.Ino, uint64(st.Mode), uint64(st.Uid), uint64(st.Gid)
}

//go:build !unix

package target

import "os"

// statSys extracts the platform-specific half of the metadata tuple. There
// is no inode or ownership on Windows, so those fields stay zero; mtime,
// size and mode still catch the usual modifications.
func statSys(fi os.FileInfo) (ino, mode, uid, gid uint64) {
	return 0, uint64(fi.Mode()), 0, 0
}

package target

import (
	"crypto/sha256"
	"encoding/binary"
	"os"
)

// statDigestSize is the size of the packed-metadata digest; content digests
// have the same size, so a file fingerprint is either one or two of these.
const statDigestSize = sha256.Size

// statDigest hashes a fixed-order tuple of file metadata: modification time,
// size, inode (or file index), mode bits, owning uid and gid. Any metadata
// change is treated as a reason to rebuild; cross-platform stat semantics
// are too inconsistent to special-case (see https://apenwarr.ca/log/20181113).
// Packed in native byte order: fingerprints never leave the machine.
func statDigest(fi os.FileInfo) []byte {
	ino, mode, uid, gid := statSys(fi)

	var packed [48]byte
	binary.NativeEndian.PutUint64(packed[0:], uint64(fi.ModTime().UnixNano()))
	binary.NativeEndian.PutUint64(packed[8:], uint64(fi.Size()))
	binary.NativeEndian.PutUint64(packed[16:], ino)
	binary.NativeEndian.PutUint64(packed[24:], mode)
	binary.NativeEndian.PutUint64(packed[32:], uid)
	binary.NativeEndian.PutUint64(packed[40:], gid)

	digest := sha256.Sum256(packed[:])
	return digest[:]
}

// contentDigest hashes the full file content. The file is read into memory
// in one go; adequate for typical build artifacts, a known limit for very
// large ones.
func contentDigest(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(data)
	return digest[:], nil
}

package target

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// FolderSuffix is the discriminant suffix of folder targets.
const FolderSuffix = "/"

// FolderHandler owns on-disk directory targets. The cooked value is the
// absolute directory path. Fingerprints cover the directory's own metadata
// only: they catch creation, deletion and permission changes, not changes to
// the files inside (those are the job of the file targets within).
type FolderHandler struct{}

// NewFolderHandler creates a folder handler.
func NewFolderHandler() *FolderHandler { return &FolderHandler{} }

func (h *FolderHandler) Suffix() string { return FolderSuffix }
func (h *FolderHandler) OnDisk() bool   { return true }

func (h *FolderHandler) Resolve(id UnresolvedID, vars Vars, workdir string) (ResolvedID, error) {
	return resolveOnDisk(id, vars, workdir, FolderSuffix)
}

func (h *FolderHandler) Cook(id ResolvedID, previous Fingerprint) (any, error) {
	return strings.TrimSuffix(string(id), FolderSuffix), nil
}

func (h *FolderHandler) Clean(cooked any) error {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return err
	}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return runErrorf("cannot clean folder target `%s`: not a directory", path)
	}
	return os.RemoveAll(path)
}

func (h *FolderHandler) ComputeFingerprint(cooked any) (Fingerprint, error) {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return nil, nil
	}
	return statDigest(fi), nil
}

func (h *FolderHandler) NeedRebuild(cooked any, previous Fingerprint) (bool, error) {
	if len(previous) != statDigestSize {
		return true, nil
	}
	return fingerprintsDiffer(h, cooked, previous)
}

func (h *FolderHandler) cookedPath(cooked any) (string, error) {
	path, ok := cooked.(string)
	if !ok {
		return "", runErrorf("folder target expects a path, got %T", cooked)
	}
	return path, nil
}

func (h *FolderHandler) encodeCooked(cooked any) ([]byte, error) {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return nil, err
	}
	return []byte(path), nil
}

func (h *FolderHandler) decodeCooked(data []byte) (any, error) {
	return string(data), nil
}

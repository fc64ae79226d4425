package target

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// FingerprintStrategy selects how file targets are fingerprinted.
type FingerprintStrategy string

const (
	// StrategyStat fingerprints file metadata only. Fast (a single stat
	// call) but can miss modifications that leave every metadata field
	// intact.
	StrategyStat FingerprintStrategy = "stat"

	// StrategyStatContent appends a digest of the file content. Slower,
	// but closes the stat-only false negatives.
	StrategyStatContent FingerprintStrategy = "stat+content"
)

// FileSuffix is the discriminant suffix of file targets.
const FileSuffix = "#"

// FileHandler owns on-disk file targets. The cooked value is the absolute
// file path.
type FileHandler struct {
	strategy FingerprintStrategy
}

// NewFileHandler creates a file handler with the given fingerprint strategy.
func NewFileHandler(strategy FingerprintStrategy) (*FileHandler, error) {
	switch strategy {
	case StrategyStat, StrategyStatContent:
		return &FileHandler{strategy: strategy}, nil
	default:
		return nil, definitionErrorf("unknown fingerprint strategy `%s` (want `%s` or `%s`)",
			strategy, StrategyStat, StrategyStatContent)
	}
}

func (h *FileHandler) Suffix() string { return FileSuffix }
func (h *FileHandler) OnDisk() bool   { return true }

func (h *FileHandler) Resolve(id UnresolvedID, vars Vars, workdir string) (ResolvedID, error) {
	return resolveOnDisk(id, vars, workdir, FileSuffix)
}

func (h *FileHandler) Cook(id ResolvedID, previous Fingerprint) (any, error) {
	return strings.TrimSuffix(string(id), FileSuffix), nil
}

func (h *FileHandler) Clean(cooked any) error {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return err
	}
	fi, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	// Permission and wrong-kind failures go through: the clean genuinely
	// could not complete.
	if fi.IsDir() {
		return runErrorf("cannot clean file target `%s`: is a directory", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (h *FileHandler) ComputeFingerprint(cooked any) (Fingerprint, error) {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		// Missing, inaccessible or not actually a file: no observable
		// state, the target must be (re)built.
		return nil, nil
	}
	fingerprint := statDigest(fi)
	if h.strategy == StrategyStatContent {
		content, err := contentDigest(path)
		if err != nil {
			return nil, nil
		}
		fingerprint = append(fingerprint, content...)
	}
	return fingerprint, nil
}

func (h *FileHandler) NeedRebuild(cooked any, previous Fingerprint) (bool, error) {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return true, err
	}
	if len(previous) != h.fingerprintSize() {
		return true, nil
	}
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return true, nil
	}
	if !bytes.Equal(previous[:statDigestSize], statDigest(fi)) {
		return true, nil
	}
	// Metadata matched. In content mode the content digest must still be
	// verified: metadata-only false negatives are the very thing the
	// strategy exists to close.
	if h.strategy == StrategyStatContent {
		content, err := contentDigest(path)
		if err != nil {
			return true, nil
		}
		if !bytes.Equal(previous[statDigestSize:], content) {
			return true, nil
		}
	}
	return false, nil
}

func (h *FileHandler) fingerprintSize() int {
	if h.strategy == StrategyStatContent {
		return 2 * statDigestSize
	}
	return statDigestSize
}

func (h *FileHandler) cookedPath(cooked any) (string, error) {
	path, ok := cooked.(string)
	if !ok {
		return "", runErrorf("file target expects a path, got %T", cooked)
	}
	return path, nil
}

func (h *FileHandler) encodeCooked(cooked any) ([]byte, error) {
	path, err := h.cookedPath(cooked)
	if err != nil {
		return nil, err
	}
	return []byte(path), nil
}

func (h *FileHandler) decodeCooked(data []byte) (any, error) {
	return string(data), nil
}

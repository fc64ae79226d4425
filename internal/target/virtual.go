package target

// VirtualSuffix is the discriminant suffix of virtual targets.
const VirtualSuffix = "@"

// VirtualHandler owns virtual targets: they never exist on disk, so they are
// always considered changed. They exist purely so a build action can be
// named and ordered, never to be skip-cached. The cooked value is the
// resolved identity itself.
type VirtualHandler struct{}

// NewVirtualHandler creates a virtual handler.
func NewVirtualHandler() *VirtualHandler { return &VirtualHandler{} }

func (h *VirtualHandler) Suffix() string { return VirtualSuffix }
func (h *VirtualHandler) OnDisk() bool   { return false }

func (h *VirtualHandler) Resolve(id UnresolvedID, vars Vars, workdir string) (ResolvedID, error) {
	substituted, err := substitute(id, vars)
	if err != nil {
		return "", err
	}
	return ResolvedID(substituted), nil
}

func (h *VirtualHandler) Cook(id ResolvedID, previous Fingerprint) (any, error) {
	return string(id), nil
}

func (h *VirtualHandler) Clean(cooked any) error { return nil }

func (h *VirtualHandler) ComputeFingerprint(cooked any) (Fingerprint, error) {
	return nil, nil
}

func (h *VirtualHandler) NeedRebuild(cooked any, previous Fingerprint) (bool, error) {
	return true, nil
}

func (h *VirtualHandler) encodeCooked(cooked any) ([]byte, error) {
	id, ok := cooked.(string)
	if !ok {
		return nil, runErrorf("virtual target expects an identity string, got %T", cooked)
	}
	return []byte(id), nil
}

func (h *VirtualHandler) decodeCooked(data []byte) (any, error) {
	return string(data), nil
}

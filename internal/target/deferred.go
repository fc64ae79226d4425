package target

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// DeferredSuffix is the discriminant suffix of deferred targets.
const DeferredSuffix = "?"

// DeferredTarget is the placeholder cooked from a deferred identity. The
// rule producing the target binds it exactly once, at build time, to the
// concrete value and handler it actually produced. This is how a rule can
// output a file or folder whose name is not known until the rule runs.
type DeferredTarget struct {
	ID ResolvedID

	bound   bool
	value   any
	handler Handler
}

// Bind attaches the concrete value and owning handler. Binding an
// already-bound target is a run error, as is a value of the wrong type for
// the handler.
func (t *DeferredTarget) Bind(value any, handler Handler) error {
	if t.bound {
		return runErrorf("deferred target `%s` already resolved", t.ID)
	}
	// The wire encoding doubles as the type check.
	if _, err := handler.encodeCooked(value); err != nil {
		return err
	}
	t.bound = true
	t.value = value
	t.handler = handler
	return nil
}

// Binding returns the bound value and handler, or ok=false while unbound.
func (t *DeferredTarget) Binding() (value any, handler Handler, ok bool) {
	if !t.bound {
		return nil, nil, false
	}
	return t.value, t.handler, true
}

// DeferredHandler owns deferred targets. Their fingerprint is a serialized
// (handler suffix, value, nested fingerprint) triple, so the binding
// survives to the next build even though this handler cannot fingerprint
// the value itself.
type DeferredHandler struct {
	bundle *Bundle
}

// NewDeferredHandler creates a deferred handler. It only becomes usable
// once registered in a Bundle, which it needs to look up bound handlers by
// suffix when restoring a stored binding.
func NewDeferredHandler() *DeferredHandler { return &DeferredHandler{} }

func (h *DeferredHandler) Suffix() string { return DeferredSuffix }
func (h *DeferredHandler) OnDisk() bool   { return false }

func (h *DeferredHandler) Resolve(id UnresolvedID, vars Vars, workdir string) (ResolvedID, error) {
	substituted, err := substitute(id, vars)
	if err != nil {
		return "", err
	}
	return ResolvedID(substituted), nil
}

// Cook creates the placeholder and, when the previous fingerprint holds a
// readable binding triple, restores it. A corrupt or stale triple is not an
// error: the target just reverts to unbound and will report as dirty.
func (h *DeferredHandler) Cook(id ResolvedID, previous Fingerprint) (any, error) {
	t := &DeferredTarget{ID: id}
	if len(previous) == 0 {
		return t, nil
	}
	suffix, value, _, ok := decodeBinding(previous)
	if !ok {
		return t, nil
	}
	bound, err := h.lookup(suffix)
	if err != nil {
		return t, nil
	}
	cooked, err := bound.decodeCooked(value)
	if err != nil {
		return t, nil
	}
	if err := t.Bind(cooked, bound); err != nil {
		return t, nil
	}
	return t, nil
}

func (h *DeferredHandler) Clean(cooked any) error {
	t, err := h.cookedTarget(cooked)
	if err != nil {
		return err
	}
	value, bound, ok := t.Binding()
	if !ok {
		return nil
	}
	return bound.Clean(value)
}

func (h *DeferredHandler) ComputeFingerprint(cooked any) (Fingerprint, error) {
	t, err := h.cookedTarget(cooked)
	if err != nil {
		return nil, err
	}
	value, bound, ok := t.Binding()
	if !ok {
		return nil, nil
	}
	nested, err := bound.ComputeFingerprint(value)
	if err != nil {
		return nil, err
	}
	encoded, err := bound.encodeCooked(value)
	if err != nil {
		return nil, err
	}
	return encodeBinding(bound.Suffix(), encoded, nested), nil
}

func (h *DeferredHandler) NeedRebuild(cooked any, previous Fingerprint) (bool, error) {
	t, err := h.cookedTarget(cooked)
	if err != nil {
		return true, err
	}
	value, bound, ok := t.Binding()
	if !ok {
		return true, nil
	}
	_, _, nested, decoded := decodeBinding(previous)
	if !decoded {
		return true, nil
	}
	return bound.NeedRebuild(value, nested)
}

func (h *DeferredHandler) cookedTarget(cooked any) (*DeferredTarget, error) {
	t, ok := cooked.(*DeferredTarget)
	if !ok {
		return nil, runErrorf("deferred target expects a placeholder, got %T", cooked)
	}
	return t, nil
}

func (h *DeferredHandler) lookup(suffix string) (Handler, error) {
	if h.bundle == nil {
		return nil, consistencyErrorf("deferred handler used outside a bundle")
	}
	return h.bundle.handlerBySuffix(suffix)
}

func (h *DeferredHandler) encodeCooked(cooked any) ([]byte, error) {
	return nil, runErrorf("deferred targets cannot be bound to another deferred target")
}

func (h *DeferredHandler) decodeCooked(data []byte) (any, error) {
	return nil, runErrorf("deferred targets cannot be bound to another deferred target")
}

// Binding triple wire format, self-describing and guarded: a payload of
// length-prefixed fields (handler suffix, encoded value, nested
// fingerprint) followed by an xxhash64 checksum of the payload. The nested
// fingerprint length 0xFFFFFFFF marks semantic absence.

const absentLen = ^uint32(0)

func encodeBinding(suffix string, value []byte, nested Fingerprint) []byte {
	payloadLen := 2 + len(suffix) + 4 + len(value) + 4 + len(nested)
	buf := make([]byte, 0, payloadLen+8)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(suffix)))
	buf = append(buf, suffix...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
	buf = append(buf, value...)
	if nested == nil {
		buf = binary.LittleEndian.AppendUint32(buf, absentLen)
	} else {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(nested)))
		buf = append(buf, nested...)
	}

	return binary.BigEndian.AppendUint64(buf, xxhash.Sum64(buf))
}

func decodeBinding(data []byte) (suffix string, value []byte, nested Fingerprint, ok bool) {
	if len(data) < 8 {
		return "", nil, nil, false
	}
	payload, sum := data[:len(data)-8], binary.BigEndian.Uint64(data[len(data)-8:])
	if xxhash.Sum64(payload) != sum {
		return "", nil, nil, false
	}

	if len(payload) < 2 {
		return "", nil, nil, false
	}
	n := int(binary.LittleEndian.Uint16(payload))
	payload = payload[2:]
	if len(payload) < n+4 {
		return "", nil, nil, false
	}
	suffix = string(payload[:n])
	payload = payload[n:]

	n = int(binary.LittleEndian.Uint32(payload))
	payload = payload[4:]
	if len(payload) < n+4 {
		return "", nil, nil, false
	}
	value = payload[:n]
	payload = payload[n:]

	nestedLen := binary.LittleEndian.Uint32(payload)
	payload = payload[4:]
	if nestedLen == absentLen {
		if len(payload) != 0 {
			return "", nil, nil, false
		}
		return suffix, value, nil, true
	}
	if len(payload) != int(nestedLen) {
		return "", nil, nil, false
	}
	return suffix, value, payload, true
}

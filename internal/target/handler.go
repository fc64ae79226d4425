package target

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Handler turns target identities of one kind into usable runtime values and
// fingerprints them. The cooked value type is handler-specific: an absolute
// path for on-disk kinds, the identity string for virtual targets, a
// *DeferredTarget for deferred ones.
type Handler interface {
	// Suffix is the discriminant suffix tagging identities of this kind.
	Suffix() string

	// OnDisk reports whether targets of this kind may exist before any
	// rule runs (i.e. source files, as opposed to virtual or deferred
	// targets).
	OnDisk() bool

	// Resolve substitutes `{name}` placeholders from vars and, for
	// on-disk kinds, makes the identity absolute against workdir.
	// Resolution is idempotent: an already-resolved identity comes back
	// unchanged.
	Resolve(id UnresolvedID, vars Vars, workdir string) (ResolvedID, error)

	// Cook turns a resolved identity into the handler's runtime value.
	// Side-effect free, except that deferred targets restore their prior
	// binding from the previous fingerprint.
	Cook(id ResolvedID, previous Fingerprint) (any, error)

	// Clean removes the on-disk artifact, if any. An already-absent
	// artifact is success; permission and wrong-kind failures propagate.
	Clean(cooked any) error

	// ComputeFingerprint captures the target's current observable state.
	// Returns nil when the target does not physically exist or is of the
	// wrong on-disk kind.
	ComputeFingerprint(cooked any) (Fingerprint, error)

	// NeedRebuild reports whether the target changed since previous was
	// taken. A nil or structurally unreadable previous fingerprint always
	// means rebuild.
	NeedRebuild(cooked any, previous Fingerprint) (bool, error)

	// encodeCooked and decodeCooked round-trip a cooked value through the
	// deferred-binding wire encoding. encodeCooked doubles as the type
	// check when binding a deferred target.
	encodeCooked(cooked any) ([]byte, error)
	decodeCooked(data []byte) (any, error)
}

// substitute expands `{name}` placeholders in id from vars. `{{` and `}}`
// are literal braces. A placeholder naming an absent variable is a
// definition error.
func substitute(id UnresolvedID, vars Vars) (string, error) {
	s := string(id)
	var out strings.Builder
	out.Grow(len(s))

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				out.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return "", definitionErrorf("unterminated placeholder in `%s`", id)
			}
			name := s[i+1 : i+1+end]
			value, ok := vars[name]
			if !ok {
				return "", definitionErrorf("missing configuration `%s` needed in `%s`", name, id)
			}
			formatted, err := formatVar(value)
			if err != nil {
				return "", definitionErrorf("configuration `%s` needed in `%s`: %s", name, id, err)
			}
			out.WriteString(formatted)
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				i++
			}
			out.WriteByte('}')
		default:
			out.WriteByte(c)
		}
	}

	return out.String(), nil
}

// formatVar renders a configuration scalar for placeholder substitution.
func formatVar(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("not a constant scalar (%T)", v)
	}
}

// resolveOnDisk is the shared resolve step for file and folder targets:
// substitute placeholders, then join relative results onto workdir while
// preserving the discriminant suffix.
func resolveOnDisk(id UnresolvedID, vars Vars, workdir, suffix string) (ResolvedID, error) {
	substituted, err := substitute(id, vars)
	if err != nil {
		return "", err
	}
	// The identity still carries its suffix, so path checks apply to the
	// identity minus the suffix.
	path := strings.TrimSuffix(substituted, suffix)
	if filepath.IsAbs(path) {
		return ResolvedID(substituted), nil
	}
	return ResolvedID(filepath.Join(workdir, path) + suffix), nil
}

// fingerprintsDiffer is the default rebuild check: recompute and compare.
func fingerprintsDiffer(h Handler, cooked any, previous Fingerprint) (bool, error) {
	current, err := h.ComputeFingerprint(cooked)
	if err != nil {
		return true, err
	}
	return !bytes.Equal(current, previous), nil
}

// Package target implements target identity resolution and change detection.
//
// Rules name their targets with unresolved identities (e.g. `{build}/foo.c#`,
// `bar.log#`) that are relative to the rule's working directory and may
// reference configuration variables. Resolution turns them into unique
// absolute identities (e.g. `/home/x/project/build/foo.c#`) that are used as
// keys into the fingerprint store. Both forms carry a discriminant suffix
// that selects the handler owning the target.
package target

// UnresolvedID is a target identity as written in a rule: relative to the
// rule's working directory, possibly containing `{name}` placeholders.
type UnresolvedID string

// ResolvedID is a canonical target identity: fully substituted, absolute for
// on-disk kinds, still carrying its discriminant suffix.
type ResolvedID string

// Vars is the configuration mapping consulted during placeholder
// substitution. Values are constant scalars (string, integer, float or
// boolean); the mapping is read-only during resolution.
type Vars map[string]any

// Fingerprint is an opaque byte sequence describing a target's observed
// state. A nil fingerprint is the semantic-absence value: the target has no
// observable state and must always be considered changed.
type Fingerprint []byte

package target

import "strings"

// Bundle holds the installed target handlers and dispatches resolve and
// cook operations to them by discriminant suffix. Suffix ambiguity is
// rejected at construction, not discovered at resolve time.
type Bundle struct {
	handlers       []Handler // registration order, drives dispatch priority
	defaultHandler Handler
}

// NewBundle registers a set of handlers, with an optional default used for
// symbolic names carrying no recognized suffix. It is a consistency error
// for one handler's suffix to be a suffix of another's, or for the default
// handler not to be among the registered ones.
func NewBundle(handlers []Handler, defaultHandler Handler) (*Bundle, error) {
	if defaultHandler != nil {
		registered := false
		for _, h := range handlers {
			if h == defaultHandler {
				registered = true
				break
			}
		}
		if !registered {
			return nil, consistencyErrorf("default handler (suffix `%s`) is not among the registered handlers",
				defaultHandler.Suffix())
		}
	}

	for i, h := range handlers {
		if h.Suffix() == "" {
			return nil, consistencyErrorf("handler %T has an empty discriminant suffix", h)
		}
		for _, other := range handlers[:i] {
			if strings.HasSuffix(h.Suffix(), other.Suffix()) || strings.HasSuffix(other.Suffix(), h.Suffix()) {
				return nil, consistencyErrorf("ambiguous target handler suffix `%s`, would clash with `%s`",
					h.Suffix(), other.Suffix())
			}
		}
	}

	b := &Bundle{handlers: handlers, defaultHandler: defaultHandler}
	for _, h := range handlers {
		// The deferred handler restores stored bindings, which needs
		// the suffix table it is itself part of.
		if d, ok := h.(*DeferredHandler); ok {
			d.bundle = b
		}
	}
	return b, nil
}

// ResolveTarget resolves a symbolic target name against the configuration
// mapping and the rule's working directory, returning the canonical
// identity and its owning handler. Names without a recognized suffix get
// the default handler's suffix appended before resolution; without a
// default handler they are a consistency error.
func (b *Bundle) ResolveTarget(symbolic string, vars Vars, workdir string) (ResolvedID, Handler, error) {
	for _, h := range b.handlers {
		if strings.HasSuffix(symbolic, h.Suffix()) {
			resolved, err := h.Resolve(UnresolvedID(symbolic), vars, workdir)
			if err != nil {
				return "", nil, err
			}
			return resolved, h, nil
		}
	}
	if b.defaultHandler != nil {
		patched := UnresolvedID(symbolic + b.defaultHandler.Suffix())
		resolved, err := b.defaultHandler.Resolve(patched, vars, workdir)
		if err != nil {
			return "", nil, err
		}
		return resolved, b.defaultHandler, nil
	}
	return "", nil, consistencyErrorf("no handler for target `%s` (is the discriminant suffix valid?)", symbolic)
}

// GetHandler returns the handler owning an already-resolved identity.
// Failure signals an internal consistency violation: only identities
// produced by ResolveTarget should be passed in.
func (b *Bundle) GetHandler(id ResolvedID) (Handler, error) {
	for _, h := range b.handlers {
		if strings.HasSuffix(string(id), h.Suffix()) {
			return h, nil
		}
	}
	return nil, consistencyErrorf("no handler for target `%s` (is the discriminant suffix valid?)", id)
}

// CookTarget turns a resolved identity into its handler's runtime value,
// seeding it with the previous fingerprint where the handler carries state
// forward (deferred targets).
func (b *Bundle) CookTarget(id ResolvedID, previous Fingerprint) (any, Handler, error) {
	h, err := b.GetHandler(id)
	if err != nil {
		return nil, nil, err
	}
	cooked, err := h.Cook(id, previous)
	if err != nil {
		return nil, nil, err
	}
	return cooked, h, nil
}

// handlerBySuffix is the exact-match lookup used when restoring a stored
// deferred binding.
func (b *Bundle) handlerBySuffix(suffix string) (Handler, error) {
	for _, h := range b.handlers {
		if h.Suffix() == suffix {
			return h, nil
		}
	}
	return nil, consistencyErrorf("no handler registered for suffix `%s`", suffix)
}

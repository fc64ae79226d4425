package target

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// fakeHandler is a minimal handler with a configurable suffix, used to
// exercise bundle construction rules.
type fakeHandler struct {
	suffix string
}

func (h *fakeHandler) Suffix() string { return h.suffix }
func (h *fakeHandler) OnDisk() bool   { return false }

func (h *fakeHandler) Resolve(id UnresolvedID, vars Vars, workdir string) (ResolvedID, error) {
	s, err := substitute(id, vars)
	return ResolvedID(s), err
}

func (h *fakeHandler) Cook(id ResolvedID, previous Fingerprint) (any, error) { return string(id), nil }
func (h *fakeHandler) Clean(cooked any) error                               { return nil }
func (h *fakeHandler) ComputeFingerprint(cooked any) (Fingerprint, error)   { return nil, nil }
func (h *fakeHandler) NeedRebuild(cooked any, previous Fingerprint) (bool, error) {
	return true, nil
}
func (h *fakeHandler) encodeCooked(cooked any) ([]byte, error) {
	s, ok := cooked.(string)
	if !ok {
		return nil, runErrorf("fake target expects a string, got %T", cooked)
	}
	return []byte(s), nil
}
func (h *fakeHandler) decodeCooked(data []byte) (any, error) { return string(data), nil }

func TestNewBundleAmbiguousSuffixes(t *testing.T) {
	tests := []struct {
		name     string
		suffixes []string
	}{
		{"one is suffix of the other", []string{".c#", "c#"}},
		{"other direction", []string{"c#", ".c#"}},
		{"identical", []string{"#", "#"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := make([]Handler, len(tt.suffixes))
			for i, s := range tt.suffixes {
				handlers[i] = &fakeHandler{suffix: s}
			}
			_, err := NewBundle(handlers, nil)
			var consErr *ConsistencyError
			if !errors.As(err, &consErr) {
				t.Fatalf("expected ConsistencyError, got %T: %v", err, err)
			}
		})
	}
}

func TestNewBundleEmptySuffix(t *testing.T) {
	_, err := NewBundle([]Handler{&fakeHandler{suffix: ""}}, nil)
	var consErr *ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ConsistencyError, got %T: %v", err, err)
	}
}

func TestNewBundleDefaultNotRegistered(t *testing.T) {
	registered := &fakeHandler{suffix: "#"}
	outsider := &fakeHandler{suffix: "@"}
	_, err := NewBundle([]Handler{registered}, outsider)
	var consErr *ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ConsistencyError, got %T: %v", err, err)
	}
}

func TestResolveTargetDispatch(t *testing.T) {
	hash := &fakeHandler{suffix: "#"}
	at := &fakeHandler{suffix: "@"}
	b, err := NewBundle([]Handler{hash, at}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, h, err := b.ResolveTarget("foo@", nil, "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if h != at {
		t.Errorf("dispatched to %v, want the `@` handler", h)
	}
}

func TestResolveTargetDefaultSuffix(t *testing.T) {
	hash := &fakeHandler{suffix: "#"}
	at := &fakeHandler{suffix: "@"}
	b, err := NewBundle([]Handler{hash, at}, hash)
	if err != nil {
		t.Fatal(err)
	}

	resolved, h, err := b.ResolveTarget("foo.log", nil, "/proj")
	if err != nil {
		t.Fatal(err)
	}
	if h != hash {
		t.Errorf("default resolution picked %v, want the `#` handler", h)
	}
	if string(resolved) != "foo.log#" {
		t.Errorf("resolved = %q, want %q", resolved, "foo.log#")
	}
}

func TestResolveTargetNoHandlerNoDefault(t *testing.T) {
	b, err := NewBundle([]Handler{&fakeHandler{suffix: "#"}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = b.ResolveTarget("foo.log", nil, "/proj")
	var consErr *ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ConsistencyError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), "foo.log") {
		t.Errorf("error should name the target, got: %v", err)
	}
}

func TestGetHandlerUnknownSuffix(t *testing.T) {
	b, err := NewBundle([]Handler{&fakeHandler{suffix: "#"}}, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = b.GetHandler("bogus%")
	var consErr *ConsistencyError
	if !errors.As(err, &consErr) {
		t.Fatalf("expected ConsistencyError, got %T: %v", err, err)
	}
}

func TestResolveTargetDefinitionErrorPropagates(t *testing.T) {
	file, err := NewFileHandler(StrategyStat)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBundle([]Handler{file}, file)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = b.ResolveTarget("{missing}/x#", Vars{"out": "build"}, filepath.FromSlash("/proj"))
	var defErr *DefinitionError
	if !errors.As(err, &defErr) {
		t.Fatalf("expected DefinitionError, got %T: %v", err, err)
	}
}

func TestCookTarget(t *testing.T) {
	file, err := NewFileHandler(StrategyStat)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewBundle([]Handler{file, NewVirtualHandler()}, file)
	if err != nil {
		t.Fatal(err)
	}

	id := ResolvedID(filepath.FromSlash("/proj/build/app.o") + "#")
	cooked, h, err := b.CookTarget(id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h != file {
		t.Errorf("CookTarget handler = %v, want the file handler", h)
	}
	path, ok := cooked.(string)
	if !ok || path != filepath.FromSlash("/proj/build/app.o") {
		t.Errorf("cooked = %v, want the path without suffix", cooked)
	}
}

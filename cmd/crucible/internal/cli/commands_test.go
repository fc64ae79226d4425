package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucible-build/crucible/internal/store"
	"github.com/crucible-build/crucible/internal/target"
	"github.com/crucible-build/crucible/pkg/config"
)

func testSession(t *testing.T) *session {
	t.Helper()
	workdir := t.TempDir()

	cfg := config.NewConfig()
	cfg.Vars = map[string]any{"out": "build"}

	bundle, err := buildBundle(cfg)
	if err != nil {
		t.Fatal(err)
	}
	st, err := store.Open(filepath.Join(workdir, "fingerprints.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return &session{cfg: cfg, bundle: bundle, workdir: workdir, store: st}
}

func TestBuildBundleDefaultsToFile(t *testing.T) {
	s := testSession(t)

	resolved, handler, err := s.bundle.ResolveTarget("app.log", s.vars(), s.workdir)
	if err != nil {
		t.Fatal(err)
	}
	if handler.Suffix() != target.FileSuffix {
		t.Errorf("suffix-less name dispatched to %q, want the file handler", handler.Suffix())
	}
	if !strings.HasSuffix(string(resolved), target.FileSuffix) {
		t.Errorf("resolved = %q, want the file suffix appended", resolved)
	}
	if !filepath.IsAbs(strings.TrimSuffix(string(resolved), target.FileSuffix)) {
		t.Errorf("resolved = %q, want an absolute path", resolved)
	}
}

func TestBuildBundleRejectsBadStrategy(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Fingerprint.Strategy = "bogus"
	if _, err := buildBundle(cfg); err == nil {
		t.Error("expected an error for an unknown fingerprint strategy")
	}
}

func TestStatusRecordCycle(t *testing.T) {
	s := testSession(t)

	path := filepath.Join(s.workdir, "out.log")
	if err := os.WriteFile(path, []byte("built"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved, _, err := s.bundle.ResolveTarget("{out}.log#", target.Vars{"out": strings.TrimSuffix(path, ".log")}, s.workdir)
	if err != nil {
		t.Fatal(err)
	}

	// Never fingerprinted: dirty.
	dirty, err := checkDirty(s, resolved)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("target with no stored fingerprint should be dirty")
	}

	// Record the current state, as a scheduler would after building.
	cooked, handler, err := s.bundle.CookTarget(resolved, nil)
	if err != nil {
		t.Fatal(err)
	}
	fingerprint, err := handler.ComputeFingerprint(cooked)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.store.Set(resolved, fingerprint); err != nil {
		t.Fatal(err)
	}

	dirty, err = checkDirty(s, resolved)
	if err != nil {
		t.Fatal(err)
	}
	if dirty {
		t.Error("freshly recorded target should be clean")
	}

	// Touch the artifact: dirty again.
	if err := os.WriteFile(path, []byte("rebuilt"), 0o644); err != nil {
		t.Fatal(err)
	}
	dirty, err = checkDirty(s, resolved)
	if err != nil {
		t.Fatal(err)
	}
	if !dirty {
		t.Error("modified target should be dirty")
	}
}

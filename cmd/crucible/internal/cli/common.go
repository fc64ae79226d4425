package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/crucible-build/crucible/internal/log"
	"github.com/crucible-build/crucible/internal/store"
	"github.com/crucible-build/crucible/internal/target"
	"github.com/crucible-build/crucible/pkg/config"
)

// session wires the pieces one command invocation needs: configuration, the
// handler bundle, the working directory and (optionally) the fingerprint
// store. The store is held for the duration of the invocation and must be
// closed on every exit path.
type session struct {
	cfg     *config.Config
	bundle  *target.Bundle
	workdir string
	store   *store.Store
}

// newSession builds a session from config and flags. withStore controls
// whether the fingerprint store is opened; commands that never touch
// fingerprints skip it.
func newSession(withStore bool) (*session, error) {
	workdir := globalFlags.workdir
	if workdir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to determine working directory: %w", err)
		}
		workdir = wd
	}
	workdir, err := filepath.Abs(workdir)
	if err != nil {
		return nil, fmt.Errorf("invalid working directory: %w", err)
	}

	cfg := config.LoadFrom(workdir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	bundle, err := buildBundle(cfg)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, bundle: bundle, workdir: workdir}
	if withStore {
		path := cfg.Store.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(config.ProjectRoot(workdir), path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create store directory: %w", err)
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		log.V(2).Info("fingerprint store opened", "path", path)
		s.store = st
	}
	return s, nil
}

func (s *session) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// buildBundle registers the built-in handler set: file (default), folder,
// virtual and deferred.
func buildBundle(cfg *config.Config) (*target.Bundle, error) {
	file, err := target.NewFileHandler(target.FingerprintStrategy(cfg.Fingerprint.Strategy))
	if err != nil {
		return nil, err
	}
	handlers := []target.Handler{
		file,
		target.NewFolderHandler(),
		target.NewVirtualHandler(),
		target.NewDeferredHandler(),
	}
	return target.NewBundle(handlers, file)
}

// vars exposes the configured variable mapping in the form resolution
// expects.
func (s *session) vars() target.Vars {
	return target.Vars(s.cfg.Vars)
}

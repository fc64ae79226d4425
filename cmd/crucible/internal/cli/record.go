package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/internal/log"
)

var recordCmd = &cobra.Command{
	Use:   "record TARGET...",
	Short: "Fingerprint targets and persist the result",
	Long: `Computes a fresh fingerprint of each target's current state and writes
it to the fingerprint store. This is what a build scheduler does after a
build action completes; run it manually to mark targets as up to date.

Targets with no observable state (missing files, virtual targets, unbound
deferred targets) are skipped: they stay permanently dirty.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	s, err := newSession(true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	for _, arg := range args {
		resolved, _, err := s.bundle.ResolveTarget(arg, s.vars(), s.workdir)
		if err != nil {
			return err
		}
		previous, err := s.store.Get(resolved)
		if err != nil {
			return err
		}
		cooked, handler, err := s.bundle.CookTarget(resolved, previous)
		if err != nil {
			return err
		}
		fingerprint, err := handler.ComputeFingerprint(cooked)
		if err != nil {
			return err
		}
		if fingerprint == nil {
			log.Warn("target has no observable state, not recorded", "target", string(resolved))
			continue
		}
		if err := s.store.Set(resolved, fingerprint); err != nil {
			return err
		}
		fmt.Printf("recorded  %s\n", string(resolved))
	}
	return nil
}

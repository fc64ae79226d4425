package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean TARGET...",
	Short: "Remove the on-disk artifacts of targets",
	Long: `Removes each target's on-disk artifact. Already-absent artifacts are
fine; permission failures and kind mismatches (a directory where a file
was expected) abort the clean.

Virtual targets and unbound deferred targets have nothing to remove.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
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
		// Cooking with the stored fingerprint lets deferred targets
		// restore their binding, so their bound artifact gets cleaned.
		previous, err := s.store.Get(resolved)
		if err != nil {
			return err
		}
		cooked, handler, err := s.bundle.CookTarget(resolved, previous)
		if err != nil {
			return err
		}
		if err := handler.Clean(cooked); err != nil {
			return fmt.Errorf("failed to clean %s: %w", resolved, err)
		}
		fmt.Printf("cleaned  %s\n", string(resolved))
	}
	return nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/internal/target"
)

var statusFlags struct {
	json bool
}

var statusCmd = &cobra.Command{
	Use:   "status TARGET...",
	Short: "Report which targets need rebuilding",
	Long: `Resolves each target, compares its current state against the stored
fingerprint and reports whether a dependent build action must re-run.

A target with no stored fingerprint, a missing file or folder, a virtual
target or an unbound deferred target always reports dirty.

The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// TargetStatus is the JSON output format for one target.
type TargetStatus struct {
	Target   string `json:"target"`
	Resolved string `json:"resolved"`
	Dirty    bool   `json:"dirty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	statuses := make([]TargetStatus, 0, len(args))
	for _, arg := range args {
		resolved, _, err := s.bundle.ResolveTarget(arg, s.vars(), s.workdir)
		if err != nil {
			return err
		}
		dirty, err := checkDirty(s, resolved)
		if err != nil {
			return err
		}
		statuses = append(statuses, TargetStatus{Target: arg, Resolved: string(resolved), Dirty: dirty})
	}

	if statusFlags.json {
		return outputJSON(statuses)
	}
	for _, st := range statuses {
		state := "clean"
		if st.Dirty {
			state = "dirty"
		}
		fmt.Printf("%-5s  %s\n", state, st.Resolved)
	}
	return nil
}

// checkDirty runs the cook-then-check cycle for one resolved identity.
func checkDirty(s *session, resolved target.ResolvedID) (bool, error) {
	previous, err := s.store.Get(resolved)
	if err != nil {
		return false, err
	}
	cooked, handler, err := s.bundle.CookTarget(resolved, previous)
	if err != nil {
		return false, err
	}
	return handler.NeedRebuild(cooked, previous)
}

func outputJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve TARGET...",
	Short: "Print the canonical resolved identity of targets",
	Long: `Resolves symbolic target names against the configured variable mapping
and the working directory, printing the canonical identity used as the
fingerprint store key.

Example:

  $ crucible resolve '{build}/app.log#'
  /proj/build/app.log#`,
	Args: cobra.MinimumNArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := newSession(false)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	for _, arg := range args {
		resolved, _, err := s.bundle.ResolveTarget(arg, s.vars(), s.workdir)
		if err != nil {
			return err
		}
		fmt.Println(string(resolved))
	}
	return nil
}

package cli

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/crucible-build/crucible/cmd/crucible/internal/watch"
	"github.com/crucible-build/crucible/internal/log"
	"github.com/crucible-build/crucible/internal/target"
)

var watchFlags struct {
	debounce int
}

var watchCmd = &cobra.Command{
	Use:   "watch TARGET...",
	Short: "Watch targets and report when they turn dirty",
	Long: `Watches the filesystem locations backing the given on-disk targets and
re-runs the dirty check whenever they change.

Virtual and deferred targets have no on-disk location and cannot be
watched.

Press Ctrl+C to stop watching.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 500,
		"Debounce window in milliseconds")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := newSession(true)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	var watched []watch.Target
	for _, arg := range args {
		resolved, handler, err := s.bundle.ResolveTarget(arg, s.vars(), s.workdir)
		if err != nil {
			return err
		}
		if !handler.OnDisk() {
			return fmt.Errorf("target %s has no on-disk location to watch", resolved)
		}
		watched = append(watched, watch.Target{
			ID:   resolved,
			Path: strings.TrimSuffix(string(resolved), handler.Suffix()),
		})
	}

	w, err := watch.New(watch.Config{
		Targets:  watched,
		Debounce: time.Duration(watchFlags.debounce) * time.Millisecond,
		OnChange: func(ids []target.ResolvedID) { reportChanged(s, ids) },
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	fmt.Printf("watching %d target(s), Ctrl+C to stop\n", len(watched))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// reportChanged re-runs the dirty check for the touched targets and prints
// the result.
func reportChanged(s *session, ids []target.ResolvedID) {
	now := time.Now().Format("15:04:05")
	for _, id := range ids {
		dirty, err := checkDirty(s, id)
		if err != nil {
			log.Error("dirty check failed", "target", string(id), "error", err)
			continue
		}
		state := "clean"
		if dirty {
			state = "dirty"
		}
		fmt.Printf("[%s] %s  %s\n", now, state, string(id))
	}
}

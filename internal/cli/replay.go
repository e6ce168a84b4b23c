package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/tickbot/internal/engine"
	"github.com/roach88/tickbot/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Journal  string // optional - specific journal only
}

// ReplayJournalResult holds the replay result for a single journal.
type ReplayJournalResult struct {
	JournalID     string `json:"journal_id"`
	Frames        int    `json:"frames"`
	Commands      int    `json:"commands"`
	Signals       int    `json:"signals"`
	Runs          int    `json:"runs"`
	Elapsed       string `json:"elapsed"`
	Deterministic bool   `json:"deterministic"`
	Error         string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Journals         []ReplayJournalResult `json:"journals"`
	TotalJournals    int                   `json:"total_journals"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay journals and verify determinism",
		Long: `Replay journaled sessions and verify they reproduce.

Each journal is fed back into a fresh engine built from its recorded
config: the same commands, in the same frames, with the same deltas and
run IDs. Every emitted signal must match the journal byte for byte.

Exit codes:
  0 - All journals are deterministic
  1 - A journal diverged or cannot be replayed by this build
  2 - Command error (database not found, etc.)

Examples:
  tickbot replay --db ./tickbot.db
  tickbot replay --db ./tickbot.db --journal 0192f7c4-...
  tickbot replay --db ./tickbot.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "replay specific journal only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if !opts.Verbose {
		// Replay logs every journal at info; keep that out of the report.
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})))
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var journalIDs []string
	if opts.Journal != "" {
		journalIDs = []string{opts.Journal}
	} else {
		journals, err := st.ListJournals(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list journals", err)
		}
		for _, j := range journals {
			journalIDs = append(journalIDs, j.ID)
		}
	}

	result := ReplayResult{
		Journals:         make([]ReplayJournalResult, 0, len(journalIDs)),
		TotalJournals:    len(journalIDs),
		AllDeterministic: true,
	}

	if len(journalIDs) == 0 {
		if opts.Format == "json" {
			return outputReplayJSON(cmd, result)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No journals found in database.")
		return nil
	}

	for _, id := range journalIDs {
		jr, err := replayJournal(ctx, st, id)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay journal %s", id), err)
		}
		result.Journals = append(result.Journals, jr)
		if !jr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replayJournal replays one journal. A divergence or an incompatible
// journal is a result, not an error; anything else (missing journal,
// broken payloads) is returned as an error.
func replayJournal(ctx context.Context, st *store.Store, id string) (ReplayJournalResult, error) {
	res, err := engine.Replay(ctx, st, id)
	if err != nil {
		if engine.IsReplayError(err) {
			return ReplayJournalResult{JournalID: id, Error: err.Error()}, nil
		}
		if errors.Is(err, store.ErrNotFound) {
			return ReplayJournalResult{}, NewExitError(ExitCommandError, fmt.Sprintf("%s: journal %s not found", ErrCodeNotFound, id))
		}
		return ReplayJournalResult{}, err
	}
	return ReplayJournalResult{
		JournalID:     id,
		Frames:        res.Frames,
		Commands:      res.Commands,
		Signals:       res.Signals,
		Runs:          res.Runs,
		Elapsed:       res.Elapsed.String(),
		Deterministic: true,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := encodeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Determinism failure = exit code 1
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Replay Summary: %d journal(s)\n", result.TotalJournals)
	fmt.Fprintln(w)

	for _, j := range result.Journals {
		if !j.Deterministic {
			fmt.Fprintf(w, "✗ Journal: %s\n", j.JournalID)
			fmt.Fprintf(w, "  %s\n", j.Error)
			continue
		}

		fmt.Fprintf(w, "✓ Journal: %s\n", j.JournalID)
		if verbose {
			fmt.Fprintf(w, "  Frames:   %d\n", j.Frames)
			fmt.Fprintf(w, "  Commands: %d\n", j.Commands)
			fmt.Fprintf(w, "  Signals:  %d\n", j.Signals)
			fmt.Fprintf(w, "  Runs:     %d\n", j.Runs)
			fmt.Fprintf(w, "  Elapsed:  %s\n", j.Elapsed)
		} else {
			fmt.Fprintf(w, "  %d signals, %d runs over %s\n", j.Signals, j.Runs, j.Elapsed)
		}
	}

	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintln(w, "Result: All journals deterministic")
		return nil
	}
	fmt.Fprintln(w, "Result: Determinism verification FAILED")
	return NewExitError(ExitFailure, "determinism verification failed")
}

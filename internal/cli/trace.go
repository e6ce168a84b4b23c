package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tickbot/internal/queryir"
	"github.com/roach88/tickbot/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Journal  string
	RunID    string
	Types    []string // optional - filter to these signal types
	Since    int64    // first seq to show, 0 = from the start
	Until    int64    // last seq to show, 0 = to the end
}

// TraceEvent represents a single signal in the trace timeline.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Frame  int64          `json:"frame"`
	Type   string         `json:"type"`
	RunID  string         `json:"run_id,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// TraceRun summarizes one recorded run.
type TraceRun struct {
	ID          string `json:"id"`
	ProgramHash string `json:"program_hash"`
	Length      int    `json:"length"`
	Outcome     string `json:"outcome,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Ticks       int    `json:"ticks"`
	Ended       bool   `json:"ended"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	JournalID string       `json:"journal_id"`
	RunID     string       `json:"run_id,omitempty"`
	Timeline  []TraceEvent `json:"timeline"`
	Runs      []TraceRun   `json:"runs"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSignals int  `json:"total_signals"`
	Runs         int  `json:"runs"`
	Succeeded    int  `json:"succeeded"`
	Failed       int  `json:"failed"`
	Cancelled    int  `json:"cancelled"`
	IsComplete   bool `json:"is_complete"`
}

// JournalEntry is one row of the journal listing.
type JournalEntry struct {
	ID            string `json:"id"`
	StartScreen   string `json:"start_screen"`
	EngineVersion string `json:"engine_version"`
	Frames        int64  `json:"frames"`
	Signals       int64  `json:"signals"`
	Runs          int64  `json:"runs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the recorded signals of a journal or run",
		Long: `Show what a journaled session emitted.

Without --journal or --run the journals in the database are listed.

The output includes:
- Timeline: signals in seq order, with their fields
- Runs: every run with its program hash and outcome
- Stats: summary counts; a journal is complete when every run ended

Examples:
  tickbot trace --db ./tickbot.db
  tickbot trace --db ./tickbot.db --journal 0192f7c4-...
  tickbot trace --db ./tickbot.db --run run-2 --type tick_executed,run_completed
  tickbot trace --db ./tickbot.db --journal 0192f7c4-... --since 40 --until 60`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal id to trace")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id to trace")
	cmd.Flags().StringSliceVar(&opts.Types, "type", nil, "filter to these signal types")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "show signals from this seq on")
	cmd.Flags().Int64Var(&opts.Until, "until", 0, "show signals up to this seq")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Since < 0 || opts.Until < 0 || (opts.Until > 0 && opts.Since > opts.Until) {
		return formatter.Failure(ExitCommandError, ErrCodeInvalidArgs,
			fmt.Sprintf("invalid seq window: --since %d --until %d", opts.Since, opts.Until), nil)
	}

	if opts.Journal == "" && opts.RunID == "" {
		journals, err := st.ListJournals(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list journals", err)
		}
		return outputJournalList(cmd, opts.Format, journals)
	}

	var (
		records []store.SignalRecord
		runs    []store.RunRecord
	)
	result := TraceResult{JournalID: opts.Journal, RunID: opts.RunID}

	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Failure(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		result.JournalID = run.JournalID
		runs = []store.RunRecord{run}
		records, err = st.QuerySignals(ctx, signalFilter(opts))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read signals", err)
		}
	} else {
		if _, err := st.ReadJournal(ctx, opts.Journal); errors.Is(err, store.ErrNotFound) {
			return formatter.Failure(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("journal %s not found", opts.Journal), nil)
		} else if err != nil {
			return WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		runs, err = st.ListRuns(ctx, opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		records, err = st.QuerySignals(ctx, signalFilter(opts))
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read signals", err)
		}
	}

	timeline, err := buildTimeline(records)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to decode signals", err)
	}
	result.Timeline = timeline
	result.Runs = make([]TraceRun, 0, len(runs))
	result.Stats = TraceStats{TotalSignals: len(timeline), Runs: len(runs), IsComplete: true}
	for _, r := range runs {
		result.Runs = append(result.Runs, TraceRun{
			ID:          r.ID,
			ProgramHash: r.ProgramHash,
			Length:      r.Length,
			Outcome:     r.Outcome,
			Reason:      r.Reason,
			Ticks:       r.Ticks,
			Ended:       r.Ended(),
		})
		switch r.Outcome {
		case "success":
			result.Stats.Succeeded++
		case "failure":
			result.Stats.Failed++
		case "cancelled":
			result.Stats.Cancelled++
		}
		if !r.Ended() {
			result.Stats.IsComplete = false
		}
	}

	if opts.Format == "json" {
		return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: result, JournalID: result.JournalID})
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// signalFilter scopes the trace to the run (or journal) and applies the
// type and seq window flags.
func signalFilter(opts *TraceOptions) queryir.Predicate {
	scope := queryir.Equals{Field: "journal_id", Value: opts.Journal}
	if opts.RunID != "" {
		scope = queryir.Equals{Field: "run_id", Value: opts.RunID}
	}

	var types queryir.Predicate
	if len(opts.Types) > 0 {
		values := make([]any, len(opts.Types))
		for i, t := range opts.Types {
			values[i] = strings.TrimSpace(t)
		}
		types = queryir.In{Field: "type", Values: values}
	}

	return queryir.Where(scope, types, queryir.Range{Field: "seq", Min: opts.Since, Max: opts.Until})
}

// buildTimeline decodes stored signals into trace events.
func buildTimeline(records []store.SignalRecord) ([]TraceEvent, error) {
	timeline := make([]TraceEvent, 0, len(records))
	for _, rec := range records {
		var fields map[string]any
		if err := json.Unmarshal([]byte(rec.Payload), &fields); err != nil {
			return nil, fmt.Errorf("signal %d: %w", rec.Seq, err)
		}
		// seq, type and run_id have their own columns.
		delete(fields, "seq")
		delete(fields, "type")
		delete(fields, "run_id")
		timeline = append(timeline, TraceEvent{
			Seq:    rec.Seq,
			Frame:  rec.Frame,
			Type:   rec.Type,
			RunID:  rec.RunID,
			Fields: fields,
		})
	}
	return timeline, nil
}

func outputJournalList(cmd *cobra.Command, format string, journals []store.JournalSummary) error {
	entries := make([]JournalEntry, len(journals))
	for i, j := range journals {
		entries[i] = JournalEntry{
			ID:            j.ID,
			StartScreen:   j.StartScreen,
			EngineVersion: j.EngineVersion,
			Frames:        j.Frames,
			Signals:       j.Signals,
			Runs:          j.Runs,
		}
	}
	if format == "json" {
		return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: entries})
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No journals found in database.")
		return nil
	}
	fmt.Fprintln(w, "=== Journals ===")
	for _, e := range entries {
		fmt.Fprintf(w, "  %s  start=%s frames=%d signals=%d runs=%d\n",
			e.ID, e.StartScreen, e.Frames, e.Signals, e.Runs)
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.RunID != "" {
		fmt.Fprintf(w, "Trace for Run: %s (journal %s)\n", result.RunID, result.JournalID)
	} else {
		fmt.Fprintf(w, "Trace for Journal: %s\n", result.JournalID)
	}
	fmt.Fprintf(w, "Status: %s\n", completeStatus(result.Stats.IsComplete))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no signals)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, verbose)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Runs ===")
	if len(result.Runs) == 0 {
		fmt.Fprintln(w, "  (no runs)")
	} else {
		for _, r := range result.Runs {
			outcome := "in flight"
			if r.Ended {
				outcome = r.Outcome
				if r.Reason != "" {
					outcome += " (" + r.Reason + ")"
				}
			}
			fmt.Fprintf(w, "  %s len=%d ticks=%d program=%s %s\n",
				r.ID, r.Length, r.Ticks, truncateID(r.ProgramHash), outcome)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Signals: %d\n", result.Stats.TotalSignals)
	fmt.Fprintf(w, "  Runs:          %d\n", result.Stats.Runs)
	fmt.Fprintf(w, "  Succeeded:     %d\n", result.Stats.Succeeded)
	fmt.Fprintf(w, "  Failed:        %d\n", result.Stats.Failed)
	fmt.Fprintf(w, "  Cancelled:     %d\n", result.Stats.Cancelled)

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event TraceEvent, verbose bool) {
	fields := event.Fields
	if !verbose {
		fields = make(map[string]any, len(event.Fields))
		for k, v := range event.Fields {
			if k != "at" && k != "program_hash" {
				fields[k] = v
			}
		}
	}
	fmt.Fprintf(w, "  [%d] %-18s %s\n", event.Seq, event.Type, formatArgs(fields))
	if verbose {
		fmt.Fprintf(w, "       frame=%d run=%s\n", event.Frame, event.RunID)
	}
}

// formatArgs formats a map of fields for display.
// Uses sorted keys to ensure deterministic output.
func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, formatValue(args[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// formatValue formats a single value for display, handling nested structures deterministically.
func formatValue(v any) string {
	switch val := v.(type) {
	case map[string]any:
		return formatArgs(val)
	case []any:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = formatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return val
	default:
		return fmt.Sprintf("%v", v)
	}
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

// completeStatus returns a human-readable completion status.
func completeStatus(isComplete bool) string {
	if isComplete {
		return "Complete"
	}
	return "Incomplete (run in flight)"
}

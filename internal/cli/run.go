package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tickbot/internal/engine"
	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config   string
	Database string
	Journal  string
	Pickup   int64
	Buy      string
	Program  string
	Frame    time.Duration
	Realtime bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// RunReport is the outcome of one headless run.
type RunReport struct {
	JournalID  string   `json:"journal_id,omitempty"`
	RunID      string   `json:"run_id,omitempty"`
	Outcome    string   `json:"outcome"`
	Reason     string   `json:"reason,omitempty"`
	Ticks      int      `json:"ticks"`
	Actor      string   `json:"actor"`
	Balance    int64    `json:"balance"`
	Elapsed    string   `json:"elapsed"`
	Rejections []string `json:"rejections,omitempty"`
	Signals    []string `json:"signals,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one run headlessly",
		Long: `Open a session, apply the buying-phase commands given by flags, start a
run and drive it to completion.

Commands are applied in this order: --pickup, each --buy index, each
--program instruction, then start_run. By default time is simulated in
fixed frames; --realtime drives the engine from a wall-clock ticker.
With --db the whole session is journaled and can be replayed later.

Exit codes:
  0 - The run completed successfully
  1 - The run failed or could not start
  2 - Command error (bad flags, config or database)

Examples:
  tickbot run --program MoveForward,MoveForward
  tickbot run --pickup 40 --buy 0 --program MoveForward,TurnLeft,MoveForward
  tickbot run --config ./session.yaml --db ./tickbot.db --program MoveForward`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "session config file (default: shipped config)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal the session to this SQLite database")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "journal id (default: generated)")
	cmd.Flags().Int64Var(&opts.Pickup, "pickup", 0, "currency to pick up before buying")
	cmd.Flags().StringVar(&opts.Buy, "buy", "", "comma-separated upgrade indices to purchase")
	cmd.Flags().StringVarP(&opts.Program, "program", "p", "", "comma-separated instructions")
	cmd.Flags().DurationVar(&opts.Frame, "frame", engine.DefaultFrame, "frame length")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "drive frames from the wall clock")

	return cmd
}

func runSession(opts *RunOptions, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	sc, err := loadSessionConfig(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	cmds, err := buyingCommands(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}

	runIDs := opts.RunIDs
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}

	var (
		report  RunReport
		signals []engine.Signal
		eng     *engine.Engine
	)
	observe := func(sig engine.Signal) {
		signals = append(signals, sig)
		if opts.Realtime && (endsRun(sig) || rejectsStart(sig)) {
			eng.Stop()
		}
	}
	eng, err = engine.New(sc,
		engine.WithStartScreen(engine.ScreenPlaying),
		engine.WithRunIDs(runIDs),
		engine.WithObserver(observe),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build engine", err)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	if opts.Database != "" {
		slog.Info("opening database", "path", opts.Database)
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		journal, err := engine.StartJournal(ctx, st, eng, opts.Journal)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start journal", err)
		}
		report.JournalID = journal.ID()
		defer func() {
			if closeErr := journal.Close(context.WithoutCancel(ctx)); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()
	}

	eng.Submit(cmds...)
	if opts.Realtime {
		err = eng.Run(ctx, opts.Frame)
	} else {
		err = driveSimulated(ctx, eng, engine.NewFrameClock(opts.Frame))
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	fillReport(&report, signals, eng.Snapshot(), opts.Verbose)
	if opts.Format == "json" {
		if err := encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: report, JournalID: report.JournalID}); err != nil {
			return err
		}
	} else {
		outputRunText(cmd, report)
	}

	switch report.Outcome {
	case engine.OutcomeSuccess.String():
		return nil
	case "":
		if report.RunID != "" {
			return NewExitError(ExitFailure, fmt.Sprintf("run %s interrupted", report.RunID))
		}
		return NewExitError(ExitFailure, "run did not start")
	default:
		return NewExitError(ExitFailure, fmt.Sprintf("run %s: %s", report.Outcome, report.Reason))
	}
}

// driveSimulated processes the queued commands in a zero-length frame,
// then feeds fixed frames until the run ends. The bomb bounds every run.
func driveSimulated(ctx context.Context, eng *engine.Engine, clock *engine.FrameClock) error {
	for _, d := range clock.Split(0) {
		eng.Frame(ctx, d)
	}
	for eng.Running() {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, d := range clock.Split(clock.Step()) {
			eng.Frame(ctx, d)
		}
	}
	return nil
}

// buyingCommands turns the run flags into engine commands.
func buyingCommands(opts *RunOptions) ([]engine.Command, error) {
	var cmds []engine.Command
	if opts.Pickup != 0 {
		cmds = append(cmds, engine.PickupCurrency(opts.Pickup))
	}
	if strings.TrimSpace(opts.Buy) != "" {
		for i, part := range strings.Split(opts.Buy, ",") {
			node, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("--buy[%d]: %q is not an upgrade index", i, part)
			}
			cmds = append(cmds, engine.Purchase(node))
		}
	}
	program, err := ir.ParseProgram(opts.Program)
	if err != nil {
		return nil, fmt.Errorf("--program: %w", err)
	}
	for _, inst := range program {
		cmds = append(cmds, engine.AddInstruction(inst))
	}
	return append(cmds, engine.StartRun()), nil
}

func endsRun(sig engine.Signal) bool {
	return sig.Type == engine.SignalRunCompleted || sig.Type == engine.SignalRunCancelled
}

// rejectsStart reports a refused start_run; no run will end after it.
func rejectsStart(sig engine.Signal) bool {
	return sig.Type == engine.SignalCommandRejected && sig.Command == engine.CommandStartRun
}

func fillReport(r *RunReport, signals []engine.Signal, final engine.Snapshot, verbose bool) {
	r.Balance = final.Balance
	r.Elapsed = final.Now.String()
	r.Actor = final.Actor.String()

	for _, sig := range signals {
		switch sig.Type {
		case engine.SignalRunStarted:
			r.RunID = sig.RunID
		case engine.SignalRunCompleted:
			r.Outcome = sig.Outcome.String()
			r.Reason = sig.Reason.String()
			r.Ticks = sig.Ticks
			r.Actor = sig.Actor.String()
		case engine.SignalRunCancelled:
			r.Outcome = "cancelled"
			r.Ticks = sig.Ticks
		case engine.SignalCommandRejected:
			r.Rejections = append(r.Rejections, fmt.Sprintf("%s: %s %s", sig.Command, sig.Code, sig.Message))
		}
		if verbose {
			r.Signals = append(r.Signals, sig.String())
		}
	}
}

func outputRunText(cmd *cobra.Command, r RunReport) {
	w := cmd.OutOrStdout()

	for _, line := range r.Signals {
		fmt.Fprintf(w, "  %s\n", line)
	}
	for _, rej := range r.Rejections {
		fmt.Fprintf(w, "rejected %s\n", rej)
	}
	switch {
	case r.Outcome == "" && r.RunID != "":
		fmt.Fprintf(w, "Run %s interrupted after %s.\n", r.RunID, r.Elapsed)
		return
	case r.Outcome == "":
		fmt.Fprintln(w, "Run did not start.")
		return
	}

	fmt.Fprintf(w, "Run %s: %s", r.RunID, r.Outcome)
	if r.Reason != "" {
		fmt.Fprintf(w, " (%s)", r.Reason)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ticks:   %d\n", r.Ticks)
	fmt.Fprintf(w, "  actor:   %s\n", r.Actor)
	fmt.Fprintf(w, "  balance: %d\n", r.Balance)
	fmt.Fprintf(w, "  elapsed: %s\n", r.Elapsed)
	if r.JournalID != "" {
		fmt.Fprintf(w, "  journal: %s\n", r.JournalID)
	}
}

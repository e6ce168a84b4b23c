package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/upgrade"
)

// Recorder receives every processed frame.
// Implemented by Journal; replay feeds the recorded frames back in.
type Recorder interface {
	RecordFrame(ctx context.Context, f FrameRecord) error
}

// FrameRecord is what one call to Frame did.
type FrameRecord struct {
	Number   int64
	Delta    time.Duration
	Commands []Command
	Signals  []Signal
}

// Engine is the single-writer frame loop of the game core.
//
// Each Frame first resolves the run in flight against the elapsed delta,
// then processes queued commands in FIFO order.
//
// Thread-safety model:
//   - Submit(): safe from any goroutine
//   - Frame(), Run(), Snapshot(): one goroutine only
//
// INVARIANTS:
//   - session != nil iff screen is Playing or Paused
//   - run != nil iff session.phase == PhaseRunning
//   - Signal seqs are strictly increasing
type Engine struct {
	cfg      SessionConfig
	clock    *Clock
	queue    *commandQueue
	runIDs   RunIDGenerator
	recorder Recorder
	observer func(Signal)

	start   Screen
	screen  Screen
	session *Session
	run     *run

	now   time.Duration
	frame int64
	out   []Signal
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunIDs sets the run ID generator. Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithRecorder journals every frame to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithObserver calls fn for every signal as it is emitted, on the frame
// goroutine. Used by hosts that drive the engine with Run.
func WithObserver(fn func(Signal)) Option {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithStartScreen sets the initial screen. Default: ScreenLoading.
// ScreenPlaying builds the session immediately, skipping the menu.
func WithStartScreen(s Screen) Option {
	return func(e *Engine) {
		e.start = s
	}
}

// New creates an engine for cfg.
// Returns an error if cfg is invalid; a topology problem is an *upgrade.ConfigError.
func New(cfg SessionConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}

	e := &Engine{
		cfg:    cfg,
		clock:  NewClock(),
		queue:  newCommandQueue(),
		runIDs: UUIDv7Generator{},
		start:  ScreenLoading,
	}
	for _, opt := range opts {
		opt(e)
	}

	switch e.start {
	case ScreenLoading, ScreenMenu:
	case ScreenPlaying:
		s, err := NewSession(cfg)
		if err != nil {
			return nil, fmt.Errorf("engine session: %w", err)
		}
		e.session = s
	default:
		return nil, fmt.Errorf("engine cannot start on the %s screen", e.start)
	}
	e.screen = e.start
	return e, nil
}

// Config returns the session configuration.
func (e *Engine) Config() SessionConfig {
	return e.cfg
}

// StartScreen returns the screen the engine was created on.
func (e *Engine) StartScreen() Screen {
	return e.start
}

// Screen returns the current screen.
func (e *Engine) Screen() Screen {
	return e.screen
}

// Session returns the current session, or nil outside Playing and Paused.
func (e *Engine) Session() *Session {
	return e.session
}

// Now returns the simulated engine time: the sum of all frame deltas.
func (e *Engine) Now() time.Duration {
	return e.now
}

// Running reports whether a run is in flight.
func (e *Engine) Running() bool {
	return e.run != nil
}

// Submit enqueues commands for the next frame.
// Thread-safe. Returns false once the engine is stopped.
func (e *Engine) Submit(cmds ...Command) bool {
	return e.queue.Enqueue(cmds...)
}

// Pending returns the number of queued commands.
func (e *Engine) Pending() int {
	return e.queue.Len()
}

// Stop rejects further commands and makes Run return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Frame advances the engine by delta and returns the signals produced.
//
// Order within a frame:
//  1. Run timers consume delta event by event in time order. The next
//     event is whichever of countdown expiry and next tick is due first;
//     on a tie the countdown wins. Nothing advances while paused.
//  2. Queued commands are processed in FIFO order.
//
// Because step 1 is time-ordered, splitting the same elapsed time into
// different frames yields the same run outcome.
func (e *Engine) Frame(ctx context.Context, delta time.Duration) []Signal {
	if delta < 0 {
		delta = 0
	}
	e.frame++
	e.out = nil

	e.advance(delta)

	cmds := e.queue.Drain()
	for _, cmd := range cmds {
		e.apply(cmd)
	}

	signals := e.out
	e.out = nil

	if e.recorder != nil {
		rec := FrameRecord{Number: e.frame, Delta: delta, Commands: cmds, Signals: signals}
		if err := e.recorder.RecordFrame(ctx, rec); err != nil {
			// Log and continue: the session outlives its journal.
			slog.Error("record frame failed", "frame", e.frame, "error", err)
		}
	}
	return signals
}

// Run drives Frame from a ticker until ctx is cancelled or Stop is called.
// Deltas are measured from the ticker's timestamps, so a slow frame is
// caught up by the next one.
func (e *Engine) Run(ctx context.Context, frameInterval time.Duration) error {
	if frameInterval <= 0 {
		return fmt.Errorf("frame interval must be positive, got %s", frameInterval)
	}
	slog.Info("engine starting", "frame_interval", frameInterval, "screen", e.screen.String())

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// Closed channel means Stop was called; otherwise the next
			// tick picks the commands up.
			if e.queue.Closed() {
				slog.Info("engine stopping: queue closed")
				e.Frame(ctx, time.Since(last))
				return nil
			}

		case now := <-ticker.C:
			e.Frame(ctx, now.Sub(last))
			last = now
		}
	}
}

// advance resolves run timers against delta.
func (e *Engine) advance(delta time.Duration) {
	remaining := delta
	for e.run != nil && e.screen == ScreenPlaying {
		r := e.run
		bombIn := r.countdown.Remaining()
		tickIn := r.ticks.Until(r.elapsed)
		step := min(bombIn, tickIn)
		if step > remaining {
			break
		}
		remaining -= step
		r.elapsed += step
		e.now += step

		// Countdown first: on a tie the bomb preempts the tick.
		if r.countdown.Advance(step) {
			e.finishRun(OutcomeFailure, ReasonBombExploded)
			break
		}
		r.ticks.Fire()
		e.tick()
	}
	if e.run != nil && e.screen == ScreenPlaying {
		e.run.elapsed += remaining
		e.run.countdown.Advance(remaining)
	}
	e.now += remaining
}

// tick consumes one tick of the run in flight.
func (e *Engine) tick() {
	r, s := e.run, e.session
	pc := r.interp.PC()
	inst, actor, done := r.interp.Step(s.Actor)
	if done {
		e.finishRun(OutcomeSuccess, ReasonProgramComplete)
		return
	}
	s.Actor = actor
	r.executed++
	slog.Debug("tick executed",
		"run", r.id,
		"pc", pc,
		"instruction", inst.String(),
		"actor", actor.String(),
	)
	e.emit(Signal{Type: SignalTickExecuted, RunID: r.id, PC: pc, Instruction: inst, Actor: actor})
}

func (e *Engine) finishRun(o Outcome, reason Reason) {
	r := e.run
	r.countdown.Stop()
	e.run = nil
	slog.Info("run completed",
		"run", r.id,
		"outcome", o.String(),
		"reason", reason.String(),
		"ticks", r.executed,
		"elapsed", r.elapsed,
	)
	e.emit(Signal{
		Type:    SignalRunCompleted,
		RunID:   r.id,
		Outcome: o,
		Reason:  reason,
		Ticks:   r.executed,
		PC:      r.interp.PC(),
		Actor:   e.session.Actor,
	})
	e.enterPhase(PhaseBuying)
}

func (e *Engine) cancelRun() {
	r := e.run
	r.countdown.Stop()
	e.run = nil
	slog.Info("run cancelled", "run", r.id, "ticks", r.executed, "elapsed", r.elapsed)
	e.emit(Signal{Type: SignalRunCancelled, RunID: r.id, Ticks: r.executed, PC: r.interp.PC()})
	e.enterPhase(PhaseBuying)
}

func (e *Engine) enterPhase(p Phase) {
	s := e.session
	s.phase = p
	s.controls = controlsFor(p)
	slog.Info("phase changed", "phase", p.String())
	e.emit(Signal{Type: SignalPhaseChanged, Phase: p})
}

func (e *Engine) emit(s Signal) {
	s.Seq = e.clock.Next()
	s.Frame = e.frame
	s.At = e.now
	e.out = append(e.out, s)
	if e.observer != nil {
		e.observer(s)
	}
}

// apply runs one command. Rejections stop here: they are logged, reported
// as a command_rejected signal and never returned.
func (e *Engine) apply(cmd Command) {
	slog.Debug("processing command", "command", cmd.String(), "frame", e.frame)

	err := e.dispatch(cmd)
	if err == nil {
		return
	}
	var re *ir.RejectedError
	if errors.As(err, &re) {
		slog.Warn("command rejected",
			"command", cmd.String(),
			"code", string(re.Code),
			"reason", re.Message,
		)
		e.emit(Signal{Type: SignalCommandRejected, Command: cmd.Type, Code: re.Code, Message: re.Message})
		return
	}
	slog.Error("command failed", "command", cmd.String(), "error", err)
}

func (e *Engine) dispatch(cmd Command) error {
	switch cmd.Type {
	case CommandFinishLoading, CommandEnterPlaying, CommandPause, CommandResume, CommandExitToMenu:
		return e.changeScreen(cmd)
	case CommandStartRun:
		return e.startRun()
	case CommandResetToBuying:
		return e.resetToBuying()
	case CommandPurchase:
		return e.purchase(cmd.Node)
	case CommandAddInstruction:
		return e.addInstruction(cmd.Instruction)
	case CommandRemoveInstruction:
		return e.removeInstruction(cmd.Index)
	case CommandPickupCurrency:
		return e.pickup(cmd.Amount)
	case CommandSetControl:
		return e.setControl(cmd.Control, cmd.Enabled)
	default:
		return ir.Reject(ir.ErrCodeUnknownCommand, cmd.Type.String(), "command type %d is not handled", int(cmd.Type))
	}
}

// playing returns the session for a gameplay command.
func (e *Engine) playing(cmd CommandType) (*Session, error) {
	switch e.screen {
	case ScreenPlaying:
		return e.session, nil
	case ScreenPaused:
		return nil, ir.Reject(ir.ErrCodePaused, cmd.String(), "game is paused")
	default:
		return nil, ir.Reject(ir.ErrCodeNoSession, cmd.String(), "no session on the %s screen", e.screen)
	}
}

func (e *Engine) changeScreen(cmd Command) error {
	to, ok := nextScreen(e.screen, cmd.Type)
	if !ok {
		return ir.Reject(ir.ErrCodeInvalidTransition, cmd.Type.String(),
			"%s is not allowed on the %s screen", cmd.Type, e.screen)
	}

	switch cmd.Type {
	case CommandEnterPlaying:
		s, err := NewSession(e.cfg)
		if err != nil {
			return fmt.Errorf("enter playing: %w", err)
		}
		e.session = s
	case CommandExitToMenu:
		if e.run != nil {
			e.cancelRun()
		}
		e.session = nil
	}

	from := e.screen
	e.screen = to
	slog.Info("screen changed", "from", from.String(), "to", to.String())
	e.emit(Signal{Type: SignalScreenChanged, Screen: to})
	return nil
}

func (e *Engine) startRun() error {
	s, err := e.playing(CommandStartRun)
	if err != nil {
		return err
	}
	if s.phase == PhaseRunning {
		return ir.Reject(ir.ErrCodeAlreadyRunning, "start_run", "run %s is in flight", e.run.id)
	}
	if !s.controls.Start {
		return ir.Reject(ir.ErrCodeControlInactive, "start_run", "start control is inactive")
	}

	r := newRun(e.runIDs.Generate(), s.Params, s.bomb, s.Program)
	e.run = r
	s.Actor = s.spawn
	e.enterPhase(PhaseRunning)

	slog.Info("run started",
		"run", r.id,
		"length", r.interp.Len(),
		"tick_period", r.ticks.Period(),
		"bomb", r.countdown.Remaining(),
		"program_hash", r.programHash,
	)
	e.emit(Signal{
		Type:         SignalRunStarted,
		RunID:        r.id,
		Length:       r.interp.Len(),
		TickInterval: r.ticks.Period(),
		Bomb:         r.countdown.Remaining(),
		ProgramHash:  r.programHash,
	})

	// Tick 0 fires synchronously.
	e.tick()
	return nil
}

func (e *Engine) resetToBuying() error {
	s, err := e.playing(CommandResetToBuying)
	if err != nil {
		return err
	}
	if s.phase == PhaseBuying {
		return ir.Reject(ir.ErrCodeNotRunning, "reset_to_buying", "no run in flight")
	}
	if !s.controls.Reset {
		return ir.Reject(ir.ErrCodeControlInactive, "reset_to_buying", "reset control is inactive")
	}
	e.cancelRun()
	return nil
}

func (e *Engine) purchase(node int) error {
	s, err := e.playing(CommandPurchase)
	if err != nil {
		return err
	}
	if s.phase != PhaseBuying {
		return ir.Reject(ir.ErrCodeShopClosed, "purchase", "upgrades can only be bought while buying").
			With("node", strconv.Itoa(node))
	}

	bought, revealed, err := s.Graph.Purchase(node, s.Wallet)
	if err != nil {
		return err
	}

	e.emit(Signal{Type: SignalUpgradePurchased, Node: bought.Index, Kind: bought.Kind})
	e.emit(Signal{Type: SignalWalletChanged, Balance: s.Wallet.Balance()})

	eff := upgrade.Apply(bought.Kind, upgrade.Target{
		Params:  &s.Params,
		Program: s.Program,
		Unlocks: s.Unlocks,
	})
	if eff.ParamsChanged {
		e.emit(Signal{
			Type:         SignalParamsChanged,
			TickInterval: s.Params.TickInterval,
			Multiplier:   s.Params.SpeedMultiplier,
		})
	}
	if eff.ProgramChanged {
		e.emit(Signal{Type: SignalProgramChanged, Length: s.Program.Len(), Capacity: s.Program.Capacity()})
	}
	if eff.UnlocksChanged {
		e.emit(Signal{Type: SignalUnlockSetChanged, Unlocked: s.Unlocks.All()})
	}
	if len(revealed) > 0 {
		e.emit(Signal{Type: SignalUpgradesRevealed, Nodes: revealed})
	}
	return nil
}

func (e *Engine) addInstruction(inst ir.Instruction) error {
	s, err := e.playing(CommandAddInstruction)
	if err != nil {
		return err
	}
	if s.phase == PhaseRunning {
		return ir.Reject(ir.ErrCodeProgramLocked, "add_instruction", "program cannot change during a run")
	}
	if !inst.Valid() || !s.Unlocks.Contains(inst) {
		return ir.Reject(ir.ErrCodeNotUnlocked, "add_instruction", "%s is not unlocked", inst)
	}
	if err := s.Program.Append(inst); err != nil {
		return err
	}
	slog.Debug("instruction added", "instruction", inst.String(), "program", s.Program.String())
	e.emit(Signal{Type: SignalProgramChanged, Length: s.Program.Len(), Capacity: s.Program.Capacity()})
	return nil
}

func (e *Engine) removeInstruction(index int) error {
	s, err := e.playing(CommandRemoveInstruction)
	if err != nil {
		return err
	}
	if s.phase == PhaseRunning {
		return ir.Reject(ir.ErrCodeProgramLocked, "remove_instruction", "program cannot change during a run")
	}
	removed, err := s.Program.Remove(index)
	if err != nil {
		return err
	}
	slog.Debug("instruction removed", "index", index, "instruction", removed.String(), "program", s.Program.String())
	e.emit(Signal{Type: SignalProgramChanged, Length: s.Program.Len(), Capacity: s.Program.Capacity()})
	return nil
}

func (e *Engine) pickup(amount int64) error {
	s, err := e.playing(CommandPickupCurrency)
	if err != nil {
		return err
	}
	if err := s.Wallet.Deposit(amount); err != nil {
		return err
	}
	slog.Debug("currency picked up", "amount", amount, "balance", s.Wallet.Balance())
	e.emit(Signal{Type: SignalWalletChanged, Balance: s.Wallet.Balance()})
	return nil
}

func (e *Engine) setControl(c Control, enabled bool) error {
	s, err := e.playing(CommandSetControl)
	if err != nil {
		return err
	}
	if c != ControlStart && c != ControlReset {
		return ir.Reject(ir.ErrCodeUnknownCommand, "set_control", "unknown control %d", int(c))
	}
	s.setControl(c, enabled)
	slog.Debug("control set", "control", c.String(), "enabled", enabled)
	return nil
}

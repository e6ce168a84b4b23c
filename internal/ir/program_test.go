package ir

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgram_AppendRespectsCapacity(t *testing.T) {
	p := NewProgram(1)

	require.NoError(t, p.Append(MoveForward))
	err := p.Append(MoveForward)

	require.Error(t, err)
	assert.Equal(t, ErrCodeProgramFull, RejectionCodeOf(err))
	assert.Equal(t, 1, p.Len(), "rejected append must not change the program")
}

func TestProgram_NewProgramMinimumCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewProgram(0).Capacity())
	assert.Equal(t, DefaultCapacity, NewProgram(-3).Capacity())
}

func TestProgram_Remove(t *testing.T) {
	p := NewProgram(4)
	require.NoError(t, p.Append(MoveForward))
	require.NoError(t, p.Append(IfGapTurnLeft))
	require.NoError(t, p.Append(MoveForward))

	removed, err := p.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, IfGapTurnLeft, removed)
	assert.Equal(t, []Instruction{MoveForward, MoveForward}, p.Instructions())

	_, err = p.Remove(2)
	assert.Equal(t, ErrCodeIndexOutOfRange, RejectionCodeOf(err))
	_, err = p.Remove(-1)
	assert.Equal(t, ErrCodeIndexOutOfRange, RejectionCodeOf(err))
}

func TestProgram_GrowNeverShrinks(t *testing.T) {
	p := NewProgram(1)

	p.Grow(2)
	assert.Equal(t, 2, p.Capacity())
	p.Grow(2)
	assert.Equal(t, 4, p.Capacity())

	p.Grow(0)
	p.Grow(1)
	p.Grow(-2)
	assert.Equal(t, 4, p.Capacity())
}

func TestProgram_GrowSaturates(t *testing.T) {
	p := NewProgram(1)

	for range 80 {
		before := p.Capacity()
		p.Grow(2)
		require.GreaterOrEqual(t, p.Capacity(), before)
	}
	assert.Equal(t, math.MaxInt, p.Capacity())

	p.Grow(2)
	assert.Equal(t, math.MaxInt, p.Capacity())
}

func TestProgram_InstructionsIsCopy(t *testing.T) {
	p := NewProgram(2)
	require.NoError(t, p.Append(MoveForward))

	seq := p.Instructions()
	seq[0] = IfGapTurnLeft

	assert.Equal(t, MoveForward, p.At(0))
}

func TestWallet_SpendExact(t *testing.T) {
	w := NewWallet(15)

	require.NoError(t, w.Spend(10))
	assert.Equal(t, int64(5), w.Balance())
}

func TestWallet_SpendRejectedNotClamped(t *testing.T) {
	w := NewWallet(5)

	err := w.Spend(10)

	assert.Equal(t, ErrCodeInsufficientFunds, RejectionCodeOf(err))
	assert.Equal(t, int64(5), w.Balance())
}

func TestWallet_Deposit(t *testing.T) {
	w := NewWallet(0)

	require.NoError(t, w.Deposit(7))
	assert.Equal(t, int64(7), w.Balance())

	assert.Equal(t, ErrCodeInvalidAmount, RejectionCodeOf(w.Deposit(0)))
	assert.Equal(t, ErrCodeInvalidAmount, RejectionCodeOf(w.Deposit(-1)))
	assert.Equal(t, int64(7), w.Balance())
}

func TestWallet_DepositOverflowRejected(t *testing.T) {
	w := NewWallet(0)

	require.NoError(t, w.Deposit(math.MaxInt64))
	assert.Equal(t, ErrCodeInvalidAmount, RejectionCodeOf(w.Deposit(10)))
	assert.Equal(t, int64(math.MaxInt64), w.Balance())

	w = NewWallet(math.MaxInt64 - 5)
	require.NoError(t, w.Deposit(5), "filling to the limit is allowed")
	assert.Equal(t, int64(math.MaxInt64), w.Balance())
}

func TestWallet_NegativeOpeningIsZero(t *testing.T) {
	assert.Equal(t, int64(0), NewWallet(-4).Balance())
}

func TestUnlockSet_Seeded(t *testing.T) {
	u := NewUnlockSet()

	assert.Equal(t, 1, u.Len())
	assert.Equal(t, []Instruction{MoveForward}, u.InCategory(Movement))
	assert.False(t, u.Contains(IfGapTurnLeft))
}

func TestUnlockSet_UnlockIsMonotonicAndIdempotent(t *testing.T) {
	u := NewUnlockSet()

	assert.True(t, u.UnlockAs(Scanning, IfGapTurnLeft))
	assert.False(t, u.UnlockAs(Scanning, IfGapTurnLeft), "second unlock is a no-op")

	assert.True(t, u.Contains(IfGapTurnLeft))
	assert.Equal(t, []Instruction{IfGapTurnLeft}, u.InCategory(Scanning))
	assert.Equal(t, []Instruction{MoveForward, IfGapTurnLeft}, u.All())
	assert.Equal(t, 2, u.Len())
}

func TestParams_TickPeriod(t *testing.T) {
	p := Params{TickInterval: 100 * time.Millisecond, SpeedMultiplier: 1.5}

	assert.Equal(t, 150*time.Millisecond, p.TickPeriod())
	assert.Equal(t, 300*time.Millisecond, p.Scale(200*time.Millisecond))

	slow := Params{TickInterval: time.Second, SpeedMultiplier: 1e10}
	assert.Equal(t, time.Duration(math.MaxInt64), slow.TickPeriod(), "overflow saturates instead of wrapping")
	assert.Equal(t, time.Duration(math.MaxInt64), slow.Scale(10*time.Second))

	slow.DoubleMultiplier()
	assert.Equal(t, time.Duration(math.MaxInt64), slow.TickPeriod())

	inf := Params{TickInterval: time.Second, SpeedMultiplier: math.Inf(1)}
	assert.Equal(t, time.Duration(math.MaxInt64), inf.TickPeriod())
}

func TestParams_Validate(t *testing.T) {
	assert.NoError(t, Params{TickInterval: time.Second, SpeedMultiplier: 1}.Validate())
	assert.Error(t, Params{TickInterval: 0, SpeedMultiplier: 1}.Validate())
	assert.Error(t, Params{TickInterval: time.Second, SpeedMultiplier: 0}.Validate())
	assert.Error(t, Params{TickInterval: time.Second, SpeedMultiplier: -1}.Validate())
}

func TestParams_Upgrades(t *testing.T) {
	p := Params{TickInterval: time.Second, SpeedMultiplier: 1}

	p.HalveTick()
	p.DoubleMultiplier()

	assert.Equal(t, 500*time.Millisecond, p.TickInterval)
	assert.Equal(t, 2.0, p.SpeedMultiplier)
	assert.NoError(t, p.Validate())
}

func TestRejectedError_Wrapped(t *testing.T) {
	base := Reject(ErrCodeNotUnlocked, "add_instruction", "instruction %s is locked", IfGapTurnLeft).
		With("instruction", "IfGapTurnLeft")
	wrapped := &wrapErr{base}

	assert.True(t, IsRejected(wrapped))
	assert.Equal(t, ErrCodeNotUnlocked, RejectionCodeOf(wrapped))
	assert.Equal(t, "IfGapTurnLeft", base.Details["instruction"])
	assert.Contains(t, base.Error(), "add_instruction rejected")
	assert.False(t, IsRejected(assert.AnError))
}

type wrapErr struct{ err error }

func (w *wrapErr) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrapErr) Unwrap() error { return w.err }

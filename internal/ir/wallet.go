package ir

import "math"

// Wallet holds the player's gear balance.
//
// The balance is never negative: Spend rejects instead of clamping.
type Wallet struct {
	balance int64
}

// NewWallet creates a wallet with an opening balance.
// Negative openings are treated as zero.
func NewWallet(balance int64) *Wallet {
	if balance < 0 {
		balance = 0
	}
	return &Wallet{balance: balance}
}

// Balance returns the current balance.
func (w *Wallet) Balance() int64 {
	return w.balance
}

// CanAfford reports whether cost fits in the balance.
func (w *Wallet) CanAfford(cost int64) bool {
	return w.balance >= cost
}

// Deposit adds a positive amount to the balance.
// A deposit that would overflow the balance is rejected as INVALID_AMOUNT.
func (w *Wallet) Deposit(amount int64) error {
	if amount <= 0 {
		return Reject(ErrCodeInvalidAmount, "pickup_currency",
			"amount must be positive, got %d", amount)
	}
	if amount > math.MaxInt64-w.balance {
		return Reject(ErrCodeInvalidAmount, "pickup_currency",
			"amount %d overflows balance %d", amount, w.balance)
	}
	w.balance += amount
	return nil
}

// Spend removes cost from the balance.
// Returns an INSUFFICIENT_FUNDS rejection and leaves the balance untouched
// if cost exceeds it.
func (w *Wallet) Spend(cost int64) error {
	if cost < 0 {
		return Reject(ErrCodeInvalidAmount, "purchase", "cost must not be negative, got %d", cost)
	}
	if w.balance < cost {
		return Reject(ErrCodeInsufficientFunds, "purchase",
			"balance %d is below cost %d", w.balance, cost)
	}
	w.balance -= cost
	return nil
}

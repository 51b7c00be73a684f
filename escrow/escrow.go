// Package escrow keeps a player's chips: what is free to use and what is
// locked as the stake of a running hand.
package escrow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Account balances. Balance counts every chip the player owns, locked or not.
type Account struct {
	Balance uint64 `json:"balance"`
	Locked  uint64 `json:"locked"`
}

func (a Account) Available() uint64 {
	return a.Balance - a.Locked
}

func (a *Account) Deposit(amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: deposit of zero", ErrInvalidAmount)
	}
	a.Balance += amount
	return nil
}

func (a *Account) Withdraw(amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: withdrawal of zero", ErrInvalidAmount)
	}
	if amount > a.Available() {
		return fmt.Errorf("%w: withdraw %d, available %d", ErrInsufficientBalance, amount, a.Available())
	}
	a.Balance -= amount
	return nil
}

// Lock reserves amount as the stake for a hand.
func (a *Account) Lock(amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: lock of zero", ErrInvalidAmount)
	}
	if amount > a.Available() {
		return fmt.Errorf("%w: lock %d, available %d", ErrInsufficientBalance, amount, a.Available())
	}
	a.Locked += amount
	return nil
}

// Refund releases a locked stake untouched.
func (a *Account) Refund(amount uint64) error {
	if amount > a.Locked {
		return fmt.Errorf("%w: refund %d, locked %d", ErrInvalidAmount, amount, a.Locked)
	}
	a.Locked -= amount
	return nil
}

// Settle ends a hand: the locked stake is gone and the payout is credited.
func (a *Account) Settle(stake, payout uint64) error {
	if stake > a.Locked {
		return fmt.Errorf("%w: settle %d, locked %d", ErrInvalidAmount, stake, a.Locked)
	}
	a.Locked -= stake
	a.Balance = a.Balance - stake + payout
	return nil
}

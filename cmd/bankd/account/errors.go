package account

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrInvalidAmount  = errors.New("amount must be a non-negative integer")
	ErrNotOwner       = errors.New("account is owned by a different client")
	ErrNonZeroBalance = errors.New("account balance is not zero")
)

// FundsError carries the balance at the time of the rejected withdrawal.
type FundsError struct {
	Balance Amount
}

func (fe *FundsError) Error() string {
	return fmt.Sprintf("insufficient funds, balance: %s", fe.Balance)
}

package command

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
	"github.com/Stevekk11/tcp-bank/cmd/bankd/proxy"
)

// ErrPrefix marks every failure reply; clients treat any line starting
// with it as an error regardless of the message.
const ErrPrefix = "ER "

var (
	errBadFormat          = errors.New("invalid command format")
	errUnknownCommand     = errors.New("unknown command")
	errNetworkUnavailable = errors.New("network is unavailable, command rejected")
)

// errorReply folds every failure into a single ER line; an error nobody
// anticipated is logged and reported generically.
func errorReply(err error) string {
	var fe *account.FundsError

	switch {
	case errors.As(err, &fe):
		return ErrPrefix + fe.Error()
	case errors.Is(err, errBadFormat), errors.Is(err, account.ErrInvalidAmount):
		return ErrPrefix + "invalid command format"
	case errors.Is(err, errUnknownCommand):
		return ErrPrefix + "unknown command"
	case errors.Is(err, errNetworkUnavailable):
		return ErrPrefix + "network is unavailable, command rejected"
	case errors.Is(err, account.ErrNotFound):
		return ErrPrefix + "account not found"
	case errors.Is(err, account.ErrNotOwner):
		return ErrPrefix + "account is owned by a different client"
	case errors.Is(err, account.ErrNonZeroBalance):
		return ErrPrefix + "account balance is not zero"
	case errors.Is(err, proxy.ErrTimeout):
		return ErrPrefix + "remote bank did not reply in time"
	case errors.Is(err, proxy.ErrConnect):
		return ErrPrefix + "unable to reach remote bank"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrPrefix + "command timed out"
	}

	log.WithError(err).Error("command failed unexpectedly")
	return ErrPrefix + "internal error"
}

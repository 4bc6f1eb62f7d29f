// Package command maps protocol lines onto bank operations. Every verb
// lives in a fixed table; an entry is either a purely local operation, an
// operation that may be proxied to the bank named in its first argument,
// or a meta operation touching no account state.
package command

import (
	"context"
	"fmt"
	"time"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
)

// Store is the slice of the account store the dispatcher needs.
type Store interface {
	Create(ctx context.Context, owner string) (account.Account, error)
	Deposit(ctx context.Context, number int, amount account.Amount) (account.Amount, error)
	Withdraw(ctx context.Context, number int, amount account.Amount) (account.Amount, error)
	Balance(ctx context.Context, number int) (account.Amount, error)
	Remove(ctx context.Context, number int, requester string) error
	TotalBalance(ctx context.Context) (account.Amount, error)
	OwnerCount(ctx context.Context) (int, error)
}

// Forwarder relays one original command line to a remote bank.
type Forwarder interface {
	Forward(ctx context.Context, bankCode, line string) (string, error)
}

// EventSink receives successful mutating commands, typically an MQ
// publisher.
type EventSink interface {
	Publish(verb string, number int, amount string)
}

type Config struct {
	BankCode  string
	Timeout   time.Duration
	Store     Store
	Forwarder Forwarder
	Events    EventSink
	Online    func() bool
}

type opKind int

const (
	opLocal opKind = iota
	opProxied
	opMeta
)

type operation struct {
	kind  opKind
	args  int
	close bool
	run   func(ctx context.Context, d *Dispatcher, req Request) (string, error)
}

// Request is one parsed command line, scoped to a single dispatch.
type Request struct {
	Verb string
	Args []string
	Line string
	Peer string
}

type Dispatcher struct {
	bankCode string
	timeout  time.Duration
	store    Store
	forward  Forwarder
	events   EventSink
	online   func() bool
	table    map[string]operation
}

func NewDispatcher(cfg Config) *Dispatcher {
	d := &Dispatcher{
		bankCode: cfg.BankCode,
		timeout:  cfg.Timeout,
		store:    cfg.Store,
		forward:  cfg.Forwarder,
		events:   cfg.Events,
		online:   cfg.Online,
	}

	d.table = map[string]operation{
		"BC":   {kind: opMeta, run: runBankCode},
		"AC":   {kind: opLocal, run: runCreate},
		"AD":   {kind: opProxied, args: 2, run: runDeposit},
		"AW":   {kind: opProxied, args: 2, run: runWithdraw},
		"AB":   {kind: opProxied, args: 1, run: runBalance},
		"AR":   {kind: opLocal, args: 1, run: runRemove},
		"BA":   {kind: opLocal, run: runTotalBalance},
		"BN":   {kind: opLocal, run: runOwnerCount},
		"exit": {kind: opMeta, close: true, run: runExit},
	}

	return d
}

// Dispatch handles one line from peer and returns the reply plus whether
// the session should close after writing it. An empty line yields an empty
// reply and no response is written. Every failure comes back as an ER line;
// nothing escapes as an error.
func (d *Dispatcher) Dispatch(line, peer string) (string, bool) {
	fields := splitFields(line)
	if len(fields) == 0 {
		return "", false
	}

	// the availability gate precedes verb lookup, every verb included
	if d.online != nil && !d.online() {
		return errorReply(errNetworkUnavailable), false
	}

	op, ok := d.table[fields[0]]
	if !ok {
		return errorReply(errUnknownCommand), false
	}

	req := Request{
		Verb: fields[0],
		Args: fields[1:],
		Line: line,
		Peer: peer,
	}
	if len(req.Args) < op.args {
		return errorReply(errBadFormat), false
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	reply, err := d.execute(ctx, op, req)
	if err != nil {
		return errorReply(err), false
	}

	return reply, op.close
}

// execute decides local vs. remote for proxied verbs. A bank code equal to
// the local one always executes locally, even when the account is unknown
// here; anything else gets the client's original line re-sent verbatim and
// the remote reply relayed unchanged.
func (d *Dispatcher) execute(ctx context.Context, op operation, req Request) (string, error) {
	if op.kind == opProxied {
		target, err := parseTarget(req.Args[0])
		if err != nil {
			return "", err
		}
		if target.BankCode != d.bankCode {
			return d.forward.Forward(ctx, target.BankCode, req.Line)
		}
	}

	return op.run(ctx, d, req)
}

func (d *Dispatcher) publish(verb string, number int, amount string) {
	if d.events != nil {
		d.events.Publish(verb, number, amount)
	}
}

func runBankCode(_ context.Context, d *Dispatcher, _ Request) (string, error) {
	return "BC " + d.bankCode, nil
}

func runCreate(ctx context.Context, d *Dispatcher, req Request) (string, error) {
	acc, err := d.store.Create(ctx, req.Peer)
	if err != nil {
		return "", err
	}

	d.publish(req.Verb, acc.Number, "")
	return fmt.Sprintf("AC %d/%s", acc.Number, d.bankCode), nil
}

func runDeposit(ctx context.Context, d *Dispatcher, req Request) (string, error) {
	target, err := parseTarget(req.Args[0])
	if err != nil {
		return "", err
	}
	amount, err := account.ParseAmount(req.Args[1])
	if err != nil {
		return "", err
	}

	if _, err := d.store.Deposit(ctx, target.Number, amount); err != nil {
		return "", err
	}

	d.publish(req.Verb, target.Number, amount.String())
	return "AD", nil
}

func runWithdraw(ctx context.Context, d *Dispatcher, req Request) (string, error) {
	target, err := parseTarget(req.Args[0])
	if err != nil {
		return "", err
	}
	amount, err := account.ParseAmount(req.Args[1])
	if err != nil {
		return "", err
	}

	if _, err := d.store.Withdraw(ctx, target.Number, amount); err != nil {
		return "", err
	}

	d.publish(req.Verb, target.Number, amount.String())
	return "AW", nil
}

func runBalance(ctx context.Context, d *Dispatcher, req Request) (string, error) {
	target, err := parseTarget(req.Args[0])
	if err != nil {
		return "", err
	}

	balance, err := d.store.Balance(ctx, target.Number)
	if err != nil {
		return "", err
	}

	return "AB " + balance.String(), nil
}

// runRemove is never proxied; ownership is checked against the requesting
// connection's address.
func runRemove(ctx context.Context, d *Dispatcher, req Request) (string, error) {
	target, err := parseTarget(req.Args[0])
	if err != nil {
		return "", err
	}

	if err := d.store.Remove(ctx, target.Number, req.Peer); err != nil {
		return "", err
	}

	d.publish(req.Verb, target.Number, "")
	return "AR", nil
}

func runTotalBalance(ctx context.Context, d *Dispatcher, _ Request) (string, error) {
	total, err := d.store.TotalBalance(ctx)
	if err != nil {
		return "", err
	}

	return "BA " + total.String(), nil
}

func runOwnerCount(ctx context.Context, d *Dispatcher, _ Request) (string, error) {
	count, err := d.store.OwnerCount(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("BN %d", count), nil
}

func runExit(_ context.Context, _ *Dispatcher, _ Request) (string, error) {
	return "OK Goodbye", nil
}

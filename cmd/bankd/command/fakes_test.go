package command

import (
	"context"
	"sync"

	"github.com/Stevekk11/tcp-bank/cmd/bankd/account"
)

// fakeStore is an in-memory stand-in for the SQL-backed store, sharing its
// error contract.
type fakeStore struct {
	mu       sync.Mutex
	next     int
	accounts map[int]*fakeAccount
}

type fakeAccount struct {
	owner   string
	balance account.Amount
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		next:     41234,
		accounts: make(map[int]*fakeAccount),
	}
}

func (f *fakeStore) Create(_ context.Context, owner string) (account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	number := f.next
	f.next++
	f.accounts[number] = &fakeAccount{owner: owner, balance: account.NewAmount(0)}

	return account.Account{Number: number, Owner: owner, Balance: account.NewAmount(0)}, nil
}

func (f *fakeStore) Deposit(_ context.Context, number int, amount account.Amount) (account.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[number]
	if !ok {
		return account.Amount{}, account.ErrNotFound
	}

	acc.balance = acc.balance.Add(amount)
	return acc.balance, nil
}

func (f *fakeStore) Withdraw(_ context.Context, number int, amount account.Amount) (account.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[number]
	if !ok {
		return account.Amount{}, account.ErrNotFound
	}
	if acc.balance.Cmp(amount) < 0 {
		return account.Amount{}, &account.FundsError{Balance: acc.balance}
	}

	acc.balance = acc.balance.Sub(amount)
	return acc.balance, nil
}

func (f *fakeStore) Balance(_ context.Context, number int) (account.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[number]
	if !ok {
		return account.Amount{}, account.ErrNotFound
	}
	return acc.balance, nil
}

func (f *fakeStore) Remove(_ context.Context, number int, requester string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.accounts[number]
	if !ok {
		return account.ErrNotFound
	}
	if acc.owner != requester {
		return account.ErrNotOwner
	}
	if !acc.balance.IsZero() {
		return account.ErrNonZeroBalance
	}

	delete(f.accounts, number)
	return nil
}

func (f *fakeStore) TotalBalance(_ context.Context) (account.Amount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := account.NewAmount(0)
	for _, acc := range f.accounts {
		total = total.Add(acc.balance)
	}
	return total, nil
}

func (f *fakeStore) OwnerCount(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	owners := make(map[string]struct{})
	for _, acc := range f.accounts {
		owners[acc.owner] = struct{}{}
	}
	return len(owners), nil
}

// stallingStore blocks every balance read until the command deadline wins.
type stallingStore struct {
	*fakeStore
}

func (s *stallingStore) Balance(ctx context.Context, _ int) (account.Amount, error) {
	<-ctx.Done()
	return account.Amount{}, ctx.Err()
}

type fakeForwarder struct {
	mu           sync.Mutex
	reply        string
	err          error
	calls        int
	lastBankCode string
	lastLine     string
}

func (f *fakeForwarder) Forward(_ context.Context, bankCode, line string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	f.lastBankCode = bankCode
	f.lastLine = line

	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type recordingSink struct {
	mu    sync.Mutex
	verbs []string
}

func (r *recordingSink) Publish(verb string, _ int, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verbs = append(r.verbs, verb)
}

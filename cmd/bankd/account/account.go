// Package account is the durable account store: one record per account
// number with the owning client address and an exact balance. Mutations on
// the same account serialize on a per-number lock; different accounts do
// not contend.
package account

import (
	"context"
	"database/sql"
	"math/rand"
	"strconv"
	"sync"
	"time"

	rediscache "github.com/go-redis/cache/v8"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/Stevekk11/tcp-bank/internal/cache"
	"github.com/Stevekk11/tcp-bank/internal/db"
)

// MinNumber and MaxNumber bound the 5-digit account number keyspace. The
// command grammar and the number generator both derive from them.
const (
	MinNumber = 10000
	MaxNumber = 99999
)

type Account struct {
	Number     int       `json:"number" db:"number"`
	Owner      string    `json:"owner" db:"owner"`
	Balance    Amount    `json:"balance" db:"balance"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	ModifiedAt time.Time `json:"modifiedAt" db:"modified_at"`
}

type Store struct {
	db    *sqlx.DB
	cache *cache.Redis

	mu    sync.Mutex
	locks map[int]*sync.Mutex
	rnd   *rand.Rand
}

// NewStore wraps the database connection; the redis cache is optional and
// only accelerates balance reads.
func NewStore(dbc *sqlx.DB, c *cache.Redis) *Store {
	return &Store{
		db:    dbc,
		cache: c,
		locks: make(map[int]*sync.Mutex),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create inserts a fresh account with balance 0 owned by the requesting
// client. Numbers are drawn at random from the 5-digit keyspace; a
// collision with an existing row surfaces as a unique-constraint violation
// and another number is drawn. The keyspace is far larger than any
// plausible account count, so the loop terminates quickly.
func (s *Store) Create(ctx context.Context, owner string) (Account, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Account{}, err
		}

		now := time.Now().UTC()
		acc := Account{
			Number:     s.randomNumber(),
			Owner:      owner,
			Balance:    NewAmount(0),
			CreatedAt:  now,
			ModifiedAt: now,
		}

		_, err := s.db.ExecContext(ctx, insert, acc.Number, acc.Owner, acc.Balance, acc.CreatedAt, acc.ModifiedAt)
		if err != nil {
			if pgErr, ok := errors.Cause(err).(*pq.Error); ok && string(pgErr.Code) == db.PSQLErrUniqueConstraint {
				log.Infof("account number %d is taken, generating another", acc.Number)
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Account{}, ctxErr
			}
			return Account{}, errors.Wrap(err, "insert new account row")
		}

		return acc, nil
	}
}

// Deposit adds amount to the account balance and persists it before
// returning the new balance.
func (s *Store) Deposit(ctx context.Context, number int, amount Amount) (Amount, error) {
	if amount.Negative() {
		return Amount{}, ErrInvalidAmount
	}

	l := s.lock(number)
	l.Lock()
	defer l.Unlock()

	acc, err := s.byNumber(ctx, number)
	if err != nil {
		return Amount{}, err
	}

	newBalance := acc.Balance.Add(amount)
	if err := s.writeBalance(ctx, number, newBalance); err != nil {
		return Amount{}, err
	}

	return newBalance, nil
}

// Withdraw subtracts amount from the account balance; a balance smaller
// than the amount leaves the row untouched and reports the funds error.
func (s *Store) Withdraw(ctx context.Context, number int, amount Amount) (Amount, error) {
	if amount.Negative() {
		return Amount{}, ErrInvalidAmount
	}

	l := s.lock(number)
	l.Lock()
	defer l.Unlock()

	acc, err := s.byNumber(ctx, number)
	if err != nil {
		return Amount{}, err
	}

	if acc.Balance.Cmp(amount) < 0 {
		return Amount{}, &FundsError{Balance: acc.Balance}
	}

	newBalance := acc.Balance.Sub(amount)
	if err := s.writeBalance(ctx, number, newBalance); err != nil {
		return Amount{}, err
	}

	return newBalance, nil
}

// Balance reads the current balance, through the cache when one is
// configured. It holds the account lock so a cache fill cannot land after
// the invalidation of a concurrent mutation and pin a stale value.
func (s *Store) Balance(ctx context.Context, number int) (Amount, error) {
	l := s.lock(number)
	l.Lock()
	defer l.Unlock()

	if s.cache != nil {
		var cached string
		if err := s.cache.Balances.Get(ctx, balanceKey(number), &cached); err == nil {
			if amt, perr := ParseAmount(cached); perr == nil {
				return amt, nil
			}
		}
	}

	acc, err := s.byNumber(ctx, number)
	if err != nil {
		return Amount{}, err
	}

	if s.cache != nil {
		if err := s.cache.Balances.Set(&rediscache.Item{
			Ctx:   ctx,
			Key:   balanceKey(number),
			Value: acc.Balance.String(),
			TTL:   s.cache.TTL,
		}); err != nil {
			log.Warnf("failed to cache balance for account %d: %v", number, err)
		}
	}

	return acc.Balance, nil
}

// Remove deletes the account, but only for its recorded owner and only at
// balance zero.
func (s *Store) Remove(ctx context.Context, number int, requester string) error {
	l := s.lock(number)
	l.Lock()
	defer l.Unlock()

	acc, err := s.byNumber(ctx, number)
	if err != nil {
		return err
	}

	if acc.Owner != requester {
		return ErrNotOwner
	}
	if !acc.Balance.IsZero() {
		return ErrNonZeroBalance
	}

	if _, err := s.db.ExecContext(ctx, deleteByNumber, number); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrap(err, "delete account row")
	}

	s.invalidate(ctx, number)
	s.dropLock(number)
	return nil
}

// TotalBalance sums every existing balance.
func (s *Store) TotalBalance(ctx context.Context) (Amount, error) {
	var total Amount
	if err := s.db.GetContext(ctx, &total, sumBalances); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Amount{}, ctxErr
		}
		return Amount{}, errors.Wrap(err, "sum account balances")
	}
	return total, nil
}

// OwnerCount counts distinct owning clients; an owner with several
// accounts counts once.
func (s *Store) OwnerCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, countOwners); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, errors.Wrap(err, "count account owners")
	}
	return count, nil
}

func (s *Store) byNumber(ctx context.Context, number int) (Account, error) {
	var acc Account

	pStmt, err := s.db.PreparexContext(ctx, selectByNumber)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Account{}, ctxErr
		}
		return Account{}, errors.Wrap(err, "prepare select account query")
	}

	defer func() {
		if err := pStmt.Close(); err != nil {
			log.WithError(errors.Wrap(err, "close psql statement")).Info("select account")
		}
	}()

	row := pStmt.QueryRowxContext(ctx, number)

	if err := row.StructScan(&acc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Account{}, ctxErr
		}
		return Account{}, errors.Wrap(err, "select account row")
	}

	return acc, nil
}

// writeBalance persists the new balance; a cancelled context means the
// mutation must not land, so the context error wins over the driver error.
func (s *Store) writeBalance(ctx context.Context, number int, balance Amount) error {
	if _, err := s.db.ExecContext(ctx, updateBalance, balance, time.Now().UTC(), number); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errors.Wrap(err, "update account balance")
	}

	s.invalidate(ctx, number)
	return nil
}

func (s *Store) invalidate(ctx context.Context, number int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Balances.Delete(ctx, balanceKey(number)); err != nil && !errors.Is(err, rediscache.ErrCacheMiss) {
		log.Warnf("failed to invalidate cached balance for account %d: %v", number, err)
	}
}

func (s *Store) lock(number int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[number]
	if !ok {
		l = &sync.Mutex{}
		s.locks[number] = l
	}
	return l
}

// dropLock forgets the per-account mutex once the account is gone, so the
// lock table does not grow with every account ever created.
func (s *Store) dropLock(number int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, number)
}

func (s *Store) randomNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MinNumber + s.rnd.Intn(MaxNumber-MinNumber+1)
}

func balanceKey(number int) string {
	return "balance:" + strconv.Itoa(number)
}

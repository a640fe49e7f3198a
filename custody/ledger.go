package custody

import (
	"context"
	"fmt"
	"math/bits"
	"sync"

	"github.com/bitfsorg/vesting-go/schedule"
)

// tokenAccount is one balance and the identity allowed to debit it.
type tokenAccount struct {
	owner   schedule.Identity
	balance uint64
}

// authoritySeeds records how a key-less authority was derived.
type authoritySeeds struct {
	owner     schedule.Identity
	tag       string
	namespace schedule.Identity
	bump      byte
}

// MemLedger is an in-memory single-asset token ledger. Transfers are
// all-or-nothing: every check runs before any balance changes.
// It is safe for concurrent use.
type MemLedger struct {
	mu          sync.Mutex
	accounts    map[schedule.Identity]*tokenAccount
	authorities map[schedule.Identity]authoritySeeds
	deriver     *Deriver
	history     []schedule.TransferRequest
	settled     map[string]schedule.TransferRequest // by Key
}

// Compile-time interface check.
var _ schedule.TransferService = (*MemLedger)(nil)

// NewMemLedger creates an empty ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		accounts:    make(map[schedule.Identity]*tokenAccount),
		authorities: make(map[schedule.Identity]authoritySeeds),
		deriver:     NewDeriver(),
		settled:     make(map[string]schedule.TransferRequest),
	}
}

// OpenAccount creates an empty token account controlled by owner.
func (l *MemLedger) OpenAccount(id, owner schedule.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[id]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, id)
	}
	l.accounts[id] = &tokenAccount{owner: owner}
	return nil
}

// SetOwner hands control of an account from current to next.
func (l *MemLedger) SetOwner(id, current, next schedule.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	if acct.owner != current {
		return fmt.Errorf("%w: %s is not the owner of %s", ErrUnauthorized, current, id)
	}
	acct.owner = next
	return nil
}

// Mint credits amount new tokens to an existing account.
func (l *MemLedger) Mint(id schedule.Identity, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	sum, carry := bits.Add64(acct.balance, amount, 0)
	if carry != 0 {
		return ErrBalanceOverflow
	}
	acct.balance = sum
	return nil
}

// Balance returns the balance of an account.
func (l *MemLedger) Balance(id schedule.Identity) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[id]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	return acct.balance, nil
}

// RegisterAuthority derives the key-less authority of owner under tag and
// namespace and remembers its seeds, so transfers signed by it can be verified.
func (l *MemLedger) RegisterAuthority(owner schedule.Identity, tag string, namespace schedule.Identity) (schedule.Identity, byte, error) {
	id, bump, err := l.deriver.Derive(owner, tag, namespace)
	if err != nil {
		return schedule.Identity{}, 0, err
	}

	l.mu.Lock()
	l.authorities[id] = authoritySeeds{owner: owner, tag: tag, namespace: namespace, bump: bump}
	l.mu.Unlock()
	return id, bump, nil
}

// Transfer moves req.Amount from req.From to req.To. The authority must own
// the source account; a registered derived authority must also present its
// bump. The destination is opened on first credit, owned by req.To.
// A replay of an already executed Key succeeds without moving funds.
func (l *MemLedger) Transfer(ctx context.Context, req schedule.TransferRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Amount == 0 {
		return ErrZeroAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if req.Key != "" {
		if prev, done := l.settled[req.Key]; done {
			if prev != req {
				return fmt.Errorf("%w: %s", ErrKeyConflict, req.Key)
			}
			return nil
		}
	}

	from, ok := l.accounts[req.From]
	if !ok {
		return fmt.Errorf("%w: source %s", ErrUnknownAccount, req.From)
	}
	if from.owner != req.Authority {
		return fmt.Errorf("%w: %s does not own %s", ErrUnauthorized, req.Authority, req.From)
	}
	if seeds, derived := l.authorities[req.Authority]; derived {
		if err := l.verifySeeds(req.Authority, seeds, req.AuthoritySeed); err != nil {
			return err
		}
	}
	if from.balance < req.Amount {
		return fmt.Errorf("%w: balance %d, amount %d", ErrInsufficientFunds, from.balance, req.Amount)
	}

	to, ok := l.accounts[req.To]
	var credited uint64
	if ok {
		sum, carry := bits.Add64(to.balance, req.Amount, 0)
		if carry != 0 {
			return ErrBalanceOverflow
		}
		credited = sum
	} else {
		to = &tokenAccount{owner: req.To}
		credited = req.Amount
	}

	if req.From != req.To {
		from.balance -= req.Amount
		to.balance = credited
		l.accounts[req.To] = to
	}
	if req.Key != "" {
		l.settled[req.Key] = req
	}
	l.history = append(l.history, req)
	return nil
}

// verifySeeds re-derives the authority with the presented bump.
func (l *MemLedger) verifySeeds(authority schedule.Identity, seeds authoritySeeds, bump byte) error {
	if bump != seeds.bump {
		return fmt.Errorf("%w: bad seed %d for %s", ErrUnauthorized, bump, authority)
	}
	id, err := CreateDerived(seeds.owner, seeds.tag, seeds.namespace, bump)
	if err != nil || id != authority {
		return fmt.Errorf("%w: seeds do not derive %s", ErrUnauthorized, authority)
	}
	return nil
}

// History returns every successful transfer in order.
func (l *MemLedger) History() []schedule.TransferRequest {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]schedule.TransferRequest, len(l.history))
	copy(out, l.history)
	return out
}

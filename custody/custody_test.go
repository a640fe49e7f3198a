package custody

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/vesting-go/schedule"
)

func makeID(seed byte) schedule.Identity {
	var id schedule.Identity
	for i := range id {
		id[i] = seed
	}
	return id
}

// ---------------------------------------------------------------------------
// Deriver tests
// ---------------------------------------------------------------------------

func TestDerive_Deterministic(t *testing.T) {
	d := NewDeriver()
	a, bumpA, err := d.Derive(makeID(0x01), schedule.CustodyTag, makeID(0x99))
	require.NoError(t, err)
	b, bumpB, err := d.Derive(makeID(0x01), schedule.CustodyTag, makeID(0x99))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)
	assert.False(t, IsOnCurve(a))
}

func TestDerive_InputsChangeAddress(t *testing.T) {
	d := NewDeriver()
	base, _, err := d.Derive(makeID(0x01), "vault", makeID(0x99))
	require.NoError(t, err)

	otherOwner, _, err := d.Derive(makeID(0x02), "vault", makeID(0x99))
	require.NoError(t, err)
	otherTag, _, err := d.Derive(makeID(0x01), "vault2", makeID(0x99))
	require.NoError(t, err)
	otherNS, _, err := d.Derive(makeID(0x01), "vault", makeID(0x98))
	require.NoError(t, err)

	assert.NotEqual(t, base, otherOwner)
	assert.NotEqual(t, base, otherTag)
	assert.NotEqual(t, base, otherNS)
}

func TestDerive_PicksHighestOffCurveBump(t *testing.T) {
	owner, ns := makeID(0x11), makeID(0x22)
	id, bump, err := NewDeriver().Derive(owner, "tag", ns)
	require.NoError(t, err)

	again, err := CreateDerived(owner, "tag", ns, bump)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	for b := 255; b > int(bump); b-- {
		_, err := CreateDerived(owner, "tag", ns, byte(b))
		assert.ErrorIs(t, err, ErrOnCurve, "bump %d", b)
	}
}

func TestDerive_TagTooLong(t *testing.T) {
	_, _, err := NewDeriver().Derive(makeID(1), strings.Repeat("x", MaxTagLen+1), makeID(2))
	assert.ErrorIs(t, err, ErrTagTooLong)
}

func TestIsOnCurve_Generator(t *testing.T) {
	// x-coordinate of the secp256k1 generator point.
	g, err := schedule.ParseIdentity("79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798")
	require.NoError(t, err)
	assert.True(t, IsOnCurve(g))
}

// ---------------------------------------------------------------------------
// MemLedger tests
// ---------------------------------------------------------------------------

func fundedLedger(t *testing.T, amount uint64) (*MemLedger, schedule.Identity) {
	t.Helper()
	l := NewMemLedger()
	owner := makeID(0xA0)
	custody := makeID(0xC0)
	require.NoError(t, l.OpenAccount(custody, owner))
	require.NoError(t, l.Mint(custody, amount))
	return l, custody
}

func TestMemLedger_MintAndBalance(t *testing.T) {
	l, custody := fundedLedger(t, 1_000)
	bal, err := l.Balance(custody)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), bal)

	assert.ErrorIs(t, l.Mint(custody, 0), ErrZeroAmount)
	assert.ErrorIs(t, l.Mint(makeID(0xEE), 5), ErrUnknownAccount)
	assert.ErrorIs(t, l.Mint(custody, math.MaxUint64), ErrBalanceOverflow)
	assert.ErrorIs(t, l.OpenAccount(custody, makeID(1)), ErrAccountExists)

	_, err = l.Balance(makeID(0xEE))
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestMemLedger_Transfer(t *testing.T) {
	l, custody := fundedLedger(t, 1_000)
	dest := makeID(0xD0)

	req := schedule.TransferRequest{Amount: 400, From: custody, To: dest, Authority: makeID(0xA0)}
	require.NoError(t, l.Transfer(context.Background(), req))

	bal, _ := l.Balance(custody)
	assert.Equal(t, uint64(600), bal)
	bal, _ = l.Balance(dest)
	assert.Equal(t, uint64(400), bal)
	assert.Equal(t, []schedule.TransferRequest{req}, l.History())
}

func TestMemLedger_ReplayedKeyMovesOnce(t *testing.T) {
	l, custody := fundedLedger(t, 1_000)
	dest := makeID(0xD0)
	req := schedule.TransferRequest{Amount: 300, From: custody, To: dest, Authority: makeID(0xA0), Key: "k1"}

	require.NoError(t, l.Transfer(context.Background(), req))
	require.NoError(t, l.Transfer(context.Background(), req))

	bal, _ := l.Balance(dest)
	assert.Equal(t, uint64(300), bal)
	assert.Len(t, l.History(), 1)

	other := req
	other.Amount = 1
	assert.ErrorIs(t, l.Transfer(context.Background(), other), ErrKeyConflict)
	bal, _ = l.Balance(custody)
	assert.Equal(t, uint64(700), bal)
}

func TestMemLedger_TransferFailuresMoveNothing(t *testing.T) {
	tests := []struct {
		name    string
		req     schedule.TransferRequest
		wantErr error
	}{
		{"zero", schedule.TransferRequest{Amount: 0, From: makeID(0xC0), To: makeID(0xD0), Authority: makeID(0xA0)}, ErrZeroAmount},
		{"unknown source", schedule.TransferRequest{Amount: 1, From: makeID(0xC9), To: makeID(0xD0), Authority: makeID(0xA0)}, ErrUnknownAccount},
		{"wrong authority", schedule.TransferRequest{Amount: 1, From: makeID(0xC0), To: makeID(0xD0), Authority: makeID(0xA9)}, ErrUnauthorized},
		{"insufficient", schedule.TransferRequest{Amount: 1_001, From: makeID(0xC0), To: makeID(0xD0), Authority: makeID(0xA0)}, ErrInsufficientFunds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, custody := fundedLedger(t, 1_000)
			err := l.Transfer(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.wantErr)

			bal, _ := l.Balance(custody)
			assert.Equal(t, uint64(1_000), bal)
			_, err = l.Balance(makeID(0xD0))
			assert.ErrorIs(t, err, ErrUnknownAccount)
			assert.Empty(t, l.History())
		})
	}
}

func TestMemLedger_TransferCanceledContext(t *testing.T) {
	l, custody := fundedLedger(t, 1_000)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.Transfer(ctx, schedule.TransferRequest{Amount: 1, From: custody, To: makeID(0xD0), Authority: makeID(0xA0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemLedger_DerivedAuthority(t *testing.T) {
	l := NewMemLedger()
	admin, ns, custody := makeID(0xAD), makeID(0x99), makeID(0xC0)
	require.NoError(t, l.OpenAccount(custody, admin))
	require.NoError(t, l.Mint(custody, 500))

	authority, bump, err := l.RegisterAuthority(admin, schedule.CustodyTag, ns)
	require.NoError(t, err)
	require.NoError(t, l.SetOwner(custody, admin, authority))

	// The previous owner lost control.
	err = l.Transfer(context.Background(), schedule.TransferRequest{Amount: 1, From: custody, To: makeID(0xD0), Authority: admin})
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Wrong bump is refused.
	err = l.Transfer(context.Background(), schedule.TransferRequest{
		Amount: 1, From: custody, To: makeID(0xD0), Authority: authority, AuthoritySeed: bump - 1,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = l.Transfer(context.Background(), schedule.TransferRequest{
		Amount: 100, From: custody, To: makeID(0xD0), Authority: authority, AuthoritySeed: bump,
	})
	require.NoError(t, err)
	bal, _ := l.Balance(custody)
	assert.Equal(t, uint64(400), bal)
}

func TestMemLedger_SetOwnerErrors(t *testing.T) {
	l, custody := fundedLedger(t, 1)
	assert.ErrorIs(t, l.SetOwner(makeID(0x01), makeID(0xA0), makeID(0x02)), ErrUnknownAccount)
	assert.ErrorIs(t, l.SetOwner(custody, makeID(0x01), makeID(0x02)), ErrUnauthorized)
}

// ---------------------------------------------------------------------------
// Mock tests
// ---------------------------------------------------------------------------

func TestMockTransferService(t *testing.T) {
	boom := errors.New("boom")
	var got schedule.TransferRequest
	m := &MockTransferService{TransferFn: func(_ context.Context, req schedule.TransferRequest) error {
		got = req
		return boom
	}}
	err := m.Transfer(context.Background(), schedule.TransferRequest{Amount: 9})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint64(9), got.Amount)
}

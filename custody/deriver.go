// Package custody provides the collaborators the vesting engine moves funds
// through: derivation of the key-less custody authority and token transfer
// services.
//
// A custody authority is derived from (owner, tag, namespace) as
//
//	candidate = HKDF-SHA256(IKM = owner || tag || bump, salt = namespace, info = "vesting-custody-authority")
//
// trying bump = 255 down to 0 and keeping the first candidate that is not the
// x-coordinate of a secp256k1 point. No private key exists for such an
// address, so only a ledger that re-derives it from the seeds can sign for it.
package custody

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"golang.org/x/crypto/hkdf"

	"github.com/bitfsorg/vesting-go/schedule"
)

const (
	// DeriveInfo is the HKDF info string for custody authority derivation.
	DeriveInfo = "vesting-custody-authority"

	// MaxTagLen is the maximum length of a derivation tag in bytes.
	MaxTagLen = 32
)

// Deriver derives custody authorities. The zero value is ready to use.
type Deriver struct{}

// Compile-time interface check.
var _ schedule.AddressDeriver = (*Deriver)(nil)

// NewDeriver returns a Deriver.
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive searches bumps from 255 downward and returns the first off-curve
// address together with its bump.
func (d *Deriver) Derive(owner schedule.Identity, tag string, namespace schedule.Identity) (schedule.Identity, byte, error) {
	for bump := 255; bump >= 0; bump-- {
		id, err := CreateDerived(owner, tag, namespace, byte(bump))
		if err == nil {
			return id, byte(bump), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return schedule.Identity{}, 0, err
		}
	}
	return schedule.Identity{}, 0, ErrNoOffCurveAddress
}

// CreateDerived computes the address for an explicit bump. It returns
// ErrOnCurve when that bump produces a valid public key.
func CreateDerived(owner schedule.Identity, tag string, namespace schedule.Identity, bump byte) (schedule.Identity, error) {
	var id schedule.Identity
	if len(tag) > MaxTagLen {
		return id, fmt.Errorf("%w: %d bytes", ErrTagTooLong, len(tag))
	}

	ikm := make([]byte, 0, schedule.IdentitySize+len(tag)+1)
	ikm = append(ikm, owner[:]...)
	ikm = append(ikm, tag...)
	ikm = append(ikm, bump)

	r := hkdf.New(sha256.New, ikm, namespace[:], []byte(DeriveInfo))
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return schedule.Identity{}, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	if IsOnCurve(id) {
		return schedule.Identity{}, ErrOnCurve
	}
	return id, nil
}

// IsOnCurve reports whether id is the x-coordinate of a secp256k1 point,
// i.e. whether a private key could control it.
func IsOnCurve(id schedule.Identity) bool {
	compressed := make([]byte, 0, 33)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, id[:]...)
	_, err := ec.PublicKeyFromBytes(compressed)
	return err == nil
}

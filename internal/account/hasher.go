package account

import (
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords. Algo is stored next to the
// hash so mixed populations can be verified after switching algorithms.
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", cost), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Argon2idHasher implementation.
type Argon2idHasher struct{ Params *argon2id.Params }

func (a Argon2idHasher) Hash(pw string) (string, string, error) {
	params := a.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	h, err := argon2id.CreateHash(pw, params)
	if err != nil {
		return "", "", err
	}
	return h, "argon2id", nil
}

func (a Argon2idHasher) Verify(hash, pw string) bool {
	ok, err := argon2id.ComparePasswordAndHash(pw, hash)
	return err == nil && ok
}

// AdaptiveHasher hashes new passwords with Primary and verifies any stored
// hash with the algorithm its format names.
type AdaptiveHasher struct {
	Primary PasswordHasher
	bcrypt  BcryptHasher
	argon   Argon2idHasher
}

// NewHasher returns the hasher selected by name ("bcrypt" or "argon2id").
func NewHasher(name string, bcryptCost int) (*AdaptiveHasher, error) {
	h := &AdaptiveHasher{bcrypt: BcryptHasher{Cost: bcryptCost}}
	switch name {
	case "", "bcrypt":
		h.Primary = h.bcrypt
	case "argon2id":
		h.Primary = h.argon
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
	return h, nil
}

func (h *AdaptiveHasher) Hash(pw string) (string, string, error) {
	return h.Primary.Hash(pw)
}

func (h *AdaptiveHasher) Verify(hash, pw string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return h.argon.Verify(hash, pw)
	case strings.HasPrefix(hash, "$2"):
		return h.bcrypt.Verify(hash, pw)
	default:
		return false
	}
}

// NeedsRehash reports whether a hash stored with algo was produced by a
// different algorithm or bcrypt cost than Primary uses now.
func (h *AdaptiveHasher) NeedsRehash(algo string) bool {
	switch p := h.Primary.(type) {
	case BcryptHasher:
		cost := p.Cost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		return algo != fmt.Sprintf("bcrypt:%d", cost)
	case Argon2idHasher:
		return algo != "argon2id"
	}
	return false
}

package hashing

import (
	"fmt"
)

var _ Hasher = (*Manager)(nil)

type Options struct {
	// Driver selects the algorithm used for new tokens: FormatBcrypt or
	// FormatArgon2id. Empty means bcrypt.
	Driver     Format
	BcryptCost int
	Argon2     Argon2Params
}

// Manager hashes with one default driver and verifies any registered format.
type Manager struct {
	def     Format
	drivers map[Format]Hasher
}

func NewManager(def Format, drivers map[Format]Hasher) (*Manager, error) {
	h, ok := drivers[def]
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: default driver %q is not registered", ErrInvalidOption, def)
	}
	m := &Manager{def: def, drivers: make(map[Format]Hasher, len(drivers))}
	for f, d := range drivers {
		m.drivers[f] = d
	}
	return m, nil
}

// New builds a Manager with bcrypt, Argon2id and the legacy crypt verifiers.
func New(opts Options) (*Manager, error) {
	if opts.Driver == "" {
		opts.Driver = FormatBcrypt
	}
	if opts.Argon2 == (Argon2Params{}) {
		opts.Argon2 = DefaultArgon2Params()
	}
	bc, err := NewBcrypt(opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	a2, err := NewArgon2id(opts.Argon2)
	if err != nil {
		return nil, err
	}
	switch opts.Driver {
	case FormatBcrypt, FormatArgon2id:
	default:
		return nil, fmt.Errorf("%w: %q cannot produce new hashes", ErrInvalidOption, opts.Driver)
	}
	return NewManager(opts.Driver, map[Format]Hasher{
		FormatBcrypt:      bc,
		FormatArgon2id:    a2,
		FormatMD5Crypt:    Crypt{},
		FormatSHA256Crypt: Crypt{},
		FormatSHA512Crypt: Crypt{},
	})
}

func (m *Manager) Default() Format { return m.def }

func (m *Manager) Hash(plaintext string) (string, error) {
	return m.drivers[m.def].Hash(plaintext)
}

// Verify dispatches on the token's format tag. Unknown formats fail closed
// with ErrMalformedHash.
func (m *Manager) Verify(plaintext, token string) (bool, error) {
	format, ok := DetectFormat(token)
	if !ok {
		return false, ErrMalformedHash
	}
	h, ok := m.drivers[format]
	if !ok {
		return false, fmt.Errorf("%w: no driver for %s", ErrMalformedHash, format)
	}
	return h.Verify(plaintext, token)
}

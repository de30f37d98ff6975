package hashing

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Upper bounds accepted from configuration and from stored tokens. A token
// asking for more is treated as malformed.
const (
	maxArgon2Memory  = 1 << 20 // KiB, 1 GiB
	maxArgon2Time    = 64
	maxArgon2Threads = 64
	maxArgon2Bytes   = 1024 // salt and key
)

type Argon2Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:  64 * 1024,
		Time:    3,
		Threads: 2,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// Argon2id hashes secrets with Argon2id and encodes tokens in the PHC string
// format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
type Argon2id struct {
	params Argon2Params
}

func NewArgon2id(p Argon2Params) (*Argon2id, error) {
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return nil, fmt.Errorf("%w: argon2id memory, time and threads must be positive", ErrInvalidOption)
	}
	if p.SaltLen < 8 || p.KeyLen < 16 {
		return nil, fmt.Errorf("%w: argon2id salt >= 8 and key >= 16 bytes required", ErrInvalidOption)
	}
	if !p.withinBounds() {
		return nil, fmt.Errorf("%w: argon2id parameters exceed m=%d,t=%d,p=%d",
			ErrInvalidOption, maxArgon2Memory, maxArgon2Time, maxArgon2Threads)
	}
	return &Argon2id{params: p}, nil
}

func (p Argon2Params) withinBounds() bool {
	return p.Memory <= maxArgon2Memory &&
		p.Time <= maxArgon2Time &&
		p.Threads <= maxArgon2Threads &&
		p.SaltLen <= maxArgon2Bytes &&
		p.KeyLen <= maxArgon2Bytes
}

func (a *Argon2id) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hashing: argon2id: read salt: %w", err)
	}
	key := argon2.IDKey([]byte(plaintext), salt, a.params.Time, a.params.Memory, a.params.Threads, a.params.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.params.Memory, a.params.Time, a.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(plaintext, token string) (bool, error) {
	p, salt, key, err := decodeArgon2id(token)
	if err != nil {
		return false, err
	}
	other := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

func decodeArgon2id(token string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(token, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, fmt.Errorf("%w: argon2id token layout", ErrMalformedHash)
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: argon2id version: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: argon2id version %d", ErrMalformedHash, version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: argon2id params: %v", ErrMalformedHash, err)
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, fmt.Errorf("%w: argon2id params out of range", ErrMalformedHash)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, fmt.Errorf("%w: argon2id salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: argon2id key", ErrMalformedHash)
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))
	if !p.withinBounds() {
		return p, nil, nil, fmt.Errorf("%w: argon2id params out of range", ErrMalformedHash)
	}
	return p, salt, key, nil
}

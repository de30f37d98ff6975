package hashing

import (
	"fmt"
	"strings"

	"github.com/GehirnInc/crypt"
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
	"github.com/GehirnInc/crypt/sha512_crypt"
)

// Crypt verifies legacy crypt(3) tokens ($1$, $5$, $6$) found in older
// credential files. It never produces new tokens.
type Crypt struct{}

func (Crypt) Hash(string) (string, error) {
	return "", fmt.Errorf("%w: crypt tokens are verify-only", ErrUnsupported)
}

func (Crypt) Verify(plaintext, token string) (bool, error) {
	format, ok := DetectFormat(token)
	if !ok || !cryptWellFormed(token) {
		return false, fmt.Errorf("%w: not a crypt token", ErrMalformedHash)
	}
	var c crypt.Crypter
	switch format {
	case FormatMD5Crypt:
		c = md5_crypt.New()
	case FormatSHA256Crypt:
		c = sha256_crypt.New()
	case FormatSHA512Crypt:
		c = sha512_crypt.New()
	default:
		return false, fmt.Errorf("%w: %s is not a crypt format", ErrMalformedHash, format)
	}
	// Any verification failure on a well-formed token counts as a mismatch.
	return c.Verify(token, []byte(plaintext)) == nil, nil
}

// cryptWellFormed checks for "$id$salt$digest", optionally with a
// "rounds=N$" segment before the salt.
func cryptWellFormed(token string) bool {
	parts := strings.Split(token, "$")
	switch len(parts) {
	case 4:
		return parts[2] != "" && parts[3] != ""
	case 5:
		return strings.HasPrefix(parts[2], "rounds=") && parts[3] != "" && parts[4] != ""
	default:
		return false
	}
}

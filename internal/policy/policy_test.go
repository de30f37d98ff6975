package policy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reasonOf(t *testing.T, err error) Reason {
	t.Helper()
	var rej *Rejection
	require.True(t, errors.As(err, &rej), "expected *Rejection, got %v", err)
	return rej.Reason
}

func TestValidateUsername(t *testing.T) {
	accepted := []string{"validUser1", "abc", "ABC123", strings.Repeat("a", 20), "José"}
	for _, s := range accepted {
		assert.NoError(t, ValidateUsername(s), s)
	}

	rejected := []string{"", "ab", "has space", "dash-name", "comma,name", strings.Repeat("a", 21), "tab\tname"}
	for _, s := range rejected {
		err := ValidateUsername(s)
		require.Error(t, err, s)
		assert.Equal(t, ReasonInvalidUsername, reasonOf(t, err), s)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("sixsix"))
	assert.NoError(t, ValidatePassword(strings.Repeat("x", 50)))

	for _, s := range []string{"", "five5", strings.Repeat("x", 51)} {
		err := ValidatePassword(s)
		require.Error(t, err)
		assert.Equal(t, ReasonInvalidPassword, reasonOf(t, err))
	}
}

func TestValidatePasswordByteLimit(t *testing.T) {
	// 44 runes, 84 bytes: within the rune limit, past bcrypt's input limit.
	long := strings.Repeat("é", 40) + "Ab1!"
	require.Equal(t, Strong, ClassifyStrength(long))
	assert.Equal(t, ReasonInvalidPassword, reasonOf(t, ValidatePassword(long)))

	assert.NoError(t, ValidatePassword(strings.Repeat("é", 36)))
	assert.Equal(t, ReasonInvalidPassword, reasonOf(t, ValidatePassword(strings.Repeat("é", 36)+"x")))
}

func TestValidateConfirmation(t *testing.T) {
	assert.NoError(t, ValidateConfirmation("abcdef12", "abcdef12"))
	assert.Equal(t, ReasonPasswordMismatch, reasonOf(t, ValidateConfirmation("abcdef12", "abcdef13")))
}

func TestClassifyStrength(t *testing.T) {
	cases := []struct {
		in   string
		want Strength
	}{
		{"password123", Weak},
		{"PASSWORD!Xy99zz", Weak},
		{"MyQwerty!2024ab", Weak},
		{"Abcdef1!gh23", Strong},
		{"Str0ng!Pass2024", Strong},
		{"abcdef12", Medium},
		{"ABCDEF12", Medium},
		{"Abcdef1!gh2", Medium},
		{"abcdefgh", Weak},
		{"1234567", Weak},
		{"abc12", Weak},
		{"", Weak},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyStrength(c.in), c.in)
	}
}

func TestRequireStrength(t *testing.T) {
	assert.NoError(t, RequireStrength("abcdef12"))
	assert.Equal(t, ReasonWeakPassword, reasonOf(t, RequireStrength("letmein2024")))
}

func TestStrengthString(t *testing.T) {
	assert.Equal(t, "Weak", Weak.String())
	assert.Equal(t, "Medium", Medium.String())
	assert.Equal(t, "Strong", Strong.String())
}

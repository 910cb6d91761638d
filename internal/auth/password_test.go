package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"too short", "short1!", ErrPasswordTooShort},
		{"no uppercase", "alllowercase1!", ErrPasswordNoUpper},
		{"no digit", "NoDigits!", ErrPasswordNoDigit},
		{"no special", "NoSpecial1A", ErrPasswordNoSpecial},
		{"no lowercase", "ALLUPPER1!", ErrPasswordNoLower},
		{"valid", "Valid1Pass!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePasswordDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.NoError(t, ValidatePassword("Abcdef1!"))
		assert.Error(t, ValidatePassword("abcdef1!"))
	}
}

func TestHashPasswordRoundtrip(t *testing.T) {
	hash, err := HashPassword("Valid1Pass!")
	require.NoError(t, err)
	assert.NotContains(t, hash, "Valid1Pass!")

	match, err := CheckPassword(hash, "Valid1Pass!")
	require.NoError(t, err)
	assert.True(t, match)

	match, err = CheckPassword(hash, "Wrong1Pass!")
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("Valid1Pass!")
	require.NoError(t, err)
	second, err := HashPassword("Valid1Pass!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	_, err := CheckPassword("not-a-hash", "Valid1Pass!")
	assert.Error(t, err)

	_, err = CheckPassword("$bcrypt$v=19$m=1,t=1,p=1$abc$def", "Valid1Pass!")
	assert.Error(t, err)
}

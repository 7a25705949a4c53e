package namespace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		userID string
		want   string
	}{
		{"base only", "default", "", "default"},
		{"base with user", "default", "u1", "default_user_u1"},
		{"production namespace", "botfusions_production", "customer_123", "botfusions_production_user_customer_123"},
		{"account namespace", "acct1", "u9", "acct1_user_u9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.base, tt.userID))
		})
	}
}

func TestValid(t *testing.T) {
	t.Run("accepts identifiers", func(t *testing.T) {
		for _, s := range []string{"default", "acct1", "botfusions_production", "user-7", "A1"} {
			assert.True(t, Valid(s), s)
		}
	})

	t.Run("rejects hostile input", func(t *testing.T) {
		for _, s := range []string{"", "a b", "a/b", "a.b", "ns\n", "../etc", strings.Repeat("x", 129)} {
			assert.False(t, Valid(s), s)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid pair", func(t *testing.T) {
		assert.NoError(t, Validate("acct1", "u9"))
	})

	t.Run("empty user id allowed", func(t *testing.T) {
		assert.NoError(t, Validate("acct1", ""))
	})

	t.Run("bad namespace", func(t *testing.T) {
		err := Validate("not a namespace", "")
		assert.ErrorIs(t, err, ErrInvalidNamespace)
	})

	t.Run("bad user id", func(t *testing.T) {
		err := Validate("acct1", "u 9")
		assert.ErrorIs(t, err, ErrInvalidUserID)
	})
}

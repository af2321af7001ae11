package token_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftarena/authcore/pkg/token"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	raw, digest, err := token.Generate()
	require.NoError(t, err)

	assert.Len(t, raw, token.Size*2)
	assert.Len(t, digest, 64)
	assert.NotEqual(t, raw, digest)
	assert.Equal(t, token.Hash(raw), digest)
	assert.NoError(t, token.Validate(raw))
}

func TestGenerate_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 100)
	for range 100 {
		raw, _, err := token.Generate()
		require.NoError(t, err)
		_, dup := seen[raw]
		require.False(t, dup)
		seen[raw] = struct{}{}
	}
}

func TestHash(t *testing.T) {
	t.Parallel()

	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", token.Hash("abc"))
	assert.Equal(t, token.Hash("x"), token.Hash("x"))
	assert.NotEqual(t, token.Hash("x"), token.Hash("y"))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   string
		valid bool
	}{
		{"valid", strings.Repeat("ab", token.Size), true},
		{"empty", "", false},
		{"too short", "abcd", false},
		{"not hex", strings.Repeat("zz", token.Size), false},
		{"too long", strings.Repeat("ab", token.Size+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := token.Validate(tt.raw)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, token.ErrInvalidToken)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := token.Hash("a")
	assert.True(t, token.Equal(a, token.Hash("a")))
	assert.False(t, token.Equal(a, token.Hash("b")))
	assert.False(t, token.Equal(a, ""))
}

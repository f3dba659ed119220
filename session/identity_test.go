package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoles(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  []string
	}{
		{"Empty", "", nil},
		{"Single", "admin", []string{"admin"}},
		{"TrimsSpaces", " admin ,  manager ", []string{"admin", "manager"}},
		{"DropsEmpty", "admin,,manager,", []string{"admin", "manager"}},
		{"DropsDuplicates", "admin,manager,admin", []string{"admin", "manager"}},
		{"NormalisesNFC", "ger\u00eancia,gere\u0302ncia", []string{"ger\u00eancia"}},
		{"CaseSensitive", "Admin,admin", []string{"Admin", "admin"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseRoles(tc.field))
		})
	}
}

func TestIdentityUnmarshal(t *testing.T) {
	t.Run("StringID", func(t *testing.T) {
		var ident Identity
		require.NoError(t, json.Unmarshal([]byte(`{"id":"u-7","email":"a@b.c","name":"Ana","role":"admin, manager"}`), &ident))
		assert.Equal(t, "u-7", ident.ID)
		assert.Equal(t, "Ana", ident.Name)
		assert.Equal(t, []string{"admin", "manager"}, ident.Roles())
	})

	t.Run("NumericID", func(t *testing.T) {
		var ident Identity
		require.NoError(t, json.Unmarshal([]byte(`{"id":42,"email":"a@b.c"}`), &ident))
		assert.Equal(t, "42", ident.ID)
		assert.Equal(t, "a@b.c", ident.Email)
	})

	t.Run("NullID", func(t *testing.T) {
		var ident Identity
		require.NoError(t, json.Unmarshal([]byte(`{"id":null,"name":"x"}`), &ident))
		assert.Empty(t, ident.ID)
	})

	t.Run("BadID", func(t *testing.T) {
		var ident Identity
		assert.Error(t, json.Unmarshal([]byte(`{"id":{}}`), &ident))
	})

	t.Run("RoundTripKeepsAttributes", func(t *testing.T) {
		in := Identity{ID: "1", Role: "viewer", Attributes: map[string]string{"stage": "wh-01"}}
		b, err := json.Marshal(in)
		require.NoError(t, err)
		var out Identity
		require.NoError(t, json.Unmarshal(b, &out))
		assert.Equal(t, in, out)
	})
}

func TestIdentityHasRole(t *testing.T) {
	ident := Identity{Role: "admin, manager"}
	assert.True(t, ident.HasRole("manager"))
	assert.True(t, ident.HasRole(" admin "))
	assert.False(t, ident.HasRole("superadmin"))
}

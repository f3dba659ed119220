package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	src := Static([]string{"a", "b"})
	res, err := src.Fetch(context.Background(), Query{Page: 2}, AuthContext{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Data)
	assert.Equal(t, 2, res.Total)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, Query{}, AuthContext{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	var got AuthContext
	src := Func[int](func(_ context.Context, q Query, auth AuthContext) (Result[int], error) {
		got = auth
		return Result[int]{Data: []int{q.Page}, Total: 1}, nil
	})

	auth := AuthContext{ActiveRole: "manager"}
	res, err := src.Fetch(context.Background(), Query{Page: 4}, auth)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, res.Data)
	assert.Equal(t, auth, got)
}

package nav

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Navigate(t *testing.T) {
	m := NewMemory("/patients")

	m.Navigate(Login)
	assert.Equal(t, Login, m.Location())
	assert.Equal(t, 1, m.Count())

	m.Navigate(Login)
	assert.Equal(t, 1, m.Count(), "same location is a no-op")
	assert.True(t, m.Moved())
}

func TestMemory_Fresh(t *testing.T) {
	m := NewMemory(Root)
	assert.False(t, m.Moved())
	assert.Equal(t, Root, m.Location())
}

type mapKV map[string]string

func (m mapKV) Get(_ context.Context, k string) (string, bool, error) {
	v, ok := m[k]
	return v, ok, nil
}

func (m mapKV) Set(_ context.Context, k, v string) error {
	m[k] = v
	return nil
}

func TestStored_PersistsAcrossRestores(t *testing.T) {
	kv := mapKV{}
	ctx := context.Background()

	s, err := Restore(ctx, kv, Root)
	require.NoError(t, err)
	assert.Equal(t, Root, s.Location())

	s.Navigate(SuperAdminLogin)
	assert.Equal(t, SuperAdminLogin, kv[KeyLocation])

	again, err := Restore(ctx, kv, Root)
	require.NoError(t, err)
	assert.Equal(t, SuperAdminLogin, again.Location())
	assert.False(t, again.Moved())
}

func TestStored_SameLocationSkipsSave(t *testing.T) {
	kv := mapKV{}
	s, err := Restore(context.Background(), kv, Login)
	require.NoError(t, err)

	s.Navigate(Login)

	assert.NotContains(t, kv, KeyLocation)
}

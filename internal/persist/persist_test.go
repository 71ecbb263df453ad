package persist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resourcemart/storefront/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := models.Cart{
		Items: []models.CartItem{
			{ResourceID: "r1", Title: "Go Course", Price: 99, Quantity: 2},
		},
		Total:     198,
		ItemCount: 2,
	}
	require.NoError(t, s.Save("cart-storage", in))

	var out models.Cart
	ok, err := s.Load("cart-storage", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, in, out)
}

func TestLoadMissingKey(t *testing.T) {
	s := openTestStore(t)

	var out models.Cart
	ok, err := s.Load("never-written", &out)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSaveOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save("k", map[string]int{"v": 1}))
	require.NoError(t, s.Save("k", map[string]int{"v": 2}))

	var out map[string]int
	ok, err := s.Load("k", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, out["v"])
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save("k", "value"))
	require.NoError(t, s.Delete("k"))

	var out string
	ok, err := s.Load("k", &out)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Delete("k"), "deleting a missing key is not an error")
}

func TestKeysAreIndependent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Save("a", 1))
	require.NoError(t, s.Save("b", 2))

	var a, b int
	_, err := s.Load("a", &a)
	require.NoError(t, err)
	_, err = s.Load("b", &b)
	require.NoError(t, err)
	require.Equal(t, 1, a)
	require.Equal(t, 2, b)
}

package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentsnap/internal/domain"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sq.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
	}
}

func TestSession_Lifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := Resume(store)
			assert.ErrorIs(t, err, ErrNoSession)

			s, err := Begin(store, &domain.AuthResult{
				Token: "tok-123",
				User:  domain.User{ID: 7, Username: "ana", FirstName: "Ana"},
			})
			require.NoError(t, err)
			assert.True(t, s.Active())
			assert.Equal(t, int32(7), s.UserID())

			resumed, err := Resume(store)
			require.NoError(t, err)
			assert.Equal(t, "tok-123", resumed.Token())
			assert.Equal(t, int32(7), resumed.UserID())
			require.NotNil(t, resumed.User())
			assert.Equal(t, "Ana", resumed.User().DisplayName())

			require.NoError(t, resumed.Destroy())
			assert.False(t, resumed.Active())
			assert.Nil(t, resumed.User())
			require.NoError(t, resumed.Destroy())

			_, err = Resume(store)
			assert.ErrorIs(t, err, ErrNoSession)
			for _, k := range []string{KeyToken, KeyActiveUserID, KeyUser} {
				_, ok, err := store.Get(k)
				require.NoError(t, err)
				assert.False(t, ok, k)
			}
		})
	}
}

func TestBegin_RequiresToken(t *testing.T) {
	_, err := Begin(NewMemoryStore(), &domain.AuthResult{})
	assert.Error(t, err)
}

func TestAnonymous(t *testing.T) {
	s := Anonymous()
	assert.False(t, s.Active())
	assert.NoError(t, s.Destroy())
}

func TestSQLiteStore_Overwrite(t *testing.T) {
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer sq.Close()

	require.NoError(t, sq.Set("k", "a"))
	require.NoError(t, sq.Set("k", "b"))
	v, ok, err := sq.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

package sqliteslot

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshrakosky/fmg-pick/internal/storage"
)

func openTestSlot(t *testing.T) *Slot {
	t.Helper()
	slot, err := Open(filepath.Join(t.TempDir(), "fmg-pick.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { slot.Close() })
	return slot
}

func TestSetGetDelete(t *testing.T) {
	slot := openTestSlot(t)

	require.NoError(t, slot.Set(storage.OrdersKey, []byte(`[]`)))

	value, err := slot.Get(storage.OrdersKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), value)

	require.NoError(t, slot.Delete(storage.OrdersKey))
	_, err = slot.Get(storage.OrdersKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetMissingKey(t *testing.T) {
	slot := openTestSlot(t)
	_, err := slot.Get("nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	slot := openTestSlot(t)

	require.NoError(t, slot.Set("k", []byte("one")))
	require.NoError(t, slot.Set("k", []byte("two")))

	value, err := slot.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), value)
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fmg-pick.sqlite")

	slot, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, slot.Set("k", []byte("persisted")))
	require.NoError(t, slot.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), value)
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlayBuffersWritesUntilCommit(t *testing.T) {
	backend := NewMemDB()
	require.NoError(t, backend.Put([]byte("a"), []byte("1")))

	ov := NewOverlay(backend)
	require.NoError(t, ov.Put([]byte("b"), []byte("2")))

	got, err := ov.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)

	_, err = backend.Get([]byte("b"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, ov.Commit())
	got, err = backend.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)
}

func TestOverlayReadsFallThrough(t *testing.T) {
	backend := NewMemDB()
	require.NoError(t, backend.Put([]byte("a"), []byte("1")))

	ov := NewOverlay(backend)
	got, err := ov.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
}

func TestOverlayDiscardLeavesBackendUntouched(t *testing.T) {
	backend := NewMemDB()
	require.NoError(t, backend.Put([]byte("a"), []byte("1")))

	ov := NewOverlay(backend)
	require.NoError(t, ov.Put([]byte("a"), []byte("updated")))
	require.NoError(t, ov.Delete([]byte("a")))
	ov.Discard()

	got, err := backend.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	got, err = ov.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
}

func TestOverlayDeleteShadowsBackend(t *testing.T) {
	backend := NewMemDB()
	require.NoError(t, backend.Put([]byte("a"), []byte("1")))

	ov := NewOverlay(backend)
	require.NoError(t, ov.Delete([]byte("a")))

	_, err := ov.Get([]byte("a"))
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, ov.Commit())
	_, err = backend.Get([]byte("a"))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestOverlayPutAfterDelete(t *testing.T) {
	backend := NewMemDB()
	ov := NewOverlay(backend)
	require.NoError(t, ov.Delete([]byte("a")))
	require.NoError(t, ov.Put([]byte("a"), []byte("again")))

	got, err := ov.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("again"), got)

	require.NoError(t, ov.Commit())
	got, err = backend.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("again"), got)
}

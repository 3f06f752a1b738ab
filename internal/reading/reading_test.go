package reading

import (
	"path/filepath"
	"testing"
	"time"

	"pd-meter/internal/marker"
	"pd-meter/internal/measure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReading(t *testing.T) Reading {
	t.Helper()
	markers := marker.DefaultLayout(1000, 800)
	result := measure.Calculate(markers, measure.DefaultConfig())
	return New(result, markers, time.Now().Add(-time.Minute))
}

func TestNewAssignsID(t *testing.T) {
	a := sampleReading(t)
	b := sampleReading(t)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.SavedAt.IsZero())
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.json")

	store, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, store.List())

	r := sampleReading(t)
	require.NoError(t, store.Add(r))

	reloaded, err := Open(path)
	require.NoError(t, err)
	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
	assert.Equal(t, r.Markers, list[0].Markers)
	assert.InDelta(t, r.Result.PDMM, list[0].Result.PDMM, 1e-9)
}

func TestStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.json")
	store, err := Open(path)
	require.NoError(t, err)

	a := sampleReading(t)
	b := sampleReading(t)
	require.NoError(t, store.Add(a))
	require.NoError(t, store.Add(b))

	require.NoError(t, store.Remove(a.ID))
	list := store.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)

	assert.Error(t, store.Remove("missing"))
}

func TestStoreListReturnsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.json")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Add(sampleReading(t)))

	list := store.List()
	list[0].ID = "mutated"
	assert.NotEqual(t, "mutated", store.List()[0].ID)
}

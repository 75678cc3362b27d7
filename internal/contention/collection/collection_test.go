package collection

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(l List, workers, perWorker int) {
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Add(strconv.Itoa(w) + ":" + strconv.Itoa(i))
			}
		}(w)
	}
	wg.Wait()
}

func TestNew(t *testing.T) {
	for _, kind := range []Kind{Unsynchronized, CopyOnWrite, Synchronized} {
		l, err := New(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, l.Kind())
		assert.Equal(t, 0, l.Len())
	}

	_, err := New("linked")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCopyOnWrite_KeepsEveryInsert(t *testing.T) {
	l := NewCopyOnWrite()
	fill(l, 10, 1000)

	require.Equal(t, 10000, l.Len())

	seen := make(map[string]bool, 10000)
	for _, s := range l.Snapshot() {
		assert.False(t, seen[s], "duplicate element %q", s)
		seen[s] = true
	}
	assert.Len(t, seen, 10000)
}

func TestCopyOnWrite_SnapshotIsStable(t *testing.T) {
	l := NewCopyOnWrite()
	l.Add("a")
	l.Add("b")

	snap := l.Snapshot()
	l.Add("c")

	assert.Equal(t, []string{"a", "b"}, snap)
	assert.Equal(t, []string{"a", "b", "c"}, l.Snapshot())
}

func TestSynchronized_KeepsEveryInsert(t *testing.T) {
	l := NewSynchronized(16)
	fill(l, 10, 1000)

	require.Equal(t, 10000, l.Len())

	seen := make(map[string]bool, 10000)
	for _, s := range l.Snapshot() {
		assert.False(t, seen[s], "duplicate element %q", s)
		seen[s] = true
	}
	assert.Len(t, seen, 10000)
}

func TestSynchronized_SnapshotIsACopy(t *testing.T) {
	l := NewSynchronized(-1)
	l.Add("a")

	snap := l.Snapshot()
	l.Add("b")
	snap[0] = "z"

	assert.Equal(t, []string{"z"}, snap)
	assert.Equal(t, []string{"a", "b"}, l.Snapshot())
}

func TestUnsynchronized_Sequential(t *testing.T) {
	l, err := New(Unsynchronized)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		l.Add(strconv.Itoa(i))
	}
	assert.Equal(t, 100, l.Len())
	assert.Equal(t, "99", l.Snapshot()[99])
}

func TestUnsynchronized_NeverGrowsPastInserts(t *testing.T) {
	if raceEnabled {
		t.Skip("unsynchronized list is an intentional data race")
	}

	l, err := New(Unsynchronized)
	require.NoError(t, err)

	fill(l, 10, 1000)
	assert.LessOrEqual(t, l.Len(), 10000)
}

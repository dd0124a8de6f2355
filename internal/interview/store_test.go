package interview

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateGetDelete(t *testing.T) {
	store := NewMemoryStore()

	s := &Session{ID: "s1", Phase: PhaseGreeting}
	require.NoError(t, store.Create(s))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get("s1")
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, store.Delete("s1"))
	_, err = store.Get("s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreDuplicateCreate(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Create(&Session{ID: "s1"}))
	assert.ErrorIs(t, store.Create(&Session{ID: "s1"}), ErrDuplicateSession)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i)
			if err := store.Create(&Session{ID: id}); err != nil {
				t.Error(err)
				return
			}
			if _, err := store.Get(id); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}

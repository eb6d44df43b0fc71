package tree_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/tree"
)

func TestAllocator_StartsAtOne(t *testing.T) {
	var a tree.Allocator
	assert.Equal(t, tree.Identity(1), a.Next())
	assert.Equal(t, tree.Identity(2), a.Next())
}

func TestAllocator_ConcurrentUnique(t *testing.T) {
	var a tree.Allocator
	const workers, per = 8, 1000

	ids := make(chan tree.Identity, workers*per)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				ids <- a.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[tree.Identity]bool, workers*per)
	for id := range ids {
		require.False(t, seen[id], "identity %d issued twice", id)
		require.NotEqual(t, tree.NoIdentity, id)
		seen[id] = true
	}
	assert.Len(t, seen, workers*per)
}

func TestNewIdentity_Increases(t *testing.T) {
	a := tree.NewIdentity()
	b := tree.NewIdentity()
	assert.Greater(t, b, a)
}

package diff

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/vfs"
	"github.com/agentic-research/arbor/tree"
)

func TestRecordsCounter(t *testing.T) {
	root, err := vfs.NewDir("r")
	require.NoError(t, err)
	grown, err := tree.AddDescendant(root, vfs.NewFile("a", nil), root.Identity())
	require.NoError(t, err)

	added := testutil.ToFloat64(records.WithLabelValues("added"))
	_, err = ChangesSince(grown, root)
	require.NoError(t, err)
	assert.Equal(t, added+1, testutil.ToFloat64(records.WithLabelValues("added")))
}

func TestIncreasingRun(t *testing.T) {
	tests := []struct {
		seq  []int
		want int
	}{
		{nil, 0},
		{[]int{0, 1, 2}, 3},
		{[]int{2, 1, 0}, 1},
		{[]int{3, 0, 1, 2}, 3},
		{[]int{1, 0, 3, 2, 4}, 3},
	}
	for _, tt := range tests {
		keep := increasingRun(tt.seq)
		assert.Len(t, keep, tt.want, "seq %v", tt.seq)

		last := -1
		for i, v := range tt.seq {
			if keep[i] {
				assert.Greater(t, v, last, "seq %v", tt.seq)
				last = v
			}
		}
	}
}

package memsim

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garethgeorge/memsim/internal/blocklist"
)

func newSim(t *testing.T, size int64, policy Policy) *Simulator {
	t.Helper()
	s, err := New(Config{MemorySize: size, Policy: policy})
	require.NoError(t, err)
	return s
}

// fragmented leaves free holes of 25, 30 and 20 addresses at 10, 40 and 80.
func fragmented(t *testing.T, policy Policy) *Simulator {
	t.Helper()
	s := newSim(t, 100, policy)
	for _, req := range []struct {
		pid  int
		size int64
	}{{1, 10}, {2, 25}, {3, 5}, {4, 30}, {5, 10}} {
		_, err := s.Allocate(req.pid, req.size)
		require.NoError(t, err)
	}
	_, err := s.Free(2)
	require.NoError(t, err)
	_, err = s.Free(4)
	require.NoError(t, err)
	require.Equal(t, []blocklist.Block{
		{Start: 10, End: 34},
		{Start: 40, End: 69},
		{Start: 80, End: 99},
	}, s.FreeBlocks())
	return s
}

func TestSimulator_New(t *testing.T) {
	s := newSim(t, 1000, FirstFit)
	assert.Equal(t, int64(1000), s.FreeSpace)
	assert.Equal(t, int64(0), s.AllocatedSpace)
	assert.Equal(t, []blocklist.Block{{PID: blocklist.FreePID, Start: 0, End: 999}}, s.FreeBlocks())
	assert.Empty(t, s.AllocatedBlocks())
	assert.Equal(t, FirstFit, s.Policy())
}

func TestSimulator_SimpleAllocFree(t *testing.T) {
	s := newSim(t, 100, FirstFit)

	b, err := s.Allocate(1, 10)
	require.NoError(t, err)
	assert.Equal(t, blocklist.Block{PID: 1, Start: 0, End: 9}, b)
	b, err = s.Allocate(2, 20)
	require.NoError(t, err)
	assert.Equal(t, blocklist.Block{PID: 2, Start: 10, End: 29}, b)

	assert.Equal(t, int64(70), s.FreeSpace)
	assert.Equal(t, int64(30), s.AllocatedSpace)
	assert.Equal(t, []blocklist.Block{{Start: 30, End: 99}}, s.FreeBlocks())
	assert.True(t, s.Holds(1))

	released, err := s.Free(1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), released)
	assert.False(t, s.Holds(1))
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 9}, {Start: 30, End: 99}}, s.FreeBlocks())

	_, err = s.Free(2)
	require.NoError(t, err)
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 99}}, s.FreeBlocks())
	assert.Equal(t, int64(100), s.FreeSpace)
	assert.Equal(t, int64(0), s.AllocatedSpace)
}

func TestSimulator_Policies(t *testing.T) {
	testCases := []struct {
		policy   Policy
		expected blocklist.Block
	}{
		{FirstFit, blocklist.Block{PID: 6, Start: 10, End: 24}},
		{BestFit, blocklist.Block{PID: 6, Start: 80, End: 94}},
		{WorstFit, blocklist.Block{PID: 6, Start: 40, End: 54}},
	}
	for _, tc := range testCases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			s := fragmented(t, tc.policy)
			b, err := s.Allocate(6, 15)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, b)
			assert.Contains(t, s.AllocatedBlocks(), tc.expected)
			assert.Equal(t, int64(60), s.FreeSpace)

			// The rest of the hole stays where the hole was.
			free := s.FreeBlocks()
			require.Len(t, free, 3)
			for i := 1; i < len(free); i++ {
				assert.Less(t, free[i-1].End, free[i].Start)
			}
		})
	}
}

func TestSimulator_FreeCoalesces(t *testing.T) {
	s := fragmented(t, FirstFit)

	_, err := s.Free(3)
	require.NoError(t, err)
	assert.Equal(t, []blocklist.Block{{Start: 10, End: 69}, {Start: 80, End: 99}}, s.FreeBlocks())

	_, err = s.Free(1)
	require.NoError(t, err)
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 69}, {Start: 80, End: 99}}, s.FreeBlocks())

	_, err = s.Free(5)
	require.NoError(t, err)
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 99}}, s.FreeBlocks())
	assert.Empty(t, s.AllocatedBlocks())
}

func TestSimulator_MultipleBlocksPerPID(t *testing.T) {
	s := newSim(t, 100, FirstFit)
	_, err := s.Allocate(1, 10)
	require.NoError(t, err)
	_, err = s.Allocate(2, 10)
	require.NoError(t, err)
	_, err = s.Allocate(1, 10)
	require.NoError(t, err)

	released, err := s.Free(1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), released)
	assert.False(t, s.Holds(1))
	assert.Equal(t, []blocklist.Block{{PID: 2, Start: 10, End: 19}}, s.AllocatedBlocks())
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 9}, {Start: 20, End: 99}}, s.FreeBlocks())
}

func TestSimulator_Errors(t *testing.T) {
	s := newSim(t, 100, BestFit)

	_, err := s.Allocate(blocklist.FreePID, 10)
	assert.ErrorIs(t, err, ErrInvalidPID)
	_, err = s.Allocate(1, 0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = s.Allocate(1, 101)
	assert.ErrorIs(t, err, ErrNoMemory)
	_, err = s.Free(1)
	assert.ErrorIs(t, err, ErrUnknownPID)

	// Failed calls leave the simulator untouched.
	assert.Equal(t, int64(100), s.FreeSpace)
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 99}}, s.FreeBlocks())
}

func TestSimulator_ExactFit(t *testing.T) {
	s := newSim(t, 100, WorstFit)
	_, err := s.Allocate(1, 100)
	require.NoError(t, err)
	assert.Empty(t, s.FreeBlocks())

	stats := s.Stats()
	assert.Equal(t, 0, stats.FreeBlocks)
	assert.Equal(t, 1, stats.AllocatedBlocks)
	assert.Equal(t, float64(0), stats.Fragmentation())

	_, err = s.Allocate(2, 1)
	assert.ErrorIs(t, err, ErrNoMemory)
}

func TestSimulator_Stats(t *testing.T) {
	s := fragmented(t, FirstFit)
	stats := s.Stats()
	assert.Equal(t, Stats{
		MemorySize:      100,
		FreeSpace:       75,
		AllocatedSpace:  25,
		FreeBlocks:      3,
		AllocatedBlocks: 3,
		LargestFree:     30,
	}, stats)
	assert.InDelta(t, 60.0, stats.Fragmentation(), 1e-9)
}

func TestSimulator_FreeBlocksBySize(t *testing.T) {
	s := fragmented(t, FirstFit)
	var sizes []int64
	for _, b := range s.FreeBlocksBySize() {
		sizes = append(sizes, b.Size())
	}
	assert.Equal(t, []int64{30, 25, 20}, sizes)
}

func TestSimulator_Digest(t *testing.T) {
	a := fragmented(t, FirstFit)
	b := fragmented(t, BestFit)
	assert.Equal(t, a.Digest(), b.Digest())

	_, err := a.Allocate(6, 15)
	require.NoError(t, err)
	_, err = b.Allocate(6, 15)
	require.NoError(t, err)
	assert.NotEqual(t, a.Digest(), b.Digest())

	a.Reset()
	assert.Equal(t, newSim(t, 100, WorstFit).Digest(), a.Digest())
}

func TestSimulator_Reset(t *testing.T) {
	s := fragmented(t, BestFit)
	s.Reset()
	assert.Equal(t, []blocklist.Block{{Start: 0, End: 99}}, s.FreeBlocks())
	assert.Empty(t, s.AllocatedBlocks())
	assert.Equal(t, int64(100), s.FreeSpace)
	assert.Equal(t, int64(0), s.AllocatedSpace)
}

func TestSimulator_Logging(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(Config{MemorySize: 10, Policy: FirstFit, Logger: log.NewLogfmtLogger(&buf)})
	require.NoError(t, err)

	_, err = s.Allocate(1, 4)
	require.NoError(t, err)
	_, err = s.Allocate(2, 40)
	require.Error(t, err)
	_, err = s.Free(1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=allocated")
	assert.Contains(t, out, "msg=\"allocation failed\"")
	assert.Contains(t, out, "msg=freed")
	assert.Contains(t, out, "policy=first")
}

func TestSimulator_Print(t *testing.T) {
	s := newSim(t, 20, FirstFit)
	_, err := s.Allocate(3, 5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf))
	assert.Equal(t, "free:\nPID=0 START:5 END:19\nallocated:\nPID=3 START:0 END:4\n", buf.String())
}

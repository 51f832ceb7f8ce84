package memsim

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/garethgeorge/memsim/internal/blocklist"
)

// Simulator hands out ranges of a fixed address space to processes.
// It is not thread-safe.
type Simulator struct {
	MemorySize     int64
	FreeSpace      int64
	AllocatedSpace int64

	policy Policy
	logger log.Logger

	// Both lists are kept sorted by start address.
	free      *blocklist.List
	allocated *blocklist.List
}

func New(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Simulator{
		MemorySize: cfg.MemorySize,
		policy:     cfg.Policy,
		logger:     log.With(logger, "policy", cfg.Policy),
		free:       blocklist.New(),
		allocated:  blocklist.New(),
	}
	s.Reset()
	return s, nil
}

func (s *Simulator) Policy() Policy {
	return s.policy
}

// Reset releases every allocation, leaving one free block that spans the address space.
func (s *Simulator) Reset() {
	s.free.Reset()
	s.allocated.Reset()
	s.free.PushBack(blocklist.Block{PID: blocklist.FreePID, Start: 0, End: s.MemorySize - 1})
	s.FreeSpace = s.MemorySize
	s.AllocatedSpace = 0
}

// findFree returns the index in the free list of the block chosen by the policy, or -1.
func (s *Simulator) findFree(size int64) int {
	if s.policy == FirstFit {
		return s.free.IndexOfSize(size)
	}
	found := -1
	var foundSize int64
	i := 0
	for b := range s.free.All() {
		better := b.Fits(size) && (found < 0 ||
			(s.policy == BestFit && b.Size() < foundSize) ||
			(s.policy == WorstFit && b.Size() > foundSize))
		if better {
			found, foundSize = i, b.Size()
		}
		i++
	}
	return found
}

// Allocate carves size addresses out of a free block for pid. A process may hold any
// number of blocks.
func (s *Simulator) Allocate(pid int, size int64) (blocklist.Block, error) {
	if pid == blocklist.FreePID {
		return blocklist.Block{}, fmt.Errorf("allocating for pid %d: %w", pid, ErrInvalidPID)
	}
	if size <= 0 {
		return blocklist.Block{}, fmt.Errorf("allocating %d for pid %d: %w", size, pid, ErrInvalidSize)
	}

	idx := s.findFree(size)
	if idx < 0 {
		level.Debug(s.logger).Log("msg", "allocation failed", "pid", pid, "size", size, "free", s.FreeSpace)
		return blocklist.Block{}, fmt.Errorf("allocating %d for pid %d: %w", size, pid, ErrNoMemory)
	}

	hole, ok := s.free.RemoveAt(idx)
	if !ok {
		panic("free block vanished between lookup and removal")
	}
	block := blocklist.Block{PID: pid, Start: hole.Start, End: hole.Start + size - 1}
	if block.End < hole.End {
		// The remainder takes the hole's place, so address order holds.
		s.free.InsertAt(blocklist.Block{PID: blocklist.FreePID, Start: block.End + 1, End: hole.End}, idx)
	}
	s.allocated.InsertByAddress(block)
	s.FreeSpace -= size
	s.AllocatedSpace += size

	level.Debug(s.logger).Log("msg", "allocated", "pid", pid, "start", block.Start, "end", block.End)
	return block, nil
}

// Free releases every block held by pid, merging them with neighbouring free blocks, and
// returns the number of addresses released.
func (s *Simulator) Free(pid int) (int64, error) {
	var released int64
	var blocks int
	for idx := s.allocated.IndexOfPID(pid); idx >= 0; idx = s.allocated.IndexOfPID(pid) {
		b, _ := s.allocated.RemoveAt(idx)
		released += b.Size()
		blocks++
		b.PID = blocklist.FreePID
		s.free.InsertByAddress(b)
	}
	if blocks == 0 {
		return 0, fmt.Errorf("freeing pid %d: %w", pid, ErrUnknownPID)
	}
	s.free.Coalesce()
	s.FreeSpace += released
	s.AllocatedSpace -= released

	level.Debug(s.logger).Log("msg", "freed", "pid", pid, "blocks", blocks, "size", released)
	return released, nil
}

// Holds reports whether pid currently owns any block.
func (s *Simulator) Holds(pid int) bool {
	return s.allocated.ContainsPID(pid)
}

func (s *Simulator) FreeBlocks() []blocklist.Block {
	return s.free.Blocks()
}

func (s *Simulator) AllocatedBlocks() []blocklist.Block {
	return s.allocated.Blocks()
}

// FreeBlocksBySize returns the free blocks, largest first.
func (s *Simulator) FreeBlocksBySize() []blocklist.Block {
	var bySize blocklist.List
	for b := range s.free.All() {
		bySize.InsertBySizeDescending(b)
	}
	return bySize.Blocks()
}

type Stats struct {
	MemorySize      int64
	FreeSpace       int64
	AllocatedSpace  int64
	FreeBlocks      int
	AllocatedBlocks int
	LargestFree     int64
}

// Fragmentation is the percentage of free space outside the largest free block.
func (s Stats) Fragmentation() float64 {
	if s.FreeSpace == 0 {
		return 0
	}
	return 100 * (1 - float64(s.LargestFree)/float64(s.FreeSpace))
}

func (s *Simulator) Stats() Stats {
	stats := Stats{
		MemorySize:      s.MemorySize,
		FreeSpace:       s.FreeSpace,
		AllocatedSpace:  s.AllocatedSpace,
		AllocatedBlocks: s.allocated.Len(),
	}
	for b := range s.free.All() {
		stats.FreeBlocks++
		stats.LargestFree = max(stats.LargestFree, b.Size())
	}
	return stats
}

// Digest fingerprints the layout of both lists. Two simulators with the same free and
// allocated blocks have the same digest.
func (s *Simulator) Digest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 24)
	write := func(l *blocklist.List) {
		for b := range l.All() {
			buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(b.PID))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(b.Start))
			buf = binary.LittleEndian.AppendUint64(buf, uint64(b.End))
			_, _ = d.Write(buf)
		}
	}
	write(s.free)
	_, _ = d.WriteString("|")
	write(s.allocated)
	return d.Sum64()
}

// Print dumps both lists for debugging.
func (s *Simulator) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "free:"); err != nil {
		return err
	}
	if err := s.free.Print(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "allocated:"); err != nil {
		return err
	}
	return s.allocated.Print(w)
}

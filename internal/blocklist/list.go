// Package blocklist provides an ordered, singly linked list of address blocks used as
// the bookkeeping structure of a memory allocator.
package blocklist

import (
	"fmt"
	"io"
	"iter"
	"slices"
)

// nilNode marks the end of a chain. Node handles are 1-based offsets into List.nodes so
// that the zero value of List is an empty list.
const nilNode = 0

type node struct {
	blk  Block
	next int
}

// List is a singly linked list of blocks backed by a slab of nodes.
// It is not thread-safe; callers sharing a list must serialize access themselves.
type List struct {
	nodes []node
	head  int
	// Released slots, chained through node.next and reused by later inserts.
	freeSlots int
}

func New() *List {
	return &List{}
}

func (l *List) node(h int) *node {
	return &l.nodes[h-1]
}

func (l *List) next(h int) int {
	return l.nodes[h-1].next
}

// alloc stores b in a free slot and returns its handle. It may grow l.nodes, so node
// pointers obtained before the call must not be used after it.
func (l *List) alloc(b Block) int {
	if l.freeSlots != nilNode {
		h := l.freeSlots
		n := l.node(h)
		l.freeSlots = n.next
		*n = node{blk: b}
		return h
	}
	l.nodes = append(l.nodes, node{blk: b})
	return len(l.nodes)
}

// release returns the slot to the free chain and hands its block back to the caller.
func (l *List) release(h int) Block {
	n := l.node(h)
	b := n.blk
	*n = node{next: l.freeSlots}
	l.freeSlots = h
	return b
}

// linkAfter splices h in after prev, or at the front when prev is nilNode.
func (l *List) linkAfter(prev, h int) {
	if prev == nilNode {
		l.node(h).next = l.head
		l.head = h
		return
	}
	l.node(h).next = l.node(prev).next
	l.node(prev).next = h
}

// Reset drops every block and the storage behind them.
func (l *List) Reset() {
	clear(l.nodes)
	l.nodes = l.nodes[:0]
	l.head = nilNode
	l.freeSlots = nilNode
}

// Len walks the list and counts its blocks.
func (l *List) Len() int {
	n := 0
	for h := l.head; h != nilNode; h = l.next(h) {
		n++
	}
	return n
}

func (l *List) PushFront(b Block) {
	l.linkAfter(nilNode, l.alloc(b))
}

func (l *List) PushBack(b Block) {
	h := l.alloc(b)
	if l.head == nilNode {
		l.head = h
		return
	}
	tail := l.head
	for l.next(tail) != nilNode {
		tail = l.next(tail)
	}
	l.linkAfter(tail, h)
}

// InsertAt inserts b so that it becomes the element at index. An index past the end of
// the list appends b. A negative index inserts nothing and returns false.
func (l *List) InsertAt(b Block, index int) bool {
	if index < 0 {
		return false
	}
	h := l.alloc(b)
	if index == 0 || l.head == nilNode {
		l.linkAfter(nilNode, h)
		return true
	}
	prev := l.head
	for i := 1; i < index && l.next(prev) != nilNode; i++ {
		prev = l.next(prev)
	}
	l.linkAfter(prev, h)
	return true
}

// InsertByAddress inserts b keeping the list sorted by ascending start address. Blocks
// with an equal start go after the existing ones, except that a block starting at or
// before the head always becomes the new head.
func (l *List) InsertByAddress(b Block) {
	h := l.alloc(b)
	if l.head == nilNode || b.Start <= l.node(l.head).blk.Start {
		l.linkAfter(nilNode, h)
		return
	}
	prev := l.head
	for cur := l.next(prev); cur != nilNode && b.Start >= l.node(cur).blk.Start; cur = l.next(cur) {
		prev = cur
	}
	l.linkAfter(prev, h)
}

// InsertBySizeAscending places b by block size. A block at least as large as the head
// becomes the new head; otherwise b goes after the run of following blocks that are at
// least as large as it is. This is the same placement rule as InsertBySizeDescending.
func (l *List) InsertBySizeAscending(b Block) {
	l.insertBySize(b)
}

// InsertBySizeDescending places b in front of the first block smaller than it. A block at
// least as large as the head becomes the new head.
func (l *List) InsertBySizeDescending(b Block) {
	l.insertBySize(b)
}

func (l *List) insertBySize(b Block) {
	size := b.Size()
	h := l.alloc(b)
	if l.head == nilNode || size >= l.node(l.head).blk.Size() {
		l.linkAfter(nilNode, h)
		return
	}
	prev := l.head
	for cur := l.next(prev); cur != nilNode && size <= l.node(cur).blk.Size(); cur = l.next(cur) {
		prev = cur
	}
	l.linkAfter(prev, h)
}

// Front returns the head block without removing it.
func (l *List) Front() (Block, bool) {
	if l.head == nilNode {
		return Block{}, false
	}
	return l.node(l.head).blk, true
}

func (l *List) PopFront() (Block, bool) {
	if l.head == nilNode {
		return Block{}, false
	}
	h := l.head
	l.head = l.next(h)
	return l.release(h), true
}

func (l *List) PopBack() (Block, bool) {
	if l.head == nilNode {
		return Block{}, false
	}
	if l.next(l.head) == nilNode {
		return l.PopFront()
	}
	prev := l.head
	for l.next(l.next(prev)) != nilNode {
		prev = l.next(prev)
	}
	tail := l.next(prev)
	l.node(prev).next = nilNode
	return l.release(tail), true
}

// RemoveAt unlinks and returns the block at index. It returns false, removing nothing,
// when index is out of range.
func (l *List) RemoveAt(index int) (Block, bool) {
	if index < 0 || l.head == nilNode {
		return Block{}, false
	}
	if index == 0 {
		return l.PopFront()
	}
	prev := l.head
	cur := l.next(prev)
	for i := 1; cur != nilNode && i < index; i++ {
		prev = cur
		cur = l.next(cur)
	}
	if cur == nilNode {
		return Block{}, false
	}
	l.node(prev).next = l.next(cur)
	return l.release(cur), true
}

// At returns the block at index without removing it.
func (l *List) At(index int) (Block, bool) {
	if index < 0 {
		return Block{}, false
	}
	i := 0
	for h := l.head; h != nilNode; h = l.next(h) {
		if i == index {
			return l.node(h).blk, true
		}
		i++
	}
	return Block{}, false
}

// IndexFunc returns the position of the first block satisfying match, or -1.
func (l *List) IndexFunc(match func(Block) bool) int {
	i := 0
	for h := l.head; h != nilNode; h = l.next(h) {
		if match(l.node(h).blk) {
			return i
		}
		i++
	}
	return -1
}

// IndexOf returns the position of the first block equal to b, or -1.
func (l *List) IndexOf(b Block) int {
	return l.IndexFunc(b.Equal)
}

// IndexOfSize returns the position of the first block of at least minSize, or -1.
func (l *List) IndexOfSize(minSize int64) int {
	return l.IndexFunc(func(b Block) bool { return b.Fits(minSize) })
}

// IndexOfPID returns the position of the first block owned by pid, or -1.
func (l *List) IndexOfPID(pid int) int {
	return l.IndexFunc(func(b Block) bool { return b.OwnedBy(pid) })
}

func (l *List) Contains(b Block) bool {
	return l.IndexOf(b) >= 0
}

// ContainsSize reports whether any block holds at least minSize addresses.
func (l *List) ContainsSize(minSize int64) bool {
	return l.IndexOfSize(minSize) >= 0
}

func (l *List) ContainsPID(pid int) bool {
	return l.IndexOfPID(pid) >= 0
}

// Coalesce merges every run of physically contiguous blocks into its first block, which
// keeps its owner and takes the end of the last one. The list must already be sorted by
// ascending start address; an unsorted list is merged pairwise as found.
func (l *List) Coalesce() {
	if l.head == nilNode {
		return
	}
	prev := l.head
	cur := l.next(prev)
	for cur != nilNode {
		p, c := l.node(prev), l.node(cur)
		if p.blk.Adjacent(c.blk) {
			p.blk.End = c.blk.End
			p.next = c.next
			l.release(cur)
			cur = p.next
			continue
		}
		prev = cur
		cur = c.next
	}
}

// All iterates the blocks from front to back. The list must not be modified while
// iterating.
func (l *List) All() iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for h := l.head; h != nilNode; h = l.next(h) {
			if !yield(l.node(h).blk) {
				return
			}
		}
	}
}

// Blocks returns a copy of the list contents in order.
func (l *List) Blocks() []Block {
	return slices.Collect(l.All())
}

// Print writes one line per block, or a note that the list is empty. The output is meant
// for debugging and is not a stable format.
func (l *List) Print(w io.Writer) error {
	if l.head == nilNode {
		_, err := fmt.Fprintln(w, "list is empty")
		return err
	}
	for b := range l.All() {
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

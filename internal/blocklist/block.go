package blocklist

import "fmt"

// FreePID is the owner of a block that is not assigned to any process.
const FreePID = 0

// Block is a contiguous range of addresses owned by a process.
type Block struct {
	PID int
	// The start of the range (inclusive)
	Start int64
	// The end of the range (inclusive)
	End int64
}

// Size returns the number of addresses covered by the block.
func (b Block) Size() int64 {
	return b.End - b.Start + 1
}

func (b Block) IsFree() bool {
	return b.PID == FreePID
}

// Equal reports whether both blocks have the same owner and range.
func (b Block) Equal(other Block) bool {
	return b.PID == other.PID && b.Start == other.Start && b.End == other.End
}

// Fits reports whether a request of size addresses fits within the block.
func (b Block) Fits(size int64) bool {
	return size <= b.Size()
}

func (b Block) OwnedBy(pid int) bool {
	return b.PID == pid
}

// Adjacent reports whether next begins immediately after b ends.
func (b Block) Adjacent(next Block) bool {
	return b.End+1 == next.Start
}

func (b Block) Overlaps(other Block) bool {
	return b.Start <= other.End && other.Start <= b.End
}

func (b Block) String() string {
	return fmt.Sprintf("PID=%d START:%d END:%d", b.PID, b.Start, b.End)
}

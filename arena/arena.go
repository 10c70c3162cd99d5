// Package arena provides scoped scratch memory for conversion calls.
//
// An Arena hands out zeroed, 8-byte-aligned slices from pooled blocks.
// Mark and Reset bracket a conversion scope: everything allocated after
// a mark is reclaimed together when the scope unwinds, which is how
// encoders roll back partial work on error. An Arena is not safe for
// concurrent use; each conversion scope owns its own.
package arena

import "sync"

const (
	blockCap = 64 << 10 // bytes per pooled block
	align    = 8
)

var blockPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, blockCap)
		return &b
	},
}

func getBlock() []byte {
	return *blockPool.Get().(*[]byte)
}

func putBlock(b []byte) {
	if cap(b) != blockCap {
		return // dedicated oversize block, let it go
	}
	b = b[:0]
	blockPool.Put(&b)
}

// Stats contains allocation statistics.
type Stats struct {
	TotalAllocations uint64 // number of Alloc calls that returned memory
	TotalBytesAlloc  uint64 // bytes handed out, excluding padding
	LargestAlloc     uint64 // largest single allocation
	Blocks           int    // blocks currently held
}

type snapshot struct {
	nblocks int
	lastLen int
}

// Arena is a bump allocator over pooled fixed-size blocks. Requests
// larger than a block get a dedicated block of their own.
type Arena struct {
	blocks [][]byte // len is bytes used, cap is block capacity
	marks  []snapshot
	stats  Stats
}

// New returns an empty arena. The zero value is also ready to use.
func New() *Arena {
	return &Arena{}
}

// Alloc returns n zeroed bytes aligned to an 8-byte offset within the
// backing block. It returns nil when n <= 0.
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}

	var cur []byte
	last := len(a.blocks) - 1
	if last >= 0 {
		cur = a.blocks[last]
	}
	off := alignUp(len(cur))
	if last < 0 || cap(cur)-off < n {
		cur = newBlock(n)
		a.blocks = append(a.blocks, cur)
		last = len(a.blocks) - 1
		off = 0
	}

	end := off + n
	cur = cur[:end]
	a.blocks[last] = cur
	out := cur[off:end:end]
	clear(out) // pooled blocks carry old bytes

	a.stats.TotalAllocations++
	a.stats.TotalBytesAlloc += uint64(n)
	if uint64(n) > a.stats.LargestAlloc {
		a.stats.LargestAlloc = uint64(n)
	}
	a.stats.Blocks = len(a.blocks)
	return out
}

func newBlock(n int) []byte {
	if n > blockCap {
		return make([]byte, 0, n)
	}
	return getBlock()
}

// Mark opens a scope and returns a token for Reset. Tokens are
// stack-ordered: resetting an outer mark discards inner ones.
func (a *Arena) Mark() int64 {
	lastLen := 0
	if n := len(a.blocks); n > 0 {
		lastLen = len(a.blocks[n-1])
	}
	a.marks = append(a.marks, snapshot{nblocks: len(a.blocks), lastLen: lastLen})
	return int64(len(a.marks) - 1)
}

// Reset reclaims everything allocated since the mark. Slices handed
// out after the mark must not be used again.
func (a *Arena) Reset(mark int64) {
	if mark < 0 || mark >= int64(len(a.marks)) {
		return
	}
	s := a.marks[mark]
	a.marks = a.marks[:mark]

	for _, b := range a.blocks[s.nblocks:] {
		putBlock(b)
	}
	a.blocks = a.blocks[:s.nblocks]
	if s.nblocks > 0 {
		a.blocks[s.nblocks-1] = a.blocks[s.nblocks-1][:s.lastLen]
	}
	a.stats.Blocks = len(a.blocks)
}

// Release returns all blocks to the pool and empties the arena.
func (a *Arena) Release() {
	for _, b := range a.blocks {
		putBlock(b)
	}
	a.blocks = a.blocks[:0]
	a.marks = a.marks[:0]
	a.stats = Stats{}
}

// Stats returns a copy of the allocation statistics.
func (a *Arena) Stats() Stats {
	return a.stats
}

func alignUp(n int) int {
	return (n + align - 1) &^ (align - 1)
}

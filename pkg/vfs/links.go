package vfs

import "sync"

// LinkTable counts the hard links created since the process started. An
// inode with no entry has exactly one link: the directory entry that
// created it. The table is not persisted.
type LinkTable struct {
	mu     sync.Mutex
	counts map[uint32]uint32
}

// NewLinkTable returns an empty table.
func NewLinkTable() *LinkTable {
	return &LinkTable{counts: make(map[uint32]uint32)}
}

// Nlink returns the link count of inode id.
func (t *LinkTable) Nlink(id uint32) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.counts[id]; ok {
		return n
	}
	return 1
}

// link records one more link to id: the first extra link stores 2.
func (t *LinkTable) link(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.counts[id]; ok {
		t.counts[id] = n + 1
		return
	}
	t.counts[id] = 2
}

// unlink records the removal of a link to id. An absent entry is stored as
// 0 rather than decremented from the implicit 1 that Nlink reports.
func (t *LinkTable) unlink(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n, ok := t.counts[id]; ok {
		if n > 0 {
			t.counts[id] = n - 1
		}
		return
	}
	t.counts[id] = 0
}

// Snapshot returns a copy of the stored counts.
func (t *LinkTable) Snapshot() map[uint32]uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uint32]uint32, len(t.counts))
	for id, n := range t.counts {
		out[id] = n
	}
	return out
}

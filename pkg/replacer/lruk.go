// Package replacer implements the LRU-K page replacement policy (C3): given
// a set of frames marked evictable, it picks which one to evict next based
// on backward K-distance.
package replacer

import (
	"fmt"
	"math"

	"pagekit/pkg/list"

	"github.com/bits-and-blooms/bitset"
)

// FrameID indexes a frame within a buffer pool.
type FrameID int32

// infiniteDistance marks a frame with fewer than K recorded accesses.
const infiniteDistance = math.MaxUint64

type node struct {
	history *list.List[uint64] // front = most recent access
	count   int
}

// LRUKReplacer tracks access history for a bounded set of frame ids and
// selects an eviction victim using backward K-distance ordering.
type LRUKReplacer struct {
	replacerSize int
	k            int
	currentTime  uint64
	currSize     int

	nodes     map[FrameID]*node
	evictable *bitset.BitSet
}

// NewLRUKReplacer constructs a replacer tracking frame ids in [0, numFrames)
// with history depth k.
func NewLRUKReplacer(numFrames int, k int) *LRUKReplacer {
	return &LRUKReplacer{
		replacerSize: numFrames,
		k:            k,
		nodes:        make(map[FrameID]*node),
		evictable:    bitset.New(uint(numFrames)),
	}
}

func (r *LRUKReplacer) checkRange(frameID FrameID) {
	if frameID < 0 || int(frameID) >= r.replacerSize {
		panic(fmt.Sprintf("replacer: frame id %d out of range [0, %d)", frameID, r.replacerSize))
	}
}

// RecordAccess records an access to frameID at the current timestamp,
// creating a tracking node for it if this is its first access. Panics if
// frameID is out of range - a programmer error, not a recoverable failure.
func (r *LRUKReplacer) RecordAccess(frameID FrameID) {
	r.checkRange(frameID)
	n, ok := r.nodes[frameID]
	if !ok {
		n = &node{history: list.New[uint64]()}
		r.nodes[frameID] = n
	}
	n.history.PushHead(r.currentTime)
	n.count++
	r.currentTime++
}

// SetEvictable transitions frameID's evictability, adjusting the tracked
// size only when the flag actually changes. Panics if frameID is out of
// range or has never been recorded.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.checkRange(frameID)
	if _, ok := r.nodes[frameID]; !ok {
		panic(fmt.Sprintf("replacer: frame id %d was never recorded", frameID))
	}
	was := r.evictable.Test(uint(frameID))
	if was == evictable {
		return
	}
	r.evictable.SetTo(uint(frameID), evictable)
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// backwardKDistance returns n's backward K-distance: currentTime minus the
// timestamp of its K-th most recent access, or infiniteDistance if fewer
// than K accesses have been recorded.
func (r *LRUKReplacer) backwardKDistance(n *node) uint64 {
	if n.count < r.k {
		return infiniteDistance
	}
	link := n.history.PeekHead()
	for i := 1; i < r.k; i++ {
		link = link.GetNext()
	}
	return r.currentTime - link.GetValue()
}

// Evict selects and returns an eviction victim among evictable frames,
// preferring frames with fewer than K accesses (tie-broken by the oldest
// recorded access among them), then the frame with the largest backward
// K-distance. Returns false if no frame is evictable.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	var victim FrameID
	found := false
	victimIsShortHistory := false
	var victimDistance uint64
	var victimOldest uint64

	for frameID, n := range r.nodes {
		if !r.evictable.Test(uint(frameID)) {
			continue
		}
		distance := r.backwardKDistance(n)
		isShortHistory := distance == infiniteDistance
		oldest := n.history.PeekTail().GetValue()

		switch {
		case !found:
			found, victim, victimDistance, victimIsShortHistory, victimOldest = true, frameID, distance, isShortHistory, oldest
		case isShortHistory && !victimIsShortHistory:
			victim, victimDistance, victimIsShortHistory, victimOldest = frameID, distance, isShortHistory, oldest
		case isShortHistory && victimIsShortHistory:
			if oldest < victimOldest {
				victim, victimOldest = frameID, oldest
			}
		case !isShortHistory && !victimIsShortHistory:
			if distance > victimDistance {
				victim, victimDistance = frameID, distance
			}
		}
	}

	if !found {
		return 0, false
	}

	n := r.nodes[victim]
	n.history = list.New[uint64]()
	n.count = 0
	r.evictable.Clear(uint(victim))
	r.currSize--
	return victim, true
}

// Remove clears frameID's history and evictability without counting as an
// eviction. An untracked frameID is a silent no-op; a tracked frameID that
// is currently not evictable (i.e. pinned) is a caller bug and panics.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	n, ok := r.nodes[frameID]
	if !ok {
		return
	}
	if !r.evictable.Test(uint(frameID)) {
		panic(fmt.Sprintf("replacer: Remove called on pinned frame %d", frameID))
	}
	n.history = list.New[uint64]()
	n.count = 0
	r.evictable.Clear(uint(frameID))
	r.currSize--
}

// Size returns the number of currently evictable frames.
func (r *LRUKReplacer) Size() int {
	return r.currSize
}

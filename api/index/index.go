// Package index keeps in-memory read models over pool state for the API:
// pools ordered by reward window end, and per-pool staker leaderboards.
// The keepers stay the source of truth; the service refreshes these after
// each committed mutation.
package index

import (
	"sync"

	"github.com/google/btree"
	"github.com/huandu/skiplist"
)

const btreeDegree = 32

// windowItem orders pools by reward window end, then by id
type windowItem struct {
	end    int64
	poolID string
}

func (a *windowItem) Less(b btree.Item) bool {
	o := b.(*windowItem)
	if a.end != o.end {
		return a.end < o.end
	}
	return a.poolID < o.poolID
}

// stakeKey orders stakers by balance descending, then owner ascending
type stakeKey struct {
	balance uint64
	owner   string
}

type stakeKeyDesc struct{}

func (stakeKeyDesc) Compare(lhs, rhs interface{}) int {
	l := lhs.(stakeKey)
	r := rhs.(stakeKey)
	switch {
	case l.balance > r.balance:
		return -1
	case l.balance < r.balance:
		return 1
	case l.owner < r.owner:
		return -1
	case l.owner > r.owner:
		return 1
	}
	return 0
}

func (stakeKeyDesc) CalcScore(key interface{}) float64 {
	return -float64(key.(stakeKey).balance)
}

// Staker is one leaderboard row
type Staker struct {
	Owner   string `json:"owner"`
	Balance uint64 `json:"balance"`
}

type leaderboard struct {
	list     *skiplist.SkipList
	balances map[string]uint64
}

func newLeaderboard() *leaderboard {
	return &leaderboard{
		list:     skiplist.New(stakeKeyDesc{}),
		balances: make(map[string]uint64),
	}
}

// Index is safe for concurrent use
type Index struct {
	mu      sync.RWMutex
	windows *btree.BTree
	ends    map[string]int64
	boards  map[string]*leaderboard
}

// New creates an empty index
func New() *Index {
	return &Index{
		windows: btree.New(btreeDegree),
		ends:    make(map[string]int64),
		boards:  make(map[string]*leaderboard),
	}
}

// UpsertPool records the current reward window end of a pool
func (ix *Index) UpsertPool(poolID string, rewardEnd int64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.ends[poolID]; ok {
		if old == rewardEnd {
			return
		}
		ix.windows.Delete(&windowItem{end: old, poolID: poolID})
	}
	ix.windows.ReplaceOrInsert(&windowItem{end: rewardEnd, poolID: poolID})
	ix.ends[poolID] = rewardEnd
}

// ActivePools returns pools whose reward window is still open at now,
// soonest-ending first.
func (ix *Index) ActivePools(now int64) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var ids []string
	ix.windows.AscendGreaterOrEqual(&windowItem{end: now + 1}, func(item btree.Item) bool {
		ids = append(ids, item.(*windowItem).poolID)
		return true
	})
	return ids
}

// EndingBetween returns pools whose window ends in [from, to)
func (ix *Index) EndingBetween(from, to int64) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var ids []string
	ix.windows.AscendRange(&windowItem{end: from}, &windowItem{end: to}, func(item btree.Item) bool {
		ids = append(ids, item.(*windowItem).poolID)
		return true
	})
	return ids
}

// SetStake records owner's staked balance in a pool. A zero balance removes
// the owner from the leaderboard.
func (ix *Index) SetStake(poolID, owner string, balance uint64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	board, ok := ix.boards[poolID]
	if !ok {
		board = newLeaderboard()
		ix.boards[poolID] = board
	}
	if old, ok := board.balances[owner]; ok {
		board.list.Remove(stakeKey{balance: old, owner: owner})
		delete(board.balances, owner)
	}
	if balance == 0 {
		return
	}
	board.list.Set(stakeKey{balance: balance, owner: owner}, balance)
	board.balances[owner] = balance
}

// TopStakers returns up to n stakers of a pool, largest first
func (ix *Index) TopStakers(poolID string, n int) []Staker {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	board, ok := ix.boards[poolID]
	if !ok {
		return nil
	}
	out := make([]Staker, 0, min(n, board.list.Len()))
	for elem := board.list.Front(); elem != nil && len(out) < n; elem = elem.Next() {
		key := elem.Key().(stakeKey)
		out = append(out, Staker{Owner: key.owner, Balance: key.balance})
	}
	return out
}

// StakerCount returns the number of stakers with a positive balance
func (ix *Index) StakerCount(poolID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if board, ok := ix.boards[poolID]; ok {
		return board.list.Len()
	}
	return 0
}

package publisher

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chainforge/validator/model/ledger"
)

// recentlyCommittedCapacity bounds how many committed batch IDs are remembered
// to reject late duplicates.
const recentlyCommittedCapacity = 10_000

// pendingBatches is the ordered set of batches waiting for inclusion in a block.
type pendingBatches struct {
	mu        sync.Mutex
	order     []*ledger.Batch
	byID      map[ledger.Identifier]struct{}
	committed *lru.Cache[ledger.Identifier, struct{}]
}

func newPendingBatches() *pendingBatches {
	committed, _ := lru.New[ledger.Identifier, struct{}](recentlyCommittedCapacity)
	return &pendingBatches{
		byID:      make(map[ledger.Identifier]struct{}),
		committed: committed,
	}
}

// Add appends the batch unless it is already pending or was committed recently.
func (p *pendingBatches) Add(batch *ledger.Batch) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.add(batch.ID(), batch)
}

func (p *pendingBatches) add(id ledger.Identifier, batch *ledger.Batch) bool {
	if _, ok := p.byID[id]; ok {
		return false
	}
	if p.committed.Contains(id) {
		return false
	}
	p.byID[id] = struct{}{}
	p.order = append(p.order, batch)
	return true
}

// Remove drops the batches with the given IDs.
func (p *pendingBatches) Remove(ids map[ledger.Identifier]struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.remove(ids)
}

func (p *pendingBatches) remove(ids map[ledger.Identifier]struct{}) {
	if len(ids) == 0 {
		return
	}
	kept := p.order[:0]
	for _, batch := range p.order {
		id := batch.ID()
		if _, drop := ids[id]; drop {
			delete(p.byID, id)
			continue
		}
		kept = append(kept, batch)
	}
	for i := len(kept); i < len(p.order); i++ {
		p.order[i] = nil
	}
	p.order = kept
}

// Update applies a chain head change: committed batches leave the pending set
// for good, batches of an abandoned fork become pending again. It returns the
// batches that were re-added.
func (p *pendingBatches) Update(committed []*ledger.Batch, uncommitted []*ledger.Batch) []*ledger.Batch {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := make(map[ledger.Identifier]struct{}, len(committed))
	for _, batch := range committed {
		id := batch.ID()
		ids[id] = struct{}{}
		p.committed.Add(id, struct{}{})
	}
	p.remove(ids)

	readded := make([]*ledger.Batch, 0, len(uncommitted))
	for _, batch := range uncommitted {
		id := batch.ID()
		p.committed.Remove(id)
		if p.add(id, batch) {
			readded = append(readded, batch)
		}
	}
	return readded
}

// List returns a copy of the pending batches in arrival order.
func (p *pendingBatches) List() []*ledger.Batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*ledger.Batch(nil), p.order...)
}

func (p *pendingBatches) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

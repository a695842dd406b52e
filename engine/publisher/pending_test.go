package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/utils/unittest"
)

func TestPendingBatches(t *testing.T) {
	pending := newPendingBatches()
	batches := unittest.BatchFixtures(4)

	for _, batch := range batches {
		assert.True(t, pending.Add(batch))
	}
	assert.False(t, pending.Add(batches[0]), "duplicates are rejected")
	assert.Equal(t, batches, pending.List())

	pending.Remove(map[ledger.Identifier]struct{}{batches[1].ID(): {}})
	assert.Equal(t, []*ledger.Batch{batches[0], batches[2], batches[3]}, pending.List())

	orphaned := unittest.BatchFixture()
	readded := pending.Update([]*ledger.Batch{batches[0], batches[3]}, []*ledger.Batch{orphaned, batches[2]})
	assert.Equal(t, []*ledger.Batch{orphaned}, readded, "batches already pending are not re-added")
	assert.Equal(t, []*ledger.Batch{batches[2], orphaned}, pending.List())

	assert.False(t, pending.Add(batches[0]), "committed batches are rejected")
	assert.Equal(t, 2, pending.Len())
}

// TestPendingBatches_AbandonedForkReadds checks that a batch committed on a fork
// that is later abandoned becomes pending again.
func TestPendingBatches_AbandonedForkReadds(t *testing.T) {
	pending := newPendingBatches()
	batch := unittest.BatchFixture()
	require.True(t, pending.Add(batch))

	readded := pending.Update([]*ledger.Batch{batch}, nil)
	assert.Empty(t, readded)
	assert.Equal(t, 0, pending.Len())
	assert.False(t, pending.Add(batch), "committed batches are rejected")

	readded = pending.Update(nil, []*ledger.Batch{batch})
	assert.Equal(t, []*ledger.Batch{batch}, readded)
	assert.Equal(t, []*ledger.Batch{batch}, pending.List())
}

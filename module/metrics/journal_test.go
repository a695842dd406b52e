package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainforge/validator/module/metrics"
)

func TestJournalCollector(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := metrics.NewJournalCollector(registry)

	collector.BlockReceived()
	collector.BlockReceived()
	collector.BatchReceived()
	collector.BlockQueueLength(7)
	collector.BlockValidated(true, time.Millisecond)
	collector.BlockValidated(false, time.Millisecond)
	collector.ChainHeadHeight(42)
	collector.SubsystemFailed(metrics.SubsystemPublisher)

	expected := []string{
		"validator_journal_blocks_received_total",
		"validator_journal_batches_received_total",
		"validator_journal_block_queue_length",
		"validator_chain_blocks_validated_total",
		"validator_chain_head_height",
		"validator_journal_subsystem_failures_total",
	}
	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]struct{}, len(families))
	for _, family := range families {
		names[family.GetName()] = struct{}{}
	}
	for _, name := range expected {
		assert.Contains(t, names, name)
	}

	count, err := testutil.GatherAndCount(registry, "validator_chain_blocks_validated_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

// TestJournalCollector_Reregister checks that a second collector on the same registry
// reuses the already registered metrics instead of panicking.
func TestJournalCollector_Reregister(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := metrics.NewJournalCollector(registry)
	second := metrics.NewJournalCollector(registry)

	first.BlockReceived()
	second.BlockReceived()

	count, err := testutil.GatherAndCount(registry, "validator_journal_blocks_received_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

package module

import (
	"time"
)

// JournalMetrics captures the metrics of the journal and its collaborators.
type JournalMetrics interface {
	// BlockReceived counts blocks handed to the block queue.
	BlockReceived()

	// BatchReceived counts batches handed to the batch queue.
	BatchReceived()

	// BlockQueueLength reports the current length of the block queue.
	BlockQueueLength(length int)

	// BatchQueueLength reports the current length of the batch queue.
	BatchQueueLength(length int)

	// BatchObserverFailed counts batch observers that failed during notification.
	BatchObserverFailed()

	// SubsystemFailed counts irrecoverable errors thrown by a journal collaborator.
	SubsystemFailed(subsystem string)

	// JournalStarted and JournalStopped track the lifecycle of the journal.
	JournalStarted()
	JournalStopped()

	// BlockValidated reports the outcome and duration of a block validation.
	BlockValidated(valid bool, duration time.Duration)

	// ChainHeadHeight reports the height of the current chain head.
	ChainHeadHeight(height uint64)

	// BlockPublished counts blocks claimed by the publisher and the number of batches they carry.
	BlockPublished(batches int)

	// PendingBatches reports the number of batches waiting for inclusion.
	PendingBatches(count int)

	// BlockCacheSize reports the number of blocks held by the block cache.
	BlockCacheSize(size int)
}

package metrics

import (
	"time"

	"github.com/chainforge/validator/module"
)

type NoopCollector struct{}

var _ module.JournalMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) BlockReceived()                                    {}
func (nc *NoopCollector) BatchReceived()                                    {}
func (nc *NoopCollector) BlockQueueLength(length int)                       {}
func (nc *NoopCollector) BatchQueueLength(length int)                       {}
func (nc *NoopCollector) BatchObserverFailed()                              {}
func (nc *NoopCollector) SubsystemFailed(subsystem string)                  {}
func (nc *NoopCollector) JournalStarted()                                   {}
func (nc *NoopCollector) JournalStopped()                                   {}
func (nc *NoopCollector) BlockValidated(valid bool, duration time.Duration) {}
func (nc *NoopCollector) ChainHeadHeight(height uint64)                     {}
func (nc *NoopCollector) BlockPublished(batches int)                        {}
func (nc *NoopCollector) PendingBatches(count int)                          {}
func (nc *NoopCollector) BlockCacheSize(size int)                           {}

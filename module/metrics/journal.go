package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainforge/validator/module"
)

type JournalCollector struct {
	blocksReceived     prometheus.Counter
	batchesReceived    prometheus.Counter
	blockQueueLength   prometheus.Gauge
	batchQueueLength   prometheus.Gauge
	observerFailures   prometheus.Counter
	subsystemFailures  *prometheus.CounterVec
	running            prometheus.Gauge
	validations        *prometheus.CounterVec
	validationDuration prometheus.Histogram
	chainHeadHeight    prometheus.Gauge
	blocksPublished    prometheus.Counter
	publishedBatches   prometheus.Histogram
	pendingBatches     prometheus.Gauge
	blockCacheSize     prometheus.Gauge
}

var _ module.JournalMetrics = (*JournalCollector)(nil)

func NewJournalCollector(registerer prometheus.Registerer) *JournalCollector {
	r := NewRegisterer(registerer)

	return &JournalCollector{
		blocksReceived: r.RegisterNewCounter(prometheus.CounterOpts{
			Name:      "blocks_received_total",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "the number of blocks handed to the block queue",
		}),
		batchesReceived: r.RegisterNewCounter(prometheus.CounterOpts{
			Name:      "batches_received_total",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "the number of batches handed to the batch queue",
		}),
		blockQueueLength: r.RegisterNewGauge(prometheus.GaugeOpts{
			Name:      "block_queue_length",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "the number of blocks waiting for the chain controller",
		}),
		batchQueueLength: r.RegisterNewGauge(prometheus.GaugeOpts{
			Name:      "batch_queue_length",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "the number of batches waiting for the block publisher",
		}),
		observerFailures: r.RegisterNewCounter(prometheus.CounterOpts{
			Name:      "batch_observer_failures_total",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "the number of batch observer notifications that failed",
		}),
		subsystemFailures: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Name:      "subsystem_failures_total",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "the number of irrecoverable errors thrown by journal subsystems",
		}, []string{LabelSubsystem}),
		running: r.RegisterNewGauge(prometheus.GaugeOpts{
			Name:      "running",
			Namespace: namespaceValidator,
			Subsystem: subsystemJournal,
			Help:      "1 while the journal subsystems are running",
		}),
		validations: r.RegisterNewCounterVec(prometheus.CounterOpts{
			Name:      "blocks_validated_total",
			Namespace: namespaceValidator,
			Subsystem: subsystemChain,
			Help:      "the number of validated blocks by result",
		}, []string{LabelResult}),
		validationDuration: r.RegisterNewHistogram(prometheus.HistogramOpts{
			Name:      "block_validation_seconds",
			Namespace: namespaceValidator,
			Subsystem: subsystemChain,
			Help:      "the time spent validating a block",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		chainHeadHeight: r.RegisterNewGauge(prometheus.GaugeOpts{
			Name:      "head_height",
			Namespace: namespaceValidator,
			Subsystem: subsystemChain,
			Help:      "the height of the current chain head",
		}),
		blocksPublished: r.RegisterNewCounter(prometheus.CounterOpts{
			Name:      "blocks_published_total",
			Namespace: namespaceValidator,
			Subsystem: subsystemPublisher,
			Help:      "the number of blocks claimed by this node",
		}),
		publishedBatches: r.RegisterNewHistogram(prometheus.HistogramOpts{
			Name:      "batches_per_block",
			Namespace: namespaceValidator,
			Subsystem: subsystemPublisher,
			Help:      "the number of batches included in claimed blocks",
			Buckets:   prometheus.LinearBuckets(0, 10, 10),
		}),
		pendingBatches: r.RegisterNewGauge(prometheus.GaugeOpts{
			Name:      "pending_batches",
			Namespace: namespaceValidator,
			Subsystem: subsystemPublisher,
			Help:      "the number of batches waiting for inclusion in a block",
		}),
		blockCacheSize: r.RegisterNewGauge(prometheus.GaugeOpts{
			Name:      "size",
			Namespace: namespaceValidator,
			Subsystem: subsystemCache,
			Help:      "the number of blocks held by the block cache",
		}),
	}
}

func (jc *JournalCollector) BlockReceived() {
	jc.blocksReceived.Inc()
}

func (jc *JournalCollector) BatchReceived() {
	jc.batchesReceived.Inc()
}

func (jc *JournalCollector) BlockQueueLength(length int) {
	jc.blockQueueLength.Set(float64(length))
}

func (jc *JournalCollector) BatchQueueLength(length int) {
	jc.batchQueueLength.Set(float64(length))
}

func (jc *JournalCollector) BatchObserverFailed() {
	jc.observerFailures.Inc()
}

func (jc *JournalCollector) SubsystemFailed(subsystem string) {
	jc.subsystemFailures.With(prometheus.Labels{LabelSubsystem: subsystem}).Inc()
}

func (jc *JournalCollector) JournalStarted() {
	jc.running.Set(1)
}

func (jc *JournalCollector) JournalStopped() {
	jc.running.Set(0)
}

func (jc *JournalCollector) BlockValidated(valid bool, duration time.Duration) {
	result := ResultInvalid
	if valid {
		result = ResultValid
	}
	jc.validations.With(prometheus.Labels{LabelResult: result}).Inc()
	jc.validationDuration.Observe(duration.Seconds())
}

func (jc *JournalCollector) ChainHeadHeight(height uint64) {
	jc.chainHeadHeight.Set(float64(height))
}

func (jc *JournalCollector) BlockPublished(batches int) {
	jc.blocksPublished.Inc()
	jc.publishedBatches.Observe(float64(batches))
}

func (jc *JournalCollector) PendingBatches(count int) {
	jc.pendingBatches.Set(float64(count))
}

func (jc *JournalCollector) BlockCacheSize(size int) {
	jc.blockCacheSize.Set(float64(size))
}

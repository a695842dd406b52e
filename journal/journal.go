package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/chainforge/validator/engine/chain"
	"github.com/chainforge/validator/engine/publisher"
	"github.com/chainforge/validator/engine/publisher/injector"
	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/module/blockcache"
	"github.com/chainforge/validator/module/component"
	"github.com/chainforge/validator/module/executor"
	"github.com/chainforge/validator/module/irrecoverable"
	"github.com/chainforge/validator/module/metrics"
	"github.com/chainforge/validator/module/queue"
	"github.com/chainforge/validator/module/util"
	"github.com/chainforge/validator/storage"
	"github.com/chainforge/validator/utils/logging"
)

// Journal owns the block publisher and the chain controller. It feeds received
// blocks and batches to them through two unbounded FIFO queues, runs block
// validation on a single-worker executor, and starts and stops both as a unit.
//
// The queues, the executor and the block cache are created once in New and
// survive restarts. The publisher and the chain controller are created anew
// on every Start.
type Journal struct {
	log     zerolog.Logger
	config  Config
	deps    Dependencies
	metrics module.JournalMetrics

	blockCache module.BlockCache
	blockQueue *queue.BlockQueue
	batchQueue *queue.BatchQueue
	executor   *executor.SerialExecutor

	newPublisher       module.PublisherFactory
	newChainController module.ChainControllerFactory

	// mu serializes Start, Stop and Close.
	mu      sync.Mutex
	closed  bool
	state   *atomic.Int32
	running *atomic.Pointer[runningSet]
}

// runningSet holds the collaborators of one Start/Stop cycle.
type runningSet struct {
	publisher       module.BlockPublisher
	chainController module.ChainController
	subsystems      []*subsystem
}

// New creates a journal. It validates the dependencies, resolves defaults and
// creates the queues and the executor. No goroutines are started besides the
// idle executor worker.
func New(log zerolog.Logger, deps Dependencies, opts ...OptionFunc) (*Journal, error) {
	config := DefaultConfig()
	for _, apply := range opts {
		apply(config)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid journal config: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("invalid journal dependencies: %w", err)
	}

	log = log.With().Str("component", "journal").Logger()

	var collector module.JournalMetrics = metrics.NewNoopCollector()
	if deps.MetricsRegisterer != nil {
		collector = metrics.NewJournalCollector(deps.MetricsRegisterer)
	}

	blockQueue, err := queue.NewBlockQueue(collector.BlockQueueLength)
	if err != nil {
		return nil, fmt.Errorf("could not create block queue: %w", err)
	}
	batchQueue, err := queue.NewBatchQueue(collector.BatchQueueLength)
	if err != nil {
		return nil, fmt.Errorf("could not create batch queue: %w", err)
	}

	blockCache := deps.BlockCache
	if blockCache == nil {
		blockCache = blockcache.New(log, deps.BlockStore, collector, config.BlockCacheKeepTime, config.BlockCachePurgeFrequency)
	}

	newPublisher := deps.PublisherFactory
	if newPublisher == nil {
		newPublisher = publisher.NewBlockPublisher
	}
	newChainController := deps.ChainControllerFactory
	if newChainController == nil {
		newChainController = chain.NewChainController
	}

	return &Journal{
		log:                log,
		config:             *config,
		deps:               deps,
		metrics:            collector,
		blockCache:         blockCache,
		blockQueue:         blockQueue,
		batchQueue:         batchQueue,
		executor:           executor.NewSerialExecutor(log),
		newPublisher:       newPublisher,
		newChainController: newChainController,
		state:              atomic.NewInt32(int32(Uninitialized)),
		running:            atomic.NewPointer[runningSet](nil),
	}, nil
}

// State returns the lifecycle state.
func (j *Journal) State() State {
	return State(j.state.Load())
}

// Start constructs the block publisher and the chain controller and starts
// them. It returns once both are ready. Starting a running journal is a no-op.
// If anything fails, everything created by this call is stopped again and the
// journal stays not running.
func (j *Journal) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}
	if j.State() == Running {
		return nil
	}

	set, err := j.build()
	if err != nil {
		return err
	}

	j.executor.Resume()
	for _, s := range []struct {
		name      string
		component component.Component
	}{
		{metrics.SubsystemPublisher, set.publisher},
		{metrics.SubsystemChainController, set.chainController},
	} {
		sub, err := j.launch(s.name, s.component)
		if err != nil {
			j.shutdown(set)
			return err
		}
		set.subsystems = append(set.subsystems, sub)
	}

	if err := j.awaitReady(set); err != nil {
		j.shutdown(set)
		return err
	}

	j.running.Store(set)
	j.state.Store(int32(Running))
	j.metrics.JournalStarted()
	log := j.log.Info()
	if head := set.chainController.ChainHead(); head != nil {
		log = log.Hex("chain_head", logging.ID(head)).Uint64("height", head.Height())
	}
	log.Msg("journal started")
	return nil
}

// build constructs the collaborators of one run. The publisher is created first
// because the chain controller needs its chain head lock.
func (j *Journal) build() (*runningSet, error) {
	head, err := j.deps.BlockStore.ChainHead()
	if err != nil {
		return nil, fmt.Errorf("could not read chain head: %w", err)
	}

	injectors := j.deps.BatchInjectorFactory
	if injectors == nil {
		injectors = injector.NewFactory(j.log, j.deps.StateViewFactory, j.deps.Signer)
	}

	pub, err := j.newPublisher(module.PublisherParams{
		Log:                        j.log,
		TransactionExecutor:        j.deps.TransactionExecutor,
		BlockCache:                 j.blockCache,
		StateViewFactory:           j.deps.StateViewFactory,
		BlockSender:                j.deps.BlockSender,
		BatchSender:                j.deps.BatchSender,
		BatchQueue:                 j.batchQueue,
		SquashHandler:              j.deps.SquashHandler,
		ChainHead:                  head,
		Signer:                     j.deps.Signer,
		DataDir:                    j.config.DataDir,
		ConfigDir:                  j.config.ConfigDir,
		PermissionVerifier:         j.deps.PermissionVerifier,
		CheckPublishBlockFrequency: j.config.CheckPublishBlockFrequency,
		BatchObservers:             j.deps.BatchObservers,
		BatchInjectorFactory:       injectors,
		Metrics:                    j.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create block publisher: %w", err)
	}

	chainController, err := j.newChainController(module.ChainControllerParams{
		Log:                 j.log,
		BlockSender:         j.deps.BlockSender,
		BlockCache:          j.blockCache,
		BlockStore:          j.deps.BlockStore,
		BlockQueue:          j.blockQueue,
		StateViewFactory:    j.deps.StateViewFactory,
		Executor:            j.executor,
		TransactionExecutor: j.deps.TransactionExecutor,
		ChainHeadLock:       pub.ChainHeadLock(),
		OnChainUpdated:      pub.OnChainUpdated,
		SquashHandler:       j.deps.SquashHandler,
		ChainIDManager:      j.deps.ChainIDManager,
		Signer:              j.deps.Signer,
		DataDir:             j.config.DataDir,
		ConfigDir:           j.config.ConfigDir,
		PermissionVerifier:  j.deps.PermissionVerifier,
		ChainObservers:      j.deps.ChainObservers,
		Metrics:             j.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create chain controller: %w", err)
	}

	return &runningSet{
		publisher:       pub,
		chainController: chainController,
	}, nil
}

func (j *Journal) awaitReady(set *runningSet) error {
	components := make([]module.ReadyDoneAware, 0, len(set.subsystems))
	for _, sub := range set.subsystems {
		components = append(components, sub.component)
	}
	ready := util.AllReady(components...)

	failed := make(chan error, len(set.subsystems))
	returned := make(chan struct{})
	defer close(returned)
	for _, sub := range set.subsystems {
		sub := sub
		go func() {
			select {
			case <-sub.failed:
				failed <- fmt.Errorf("%s failed during startup: %w", sub.name, sub.err)
			case <-sub.monitored:
				select {
				case <-sub.failed:
					failed <- fmt.Errorf("%s failed during startup: %w", sub.name, sub.err)
				default:
					failed <- fmt.Errorf("%s shut down before it was ready", sub.name)
				}
			case <-returned:
			}
		}()
	}

	select {
	case <-ready:
		return nil
	case err := <-failed:
		return err
	}
}

// Stop drains the executor, then stops the block publisher and the chain
// controller, in that order, and waits for each. Stop never fails and is a
// no-op unless the journal is running.
func (j *Journal) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.State() != Running {
		return
	}

	j.shutdown(j.running.Load())
	j.running.Store(nil)
	j.state.Store(int32(Stopped))
	j.metrics.JournalStopped()
	j.log.Info().Msg("journal stopped")
}

// shutdown stops the executor and every launched subsystem of the set.
func (j *Journal) shutdown(set *runningSet) {
	j.executor.Shutdown()
	for _, sub := range set.subsystems {
		sub.stop()
	}
}

// Close stops the journal and releases the executor worker. A closed journal
// cannot be started again.
func (j *Journal) Close() {
	j.Stop()

	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.closed {
		j.closed = true
		j.executor.Close()
	}
}

// OnBlockReceived queues the block for the chain controller. Blocks received
// while the journal is not running are processed after the next Start.
func (j *Journal) OnBlockReceived(block *ledger.Block) error {
	if block == nil {
		return ErrNilBlock
	}
	if !j.blockQueue.Put(block) {
		return fmt.Errorf("block queue rejected block %x", block.ID())
	}
	j.metrics.BlockReceived()
	return nil
}

// OnBatchReceived queues the batch for the block publisher and then notifies
// every batch observer, in registration order, on the calling goroutine. An
// observer that panics is logged and skipped; the remaining observers are
// still notified.
func (j *Journal) OnBatchReceived(batch *ledger.Batch) error {
	if batch == nil {
		return ErrNilBatch
	}
	if !j.batchQueue.Put(batch) {
		return fmt.Errorf("batch queue rejected batch %x", batch.ID())
	}
	j.metrics.BatchReceived()

	for i, observer := range j.deps.BatchObservers {
		j.notifyBatchPending(i, observer, batch)
	}
	return nil
}

func (j *Journal) notifyBatchPending(index int, observer module.BatchObserver, batch *ledger.Batch) {
	defer func() {
		if r := recover(); r != nil {
			batchID := batch.ID()
			j.log.Error().
				Int("observer", index).
				Hex("batch_id", batchID[:]).
				Interface("panic", r).
				Msg("batch observer failed")
			j.metrics.BatchObserverFailed()
		}
	}()
	observer.NotifyBatchPending(batch)
}

// CurrentChainHeadStateRoot returns the state root of the chain controller's
// current chain head.
// Expected errors:
//   - ErrNotRunning if the journal is not running
func (j *Journal) CurrentChainHeadStateRoot() (ledger.StateCommitment, error) {
	set := j.running.Load()
	if set == nil {
		return ledger.StateCommitment{}, ErrNotRunning
	}
	return set.chainController.ChainHead().StateRoot(), nil
}

// BlockStore returns the block store the journal was constructed with.
func (j *Journal) BlockStore() storage.Blocks {
	return j.deps.BlockStore
}

// subsystem is a started collaborator together with the means to stop it.
type subsystem struct {
	name      string
	component component.Component
	cancel    context.CancelFunc

	// failed is closed if the component threw an irrecoverable error; err holds it.
	failed chan struct{}
	err    error
	// monitored is closed once the monitor returned, after failed if it failed.
	monitored chan struct{}
}

// launch starts the component under its own cancellable signaler context.
// Irrecoverable errors it throws are logged and counted; they stop the
// component but not the journal.
func (j *Journal) launch(name string, c component.Component) (sub *subsystem, err error) {
	ctx, cancel := context.WithCancel(context.Background())
	signalerCtx, errChan := irrecoverable.WithSignaler(ctx)

	defer func() {
		if r := recover(); r != nil {
			cancel()
			sub = nil
			err = fmt.Errorf("could not start %s: %v", name, r)
		}
	}()
	c.Start(signalerCtx)

	sub = &subsystem{
		name:      name,
		component: c,
		cancel:    cancel,
		failed:    make(chan struct{}),
		monitored: make(chan struct{}),
	}
	go j.monitor(sub, errChan)
	return sub, nil
}

func (j *Journal) monitor(sub *subsystem, errChan <-chan error) {
	defer close(sub.monitored)
	select {
	case err := <-errChan:
		j.fail(sub, err)
	case <-sub.component.Done():
		// the error is delivered before Done closes
		select {
		case err := <-errChan:
			j.fail(sub, err)
		default:
		}
	}
}

func (j *Journal) fail(sub *subsystem, err error) {
	if err == nil {
		return
	}
	j.log.Error().Err(err).Str("subsystem", sub.name).Msg("journal subsystem failed")
	j.metrics.SubsystemFailed(sub.name)
	sub.err = err
	close(sub.failed)
}

// stop cancels the component's context and waits until it is done.
func (s *subsystem) stop() {
	s.cancel()
	<-s.component.Done()
}

package publisher

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/module/component"
	"github.com/chainforge/validator/module/irrecoverable"
	"github.com/chainforge/validator/module/queue"
	"github.com/chainforge/validator/utils/logging"
)

// Engine is the reference block publisher. One worker moves batches from the
// batch queue into the pending set, a second one periodically builds, signs
// and broadcasts a block on top of the chain head from the pending batches.
type Engine struct {
	log                 zerolog.Logger
	metrics             module.JournalMetrics
	batchQueue          *queue.BatchQueue
	batchSender         module.BatchSender
	blockSender         module.BlockSender
	blockCache          module.BlockCache
	signer              module.Signer
	transactionExecutor module.TransactionExecutor
	squash              module.SquashHandler
	permissions         module.PermissionVerifier
	injectors           module.BatchInjectorFactory
	observers           []module.BatchObserver
	publishFrequency    time.Duration

	pending *pendingBatches

	// chainHeadLock guards head and lastParent. The chain controller holds it
	// while it switches the chain head and calls OnChainUpdated.
	chainHeadLock sync.Mutex
	head          *ledger.Block
	lastParent    ledger.Identifier // parent of the last block we built

	cm *component.ComponentManager
	component.Component
}

var _ module.BlockPublisher = (*Engine)(nil)

func NewEngine(params module.PublisherParams) (*Engine, error) {
	if params.BatchQueue == nil || params.ChainHead == nil {
		return nil, errors.New("block publisher requires a batch queue and a chain head")
	}
	if params.CheckPublishBlockFrequency <= 0 {
		return nil, fmt.Errorf("invalid publish frequency %s", params.CheckPublishBlockFrequency)
	}

	e := &Engine{
		log:                 params.Log.With().Str("publisher", "engine").Logger(),
		metrics:             params.Metrics,
		batchQueue:          params.BatchQueue,
		batchSender:         params.BatchSender,
		blockSender:         params.BlockSender,
		blockCache:          params.BlockCache,
		signer:              params.Signer,
		transactionExecutor: params.TransactionExecutor,
		squash:              params.SquashHandler,
		permissions:         params.PermissionVerifier,
		injectors:           params.BatchInjectorFactory,
		observers:           params.BatchObservers,
		publishFrequency:    params.CheckPublishBlockFrequency,
		pending:             newPendingBatches(),
		head:                params.ChainHead,
		lastParent:          ledger.ZeroID,
	}

	e.cm = component.NewComponentManagerBuilder().
		AddWorker(e.processBatchesLoop).
		AddWorker(e.publishLoop).
		Build()
	e.Component = e.cm

	return e, nil
}

// NewBlockPublisher is a module.PublisherFactory for the reference engine.
func NewBlockPublisher(params module.PublisherParams) (module.BlockPublisher, error) {
	return NewEngine(params)
}

func (e *Engine) ChainHeadLock() sync.Locker {
	return &e.chainHeadLock
}

// OnChainUpdated must be called with ChainHeadLock held.
func (e *Engine) OnChainUpdated(head *ledger.Block, committed []*ledger.Batch, uncommitted []*ledger.Batch) {
	e.head = head

	readded := e.pending.Update(committed, uncommitted)
	for _, batch := range readded {
		for i, observer := range e.observers {
			e.notifyBatchPending(i, observer, batch)
		}
	}
	e.metrics.PendingBatches(e.pending.Len())

	e.log.Debug().
		Hex("head_id", logging.ID(head)).
		Uint64("head_height", head.Height()).
		Int("readded_batches", len(readded)).
		Msg("chain head changed")
}

// notifyBatchPending runs one observer. A panicking observer must not abort
// the chain update in progress.
func (e *Engine) notifyBatchPending(index int, observer module.BatchObserver, batch *ledger.Batch) {
	defer func() {
		if r := recover(); r != nil {
			batchID := batch.ID()
			e.log.Error().
				Int("observer", index).
				Hex("batch_id", batchID[:]).
				Interface("panic", r).
				Msg("batch observer failed")
			e.metrics.BatchObserverFailed()
		}
	}()
	observer.NotifyBatchPending(batch)
}

// PendingBatches returns the batches waiting for inclusion, in arrival order.
func (e *Engine) PendingBatches() []*ledger.Batch {
	return e.pending.List()
}

func (e *Engine) processBatchesLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	e.batchQueue.Renotify()
	ready()

	doneSignal := ctx.Done()
	newBatchSignal := e.batchQueue.Channel()
	for {
		select {
		case <-doneSignal:
			return
		case <-newBatchSignal:
			e.processQueuedBatches(ctx)
		}
	}
}

// processQueuedBatches drains the batch queue into the pending set. Batches
// from unauthorized signers and duplicates are dropped.
func (e *Engine) processQueuedBatches(ctx irrecoverable.SignalerContext) {
	for {
		if ctx.Err() != nil {
			return
		}
		batch, ok := e.batchQueue.Pop()
		if !ok {
			return
		}

		e.chainHeadLock.Lock()
		root := e.head.StateRoot()
		e.chainHeadLock.Unlock()

		batchID := batch.ID()
		if !e.permissions.IsBatchSignerAuthorized(batch, root) {
			e.log.Warn().Hex("batch_id", batchID[:]).Msg("dropping batch from unauthorized signer")
			continue
		}
		if !e.pending.Add(batch) {
			e.log.Debug().Hex("batch_id", batchID[:]).Msg("dropping duplicate batch")
			continue
		}
		e.metrics.PendingBatches(e.pending.Len())
		e.batchSender.SendBatch(batch)
	}
}

func (e *Engine) publishLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	ticker := time.NewTicker(e.publishFrequency)
	defer ticker.Stop()
	ready()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := e.tryPublish()
			if err != nil {
				ctx.Throw(err)
			}
		}
	}
}

// tryPublish builds a block on the chain head if there are pending batches and
// no block was built on this head yet. No errors are expected during normal
// operations; an error means the node could not sign.
func (e *Engine) tryPublish() error {
	e.chainHeadLock.Lock()
	defer e.chainHeadLock.Unlock()

	head := e.head
	headID := head.ID()
	if headID == e.lastParent {
		return nil
	}
	candidates := e.pending.List()
	if len(candidates) == 0 {
		return nil
	}

	log := e.log.With().
		Hex("parent_id", headID[:]).
		Uint64("height", head.Height()+1).
		Logger()

	injected, err := e.injectedBatches(head)
	if err != nil {
		log.Error().Err(err).Msg("could not create injected batches, publishing without them")
		injected = nil
	}

	root, executed, err := e.transactionExecutor.Execute(head.StateRoot(), append(injected, candidates...), e.squash)
	if err != nil {
		log.Error().Err(err).Msg("could not execute pending batches")
		return nil
	}

	if e.dropFailed(log, candidates, executed) == 0 {
		return nil
	}

	header := ledger.BlockHeader{
		PreviousID:      headID,
		Height:          head.Height() + 1,
		SignerPublicKey: e.signer.PublicKey(),
		StateRoot:       root,
		BatchIDs:        ledger.BatchIDs(executed),
	}
	signature, err := e.signer.Sign(header.Encode())
	if err != nil {
		return fmt.Errorf("could not sign block header: %w", err)
	}
	block := &ledger.Block{
		Header:    header,
		Batches:   executed,
		Signature: signature,
	}

	e.blockCache.Add(block)
	e.lastParent = headID
	e.metrics.BlockPublished(len(executed))

	blockID := block.ID()
	log.Info().
		Hex("block_id", blockID[:]).
		Int("batches", len(executed)).
		Int("injected_batches", len(injected)).
		Msg("published block")

	e.blockSender.SendBlock(block)
	return nil
}

func (e *Engine) injectedBatches(previous *ledger.Block) ([]*ledger.Batch, error) {
	if e.injectors == nil {
		return nil, nil
	}
	injectors, err := e.injectors.CreateInjectors(previous)
	if err != nil {
		return nil, fmt.Errorf("could not create batch injectors: %w", err)
	}
	var batches []*ledger.Batch
	for _, injector := range injectors {
		injected, err := injector.BlockStart(previous)
		if err != nil {
			return nil, fmt.Errorf("batch injector failed: %w", err)
		}
		batches = append(batches, injected...)
	}
	return batches, nil
}

// dropFailed removes the candidates that did not execute from the pending set
// and returns how many candidates did execute.
func (e *Engine) dropFailed(log zerolog.Logger, candidates []*ledger.Batch, executed []*ledger.Batch) int {
	succeeded := make(map[ledger.Identifier]struct{}, len(executed))
	for _, batch := range executed {
		succeeded[batch.ID()] = struct{}{}
	}
	failed := make(map[ledger.Identifier]struct{})
	for _, batch := range candidates {
		id := batch.ID()
		if _, ok := succeeded[id]; !ok {
			failed[id] = struct{}{}
		}
	}
	if len(failed) > 0 {
		e.pending.Remove(failed)
		e.metrics.PendingBatches(e.pending.Len())
		log.Warn().Int("failed_batches", len(failed)).Msg("dropped batches that failed to execute")
	}
	return len(candidates) - len(failed)
}

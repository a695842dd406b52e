package chain

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/module/component"
	"github.com/chainforge/validator/module/irrecoverable"
	"github.com/chainforge/validator/module/queue"
)

// Engine is the reference chain controller. It consumes the block queue and
// hands every block to the serial executor, where Core validates it and moves
// the chain head.
type Engine struct {
	log        zerolog.Logger
	blockQueue *queue.BlockQueue
	executor   module.Executor
	core       *Core

	// failures carries errors of executor tasks back to the engine's worker,
	// which escalates them as irrecoverable.
	failures chan error

	cm *component.ComponentManager
	component.Component
}

var _ module.ChainController = (*Engine)(nil)

func NewEngine(params module.ChainControllerParams) (*Engine, error) {
	if params.BlockQueue == nil || params.Executor == nil {
		return nil, errors.New("chain controller requires a block queue and an executor")
	}
	core, err := NewCore(params)
	if err != nil {
		return nil, fmt.Errorf("could not create chain core: %w", err)
	}

	e := &Engine{
		log:        params.Log.With().Str("chain", "engine").Logger(),
		blockQueue: params.BlockQueue,
		executor:   params.Executor,
		core:       core,
		failures:   make(chan error, 1),
	}

	e.cm = component.NewComponentManagerBuilder().
		AddWorker(e.processBlocksLoop).
		Build()
	e.Component = e.cm

	return e, nil
}

// NewChainController is a module.ChainControllerFactory for the reference engine.
func NewChainController(params module.ChainControllerParams) (module.ChainController, error) {
	return NewEngine(params)
}

func (e *Engine) ChainHead() *ledger.Block {
	return e.core.ChainHead()
}

// processBlocksLoop submits queued blocks to the executor whenever the block
// queue signals new entries.
func (e *Engine) processBlocksLoop(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	// blocks may have been queued while no controller was running
	e.blockQueue.Renotify()
	ready()

	doneSignal := ctx.Done()
	newBlockSignal := e.blockQueue.Channel()
	for {
		select {
		case <-doneSignal:
			return
		case err := <-e.failures:
			ctx.Throw(err)
		case <-newBlockSignal:
			e.submitQueuedBlocks()
		}
	}
}

// submitQueuedBlocks moves blocks from the queue to the executor until the
// queue is empty. A block is removed from the queue only once the executor
// accepted it, so blocks survive a shutdown of the executor.
func (e *Engine) submitQueuedBlocks() {
	for {
		block, ok := e.blockQueue.Peek()
		if !ok {
			return
		}

		err := e.executor.Submit(func() {
			err := e.core.ProcessBlock(block)
			if err != nil {
				e.fail(fmt.Errorf("could not process block %x: %w", block.ID(), err))
			}
		})
		if err != nil {
			e.log.Debug().Err(err).Int("queued_blocks", e.blockQueue.Len()).Msg("executor rejected block, leaving it queued")
			return
		}
		e.blockQueue.Pop()
	}
}

func (e *Engine) fail(err error) {
	select {
	case e.failures <- err:
	default:
		e.log.Error().Err(err).Msg("dropping chain failure, another one is pending")
	}
}

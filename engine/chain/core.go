package chain

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module"
	"github.com/chainforge/validator/module/irrecoverable"
	"github.com/chainforge/validator/module/signer"
	"github.com/chainforge/validator/storage"
	"github.com/chainforge/validator/utils/logging"
)

// Core validates blocks and moves the chain head. It is not safe for
// concurrent use: the engine runs every ProcessBlock call on the serial executor.
type Core struct {
	log                 zerolog.Logger
	metrics             module.JournalMetrics
	blocks              storage.Blocks
	blockCache          module.BlockCache
	blockSender         module.BlockSender
	transactionExecutor module.TransactionExecutor
	squash              module.SquashHandler
	permissions         module.PermissionVerifier
	chainIDs            module.ChainIDManager
	chainHeadLock       sync.Locker
	onChainUpdated      func(head *ledger.Block, committed []*ledger.Batch, uncommitted []*ledger.Batch)
	observers           []module.ChainObserver

	head *atomic.Pointer[ledger.Block]
}

// NewCore creates the validation core. The chain head is read from the block store.
func NewCore(params module.ChainControllerParams) (*Core, error) {
	head, err := params.BlockStore.ChainHead()
	if err != nil {
		return nil, fmt.Errorf("could not read chain head: %w", err)
	}

	c := &Core{
		log:                 params.Log.With().Str("chain", "core").Logger(),
		metrics:             params.Metrics,
		blocks:              params.BlockStore,
		blockCache:          params.BlockCache,
		blockSender:         params.BlockSender,
		transactionExecutor: params.TransactionExecutor,
		squash:              params.SquashHandler,
		permissions:         params.PermissionVerifier,
		chainIDs:            params.ChainIDManager,
		chainHeadLock:       params.ChainHeadLock,
		onChainUpdated:      params.OnChainUpdated,
		observers:           params.ChainObservers,
		head:                atomic.NewPointer(head),
	}
	if c.chainHeadLock == nil {
		c.chainHeadLock = &sync.Mutex{}
	}
	c.metrics.ChainHeadHeight(head.Height())
	return c, nil
}

// ChainHead returns the current head of the canonical chain. Safe for concurrent use.
func (c *Core) ChainHead() *ledger.Block {
	return c.head.Load()
}

// ProcessBlock validates the block and commits it if it wins the fork choice.
// Invalid blocks are logged and dropped. No errors are expected during normal
// operations; a returned error means storage or the chain id could not be written.
func (c *Core) ProcessBlock(block *ledger.Block) error {
	start := time.Now()
	blockID := block.ID()
	log := c.log.With().
		Hex("block_id", blockID[:]).
		Uint64("height", block.Height()).
		Logger()

	_, err := c.blocks.ByID(blockID)
	if err == nil {
		log.Debug().Msg("skipping known block")
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("could not check block %x: %w", blockID, err)
	}

	parent, err := c.validate(block)
	c.metrics.BlockValidated(err == nil, time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("dropping invalid block")
		return nil
	}

	return c.commit(log, parent, block)
}

var errInvalidBlock = errors.New("invalid block")

// validate checks the block against its parent and returns the parent.
func (c *Core) validate(block *ledger.Block) (*ledger.Block, error) {
	if !block.PayloadMatches() {
		return nil, fmt.Errorf("%w: header does not commit to the block's batches", errInvalidBlock)
	}

	parent, ok := c.blockCache.Get(block.PreviousID())
	if !ok {
		return nil, fmt.Errorf("%w: unknown parent %x", errInvalidBlock, block.PreviousID())
	}
	if parent.Height()+1 != block.Height() {
		return nil, fmt.Errorf("%w: height %d does not extend parent height %d", errInvalidBlock, block.Height(), parent.Height())
	}

	if !signer.Verify(block.Header.SignerPublicKey, block.Header.Encode(), block.Signature) {
		return nil, fmt.Errorf("%w: bad block signature", errInvalidBlock)
	}

	for _, batch := range block.Batches {
		if !c.permissions.IsBatchSignerAuthorized(batch, parent.StateRoot()) {
			return nil, fmt.Errorf("%w: batch %x has unauthorized signer", errInvalidBlock, batch.ID())
		}
	}

	root, executed, err := c.transactionExecutor.Execute(parent.StateRoot(), block.Batches, c.squash)
	if err != nil {
		return nil, fmt.Errorf("%w: execution failed: %s", errInvalidBlock, err.Error())
	}
	if len(executed) != len(block.Batches) {
		return nil, fmt.Errorf("%w: %d of %d batches failed to execute", errInvalidBlock, len(block.Batches)-len(executed), len(block.Batches))
	}
	if root != block.StateRoot() {
		return nil, fmt.Errorf("%w: state root mismatch (expected %s, computed %s)", errInvalidBlock, block.StateRoot(), root)
	}
	return parent, nil
}

// commit stores a valid block and switches the chain head to it if it is
// higher than the current head, or at equal height with a lower ID.
func (c *Core) commit(log zerolog.Logger, parent *ledger.Block, block *ledger.Block) error {
	c.chainHeadLock.Lock()
	defer c.chainHeadLock.Unlock()

	err := c.blocks.Store(block)
	if err != nil {
		return fmt.Errorf("could not store block: %w", err)
	}
	c.blockCache.Add(block)

	head := c.head.Load()
	if !wins(block, head) {
		log.Debug().Hex("head_id", logging.ID(head)).Msg("valid block does not replace chain head")
		return nil
	}

	committed, uncommitted, err := c.forkDiff(head, block)
	if err != nil {
		return fmt.Errorf("could not compute fork diff: %w", err)
	}

	err = c.blocks.SetChainHead(block.ID())
	if err != nil {
		return fmt.Errorf("could not set chain head: %w", err)
	}
	c.head.Store(block)

	_, known, err := c.chainIDs.BlockChainID()
	if err != nil {
		return fmt.Errorf("could not read block chain id: %w", err)
	}
	if !known {
		err = c.chainIDs.SaveBlockChainID(block.ID())
		if err != nil {
			return fmt.Errorf("could not save block chain id: %w", err)
		}
	}

	if c.onChainUpdated != nil {
		c.onChainUpdated(block, committed, uncommitted)
	}
	for _, observer := range c.observers {
		observer.ChainUpdate(block, committed)
	}
	c.metrics.ChainHeadHeight(block.Height())

	log.Info().
		Hex("parent_id", logging.ID(parent)).
		Int("committed_batches", len(committed)).
		Int("uncommitted_batches", len(uncommitted)).
		Msg("chain head updated")

	c.blockSender.SendBlock(block)
	return nil
}

// forkDiff walks both chains back to their common ancestor. It returns the
// batches of the new branch in chain order and the batches of the abandoned
// branch that the new branch does not contain.
func (c *Core) forkDiff(oldHead *ledger.Block, newHead *ledger.Block) ([]*ledger.Batch, []*ledger.Batch, error) {
	var newBranch, oldBranch []*ledger.Block
	var err error

	for newHead.Height() > oldHead.Height() {
		newBranch = append(newBranch, newHead)
		if newHead, err = c.parentOf(newHead); err != nil {
			return nil, nil, err
		}
	}
	for oldHead.Height() > newHead.Height() {
		oldBranch = append(oldBranch, oldHead)
		if oldHead, err = c.parentOf(oldHead); err != nil {
			return nil, nil, err
		}
	}
	for newHead.ID() != oldHead.ID() {
		if newHead.Height() == 0 {
			return nil, nil, irrecoverable.NewExceptionf("chains of %x and %x do not share a genesis block", newHead.ID(), oldHead.ID())
		}
		newBranch = append(newBranch, newHead)
		oldBranch = append(oldBranch, oldHead)
		if newHead, err = c.parentOf(newHead); err != nil {
			return nil, nil, err
		}
		if oldHead, err = c.parentOf(oldHead); err != nil {
			return nil, nil, err
		}
	}

	committed := make([]*ledger.Batch, 0)
	included := make(map[ledger.Identifier]struct{})
	for i := len(newBranch) - 1; i >= 0; i-- {
		for _, batch := range newBranch[i].Batches {
			committed = append(committed, batch)
			included[batch.ID()] = struct{}{}
		}
	}

	uncommitted := make([]*ledger.Batch, 0)
	for i := len(oldBranch) - 1; i >= 0; i-- {
		for _, batch := range oldBranch[i].Batches {
			if _, ok := included[batch.ID()]; !ok {
				uncommitted = append(uncommitted, batch)
			}
		}
	}
	return committed, uncommitted, nil
}

func (c *Core) parentOf(block *ledger.Block) (*ledger.Block, error) {
	parent, ok := c.blockCache.Get(block.PreviousID())
	if !ok {
		return nil, fmt.Errorf("missing ancestor %x of block %x: %w", block.PreviousID(), block.ID(), storage.ErrNotFound)
	}
	return parent, nil
}

func wins(candidate *ledger.Block, head *ledger.Block) bool {
	if candidate.Height() != head.Height() {
		return candidate.Height() > head.Height()
	}
	return candidate.ID().Less(head.ID())
}

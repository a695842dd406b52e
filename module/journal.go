package module

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/module/queue"
	"github.com/chainforge/validator/storage"
)

// BlockPublisher builds and claims new blocks from the batches it consumes
// from the batch queue.
type BlockPublisher interface {
	Startable
	ReadyDoneAware

	// ChainHeadLock guards chain head transitions. The chain controller holds
	// it while switching heads so the publisher never builds on a stale head.
	ChainHeadLock() sync.Locker

	// OnChainUpdated is called by the chain controller, with ChainHeadLock
	// held, after the chain head changed.
	OnChainUpdated(head *ledger.Block, committed []*ledger.Batch, uncommitted []*ledger.Batch)
}

// ChainController validates blocks consumed from the block queue and extends
// or replaces the canonical chain.
type ChainController interface {
	Startable
	ReadyDoneAware

	// ChainHead returns the current head of the canonical chain.
	ChainHead() *ledger.Block
}

// Executor serializes chain validation work onto a single worker.
type Executor interface {
	// Submit enqueues the task. It fails if the executor does not accept tasks.
	Submit(task func()) error
}

// BlockCache is a cache of recently seen blocks shared by the chain controller
// and the block publisher. Implementations must be safe for concurrent use.
type BlockCache interface {
	Add(block *ledger.Block)
	// Get returns the block, falling back to persistent storage on a miss.
	Get(blockID ledger.Identifier) (*ledger.Block, bool)
	Has(blockID ledger.Identifier) bool
	Len() int
}

// BatchObserver is notified when a batch was accepted into the batch queue.
type BatchObserver interface {
	NotifyBatchPending(batch *ledger.Batch)
}

// ChainObserver is notified by the chain controller after a chain head change.
type ChainObserver interface {
	ChainUpdate(head *ledger.Block, committed []*ledger.Batch)
}

// BlockSender broadcasts blocks to the network.
type BlockSender interface {
	SendBlock(block *ledger.Block)
}

// BatchSender broadcasts batches to the network.
type BatchSender interface {
	SendBatch(batch *ledger.Batch)
}

// SquashHandler merges execution contexts into a new state root.
type SquashHandler func(root ledger.StateCommitment, updates map[string][]byte) (ledger.StateCommitment, error)

// TransactionExecutor executes batches on top of a state root.
type TransactionExecutor interface {
	// Execute applies the batches in order on top of root. It returns the
	// resulting state root and the batches that executed successfully.
	Execute(root ledger.StateCommitment, batches []*ledger.Batch, squash SquashHandler) (ledger.StateCommitment, []*ledger.Batch, error)
}

// StateView is a read-only view of the state at one state root.
type StateView interface {
	Get(key string) ([]byte, error)
}

// StateViewFactory creates read-only state views.
type StateViewFactory interface {
	NewStateView(root ledger.StateCommitment) (StateView, error)
}

// Signer signs data with the node's identity key.
type Signer interface {
	PublicKey() []byte
	Sign(data []byte) ([]byte, error)
}

// ChainIDManager persists the ID of the first block committed by this node.
type ChainIDManager interface {
	SaveBlockChainID(blockID ledger.Identifier) error
	BlockChainID() (ledger.Identifier, bool, error)
}

// PermissionVerifier decides whether a batch signer may submit batches at a state root.
type PermissionVerifier interface {
	IsBatchSignerAuthorized(batch *ledger.Batch, root ledger.StateCommitment) bool
}

// BatchInjector produces batches that are prepended to every new block.
type BatchInjector interface {
	BlockStart(previous *ledger.Block) ([]*ledger.Batch, error)
}

// BatchInjectorFactory creates the injectors active on top of the given block.
type BatchInjectorFactory interface {
	CreateInjectors(previous *ledger.Block) ([]BatchInjector, error)
}

// PublisherParams holds everything a BlockPublisher is constructed from.
type PublisherParams struct {
	Log                        zerolog.Logger
	TransactionExecutor        TransactionExecutor
	BlockCache                 BlockCache
	StateViewFactory           StateViewFactory
	BlockSender                BlockSender
	BatchSender                BatchSender
	BatchQueue                 *queue.BatchQueue
	SquashHandler              SquashHandler
	ChainHead                  *ledger.Block
	Signer                     Signer
	DataDir                    string
	ConfigDir                  string
	PermissionVerifier         PermissionVerifier
	CheckPublishBlockFrequency time.Duration
	BatchObservers             []BatchObserver
	BatchInjectorFactory       BatchInjectorFactory
	Metrics                    JournalMetrics
}

// ChainControllerParams holds everything a ChainController is constructed from.
type ChainControllerParams struct {
	Log                 zerolog.Logger
	BlockSender         BlockSender
	BlockCache          BlockCache
	BlockStore          storage.Blocks
	BlockQueue          *queue.BlockQueue
	StateViewFactory    StateViewFactory
	Executor            Executor
	TransactionExecutor TransactionExecutor
	ChainHeadLock       sync.Locker
	OnChainUpdated      func(head *ledger.Block, committed []*ledger.Batch, uncommitted []*ledger.Batch)
	SquashHandler       SquashHandler
	ChainIDManager      ChainIDManager
	Signer              Signer
	DataDir             string
	ConfigDir           string
	PermissionVerifier  PermissionVerifier
	ChainObservers      []ChainObserver
	Metrics             JournalMetrics
}

// PublisherFactory constructs a BlockPublisher.
type PublisherFactory func(params PublisherParams) (BlockPublisher, error)

// ChainControllerFactory constructs a ChainController.
type ChainControllerFactory func(params ChainControllerParams) (ChainController, error)

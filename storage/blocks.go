package storage

import (
	"github.com/chainforge/validator/model/ledger"
)

// Blocks represents persistent storage for blocks and the chain head pointer.
// Implementations must be safe for concurrent use.
type Blocks interface {

	// Store persists the block. Storing a block that already exists is a no-op.
	Store(block *ledger.Block) error

	// ByID returns the block with the given ID. It returns ErrNotFound if the
	// block is unknown.
	ByID(blockID ledger.Identifier) (*ledger.Block, error)

	// ChainHead returns the block the chain head pointer refers to. It returns
	// ErrNotFound if no chain head was set yet.
	ChainHead() (*ledger.Block, error)

	// SetChainHead moves the chain head pointer to the given, already stored block.
	SetChainHead(blockID ledger.Identifier) error
}

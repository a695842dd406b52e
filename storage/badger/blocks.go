package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/chainforge/validator/model/ledger"
	"github.com/chainforge/validator/storage"
	"github.com/chainforge/validator/storage/badger/operation"
)

// Blocks implements block storage and the chain head pointer around a badger DB.
type Blocks struct {
	db *badger.DB
}

var _ storage.Blocks = (*Blocks)(nil)

func NewBlocks(db *badger.DB) *Blocks {
	return &Blocks{
		db: db,
	}
}

func (b *Blocks) Store(block *ledger.Block) error {
	err := b.db.Update(operation.InsertBlock(block))
	if errors.Is(err, storage.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not store block %x: %w", block.ID(), err)
	}
	return nil
}

func (b *Blocks) ByID(blockID ledger.Identifier) (*ledger.Block, error) {
	var block ledger.Block
	err := b.db.View(operation.RetrieveBlock(blockID, &block))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve block %x: %w", blockID, err)
	}
	return &block, nil
}

// ByHeight returns the block at the given height on the canonical chain.
func (b *Blocks) ByHeight(height uint64) (*ledger.Block, error) {
	var block ledger.Block
	err := b.db.View(func(tx *badger.Txn) error {
		var blockID ledger.Identifier
		err := operation.LookupBlockHeight(height, &blockID)(tx)
		if err != nil {
			return fmt.Errorf("could not look up block at height %d: %w", height, err)
		}
		return operation.RetrieveBlock(blockID, &block)(tx)
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (b *Blocks) ChainHead() (*ledger.Block, error) {
	var block ledger.Block
	err := b.db.View(func(tx *badger.Txn) error {
		var headID ledger.Identifier
		err := operation.RetrieveChainHead(&headID)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve chain head pointer: %w", err)
		}
		return operation.RetrieveBlock(headID, &block)(tx)
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// SetChainHead moves the chain head pointer and re-indexes the canonical chain
// from the new head back to the first height whose index already agrees.
func (b *Blocks) SetChainHead(blockID ledger.Identifier) error {
	return b.db.Update(func(tx *badger.Txn) error {
		var block ledger.Block
		err := operation.RetrieveBlock(blockID, &block)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve new chain head %x: %w", blockID, err)
		}

		err = operation.UpdateChainHead(blockID)(tx)
		if err != nil {
			return fmt.Errorf("could not update chain head pointer: %w", err)
		}

		current := &block
		for {
			var indexed ledger.Identifier
			err = operation.LookupBlockHeight(current.Height(), &indexed)(tx)
			if err == nil && indexed == current.ID() {
				return nil
			}
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("could not look up height index: %w", err)
			}

			err = operation.IndexBlockHeight(current.Height(), current.ID())(tx)
			if err != nil {
				return fmt.Errorf("could not index height %d: %w", current.Height(), err)
			}
			if current.Height() == 0 {
				return nil
			}

			var parent ledger.Block
			err = operation.RetrieveBlock(current.PreviousID(), &parent)(tx)
			if errors.Is(err, storage.ErrNotFound) {
				// ancestors below a pruned or never-stored parent stay as indexed
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not retrieve parent of %x: %w", current.ID(), err)
			}
			current = &parent
		}
	})
}

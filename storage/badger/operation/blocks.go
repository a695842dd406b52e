package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/chainforge/validator/model/ledger"
)

func InsertBlock(block *ledger.Block) func(*badger.Txn) error {
	return insert(makePrefix(codeBlock, block.ID()), block)
}

func RetrieveBlock(blockID ledger.Identifier, block *ledger.Block) func(*badger.Txn) error {
	return retrieve(makePrefix(codeBlock, blockID), block)
}

func BlockExists(blockID ledger.Identifier, exists *bool) func(*badger.Txn) error {
	return check(makePrefix(codeBlock, blockID), exists)
}

// IndexBlockHeight points the given height at the block on the canonical chain.
// Fork switches overwrite the index.
func IndexBlockHeight(height uint64, blockID ledger.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeHeightToBlock, height), blockID)
}

func LookupBlockHeight(height uint64, blockID *ledger.Identifier) func(*badger.Txn) error {
	return retrieve(makePrefix(codeHeightToBlock, height), blockID)
}

func UpdateChainHead(blockID ledger.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeChainHead), blockID)
}

func RetrieveChainHead(blockID *ledger.Identifier) func(*badger.Txn) error {
	return retrieve(makePrefix(codeChainHead), blockID)
}
